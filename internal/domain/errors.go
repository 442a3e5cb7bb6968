package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies generation failures.
type ErrorKind string

const (
	KindMissingAPIKey         ErrorKind = "missing_api_key"
	KindTransport             ErrorKind = "transport"
	KindProvider              ErrorKind = "provider"
	KindEmptyResponse         ErrorKind = "empty_response"
	KindParse                 ErrorKind = "parse"
	KindModelsEndpointMissing ErrorKind = "models_endpoint_missing"
	KindUnknown               ErrorKind = "unknown"
)

// Error is a typed generation failure with a human-readable message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

//nolint:gochecknoglobals // sentinels for errors.Is
var (
	ErrMissingAPIKey         = &Error{Kind: KindMissingAPIKey}
	ErrTransport             = &Error{Kind: KindTransport}
	ErrProvider              = &Error{Kind: KindProvider}
	ErrEmptyResponse         = &Error{Kind: KindEmptyResponse}
	ErrParse                 = &Error{Kind: KindParse}
	ErrModelsEndpointMissing = &Error{Kind: KindModelsEndpointMissing}
)

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds a typed error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// MissingAPIKey reports an unset key for a provider.
func MissingAPIKey(provider string) *Error {
	return NewError(KindMissingAPIKey, fmt.Sprintf("no API key configured for %s", provider), nil)
}

// TransportError wraps a network-level failure.
func TransportError(provider string, err error) *Error {
	return NewError(KindTransport, fmt.Sprintf("%s request failed", provider), err)
}

// ProviderError carries the remote API's error message.
func ProviderError(provider, message string) *Error {
	return NewError(KindProvider, fmt.Sprintf("%s API error: %s", provider, message), nil)
}

// EmptyResponse reports a successful call without usable content.
func EmptyResponse(provider string) *Error {
	return NewError(KindEmptyResponse, fmt.Sprintf("%s returned an empty response", provider), nil)
}

// ParseError reports an unusable structured reply.
func ParseError(message string) *Error {
	return NewError(KindParse, message, nil)
}

// KindOf returns the kind of a typed error, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
