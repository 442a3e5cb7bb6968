package domain

import "context"

// Provider represents one hosted LLM backend.
type Provider interface {
	// Key returns the provider identifier.
	Key() string

	// Label returns a display name.
	Label() string

	// DefaultModel returns the model used when none is resolved.
	DefaultModel() string

	// KnownModels returns the static fallback model list.
	KnownModels() []string

	// APIKeyOption names the settings key holding this provider's API key.
	APIKeyOption() string

	// SupportsLiveModels reports whether FetchLiveModels can be called.
	SupportsLiveModels() bool

	// FetchLiveModels lists model identifiers from the provider's API.
	FetchLiveModels(ctx context.Context, apiKey string) ([]string, error)

	// SupportsResponseFormat reports schema-constrained output support.
	SupportsResponseFormat() bool

	// SupportsImageContext reports inline image support.
	SupportsImageContext() bool

	// Generate sends a generation request and returns the normalized reply.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// ProviderRegistry holds the configured adapters.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by key.
	Get(ctx context.Context, key string) (Provider, error)

	// All returns every provider in registration order.
	All(ctx context.Context) []Provider

	// Resolve returns the provider for key, or the default provider.
	Resolve(ctx context.Context, key string) (Provider, error)
}

// KVStore is the generic settings/cache store.
type KVStore interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value.
	Set(ctx context.Context, key, value string) error
}

// AuditLog receives one entry per orchestrated call.
type AuditLog interface {
	Record(ctx context.Context, entry *AuditEntry) error
}

// ConversationTracker hands out per-provider conversation tags.
type ConversationTracker interface {
	EnsureTag(ctx context.Context, provider, storeContext string) (string, error)
}

// ModelCatalog returns the models offered for a provider.
type ModelCatalog interface {
	Available(ctx context.Context, provider Provider) []string
}

// ImageLoader reads image files into inline payloads.
type ImageLoader interface {
	Load(ctx context.Context, images []ImageDescriptor, limit int) []ImagePayload
}

// SettingsSource returns the current operator settings.
type SettingsSource interface {
	Load(ctx context.Context) (Settings, error)
}
