// Package openai provides adapters for OpenAI-compatible chat-completion APIs
// using the official SDK. The OpenAI and Groq variants share one implementation
// and differ only in endpoint, model list and capabilities.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/tidwall/gjson"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/observability"
)

// maxCompletionTokens caps every chat completion.
const maxCompletionTokens = 4096

// Provider implements domain.Provider for an OpenAI-compatible API.
type Provider struct {
	variant variant
	baseURL string
	timeout time.Duration
}

// NewOpenAI creates the OpenAI adapter.
func NewOpenAI(config Config) *Provider {
	return newProvider(openAIVariant(), config)
}

// NewGroq creates the Groq adapter.
func NewGroq(config Config) *Provider {
	return newProvider(groqVariant(), config)
}

func newProvider(v variant, config Config) *Provider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = v.baseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Provider{
		variant: v,
		baseURL: baseURL,
		timeout: time.Duration(config.Timeout) * time.Second,
	}
}

// Key returns the provider identifier.
func (p *Provider) Key() string {
	return p.variant.key
}

// Label returns the display name.
func (p *Provider) Label() string {
	return p.variant.label
}

// DefaultModel returns the hardcoded fallback model.
func (p *Provider) DefaultModel() string {
	return p.variant.defaultModel
}

// KnownModels returns the static model list.
func (p *Provider) KnownModels() []string {
	return append([]string(nil), p.variant.knownModels...)
}

// APIKeyOption names the settings key holding the API key.
func (p *Provider) APIKeyOption() string {
	return fmt.Sprintf(apiKeyOptionTemplate, p.variant.key)
}

// SupportsLiveModels reports model listing support.
func (p *Provider) SupportsLiveModels() bool {
	return true
}

// SupportsResponseFormat reports json_schema support.
func (p *Provider) SupportsResponseFormat() bool {
	return p.variant.responseFormat
}

// SupportsImageContext reports inline image support. Chat messages are sent as plain text.
func (p *Provider) SupportsImageContext() bool {
	return false
}

// Generate sends one system+user chat completion.
func (p *Provider) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		return nil, domain.MissingAPIKey(p.variant.label)
	}

	params := p.toSDKParams(req)

	logger := observability.FromContext(ctx)
	logger.Debug("calling chat completions API",
		observability.String("model", string(params.Model)),
		observability.Bool("response_format", req.ResponseFormat != nil),
	)

	client := p.newClient(apiKey)
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("chat completions call failed", observability.Error(err))
		return nil, p.wrapError(err)
	}

	raw := resp.RawJSON()
	if msg := gjson.Get(raw, "error.message"); msg.Exists() && msg.String() != "" {
		return nil, domain.ProviderError(p.variant.label, msg.String())
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, domain.EmptyResponse(p.variant.label)
	}

	usage := usageFromRaw(raw)
	if usage == nil {
		usage = map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		}
	}

	logger.Debug("chat completions call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return &domain.GenerateResponse{
		Content: resp.Choices[0].Message.Content,
		Usage:   usage,
	}, nil
}

// FetchLiveModels lists models from the /models endpoint.
func (p *Provider) FetchLiveModels(ctx context.Context, apiKey string) ([]string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, domain.MissingAPIKey(p.variant.label)
	}

	client := p.newClient(apiKey)
	page, err := client.Models.List(ctx)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, domain.NewError(domain.KindModelsEndpointMissing,
				fmt.Sprintf("%s has no models endpoint at %s", p.variant.label, p.baseURL), err)
		}
		return nil, p.wrapError(err)
	}

	models := make([]string, 0, len(page.Data))
	for _, model := range page.Data {
		if id := strings.TrimSpace(model.ID); id != "" {
			models = append(models, id)
		}
	}

	if len(models) == 0 {
		return nil, domain.ProviderError(p.variant.label, "no models returned")
	}

	return models, nil
}

func (p *Provider) newClient(apiKey string) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(p.baseURL),
		option.WithMaxRetries(0),
	}

	if p.timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(p.timeout))
	}

	return openai.NewClient(opts...)
}

// toSDKParams converts the domain request to SDK ChatCompletionNewParams.
func (p *Provider) toSDKParams(req *domain.GenerateRequest) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = p.variant.defaultModel
	}

	temperature := domain.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxCompletionTokens),
	}

	if rf := req.ResponseFormat; rf != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   rf.Name,
					Strict: openai.Bool(rf.Strict),
					Schema: rf.Schema,
				},
			},
		}
	}

	return params
}

func (p *Provider) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = fmt.Sprintf("status %d", apiErr.StatusCode)
		}
		return domain.ProviderError(p.variant.label, message)
	}

	return domain.TransportError(p.variant.label, err)
}

// usageFromRaw passes the provider's usage object through unchanged.
func usageFromRaw(raw string) map[string]any {
	usage := gjson.Get(raw, "usage")
	if !usage.IsObject() {
		return nil
	}

	values, ok := usage.Value().(map[string]any)
	if !ok || len(values) == 0 {
		return nil
	}

	return values
}
