// Package google provides an adapter for the Google Generative Language API.
// Requests use the generateContent shape (contents/parts, generationConfig)
// instead of chat messages, and usage metadata is remapped to the common
// prompt/completion/total vocabulary.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/observability"
)

const (
	providerKey       = "google"
	providerLabel     = "Google Gemini"
	defaultModel      = "gemini-2.0-flash"
	maxOutputTokens   = 8192
	apiKeyHeader      = "x-goog-api-key"
	modelPrefix       = "models/"
	generateMethod    = "generateContent"
	jsonMimeType      = "application/json"
	defaultTimeoutSec = 60
)

// Provider implements domain.Provider for Gemini models.
type Provider struct {
	client *resty.Client
}

// NewProvider creates the Google adapter.
func NewProvider(config Config) *Provider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeoutSec
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", jsonMimeType).
		SetTimeout(time.Duration(timeout) * time.Second)

	return &Provider{client: client}
}

// Key returns the provider identifier.
func (p *Provider) Key() string {
	return providerKey
}

// Label returns the display name.
func (p *Provider) Label() string {
	return providerLabel
}

// DefaultModel returns the hardcoded fallback model.
func (p *Provider) DefaultModel() string {
	return defaultModel
}

// KnownModels returns the static model list.
func (p *Provider) KnownModels() []string {
	return []string{
		"gemini-2.0-flash",
		"gemini-2.0-flash-lite",
		"gemini-2.5-flash",
		"gemini-2.5-pro",
	}
}

// APIKeyOption names the settings key holding the API key.
func (p *Provider) APIKeyOption() string {
	return providerKey + "_api_key"
}

// SupportsLiveModels reports model listing support.
func (p *Provider) SupportsLiveModels() bool {
	return true
}

// SupportsResponseFormat reports responseJsonSchema support.
func (p *Provider) SupportsResponseFormat() bool {
	return true
}

// SupportsImageContext reports inline image support.
func (p *Provider) SupportsImageContext() bool {
	return true
}

// Generate calls models/{model}:generateContent.
func (p *Provider) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		return nil, domain.MissingAPIKey(providerLabel)
	}

	model := strings.TrimPrefix(req.Model, modelPrefix)
	if model == "" {
		model = defaultModel
	}

	body := buildRequest(req)

	logger := observability.FromContext(ctx)
	logger.Debug("calling generateContent",
		observability.String("model", model),
		observability.Int("parts", len(body.Contents[0].Parts)),
		observability.Bool("response_schema", body.GenerationConfig.ResponseJSONSchema != nil),
	)

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, apiKey).
		SetBody(body).
		Post(fmt.Sprintf("/%s%s:%s", modelPrefix, model, generateMethod))
	if err != nil {
		logger.Error("generateContent request failed", observability.Error(err))
		return nil, domain.TransportError(providerLabel, err)
	}

	if err := errorFromResponse(resp); err != nil {
		logger.Error("generateContent returned an error", observability.Error(err))
		return nil, err
	}

	var decoded generateResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, domain.NewError(domain.KindProvider, providerLabel+" returned an undecodable response", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, domain.EmptyResponse(providerLabel)
	}

	candidate := decoded.Candidates[0]

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	if strings.TrimSpace(text.String()) == "" {
		return nil, domain.EmptyResponse(providerLabel)
	}

	return &domain.GenerateResponse{
		Content: text.String(),
		Usage:   usageFrom(&decoded, candidate.FinishReason),
	}, nil
}

// FetchLiveModels lists models that support generateContent.
func (p *Provider) FetchLiveModels(ctx context.Context, apiKey string) ([]string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, domain.MissingAPIKey(providerLabel)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, apiKey).
		SetQueryParam("pageSize", "1000").
		Get("/models")
	if err != nil {
		return nil, domain.TransportError(providerLabel, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, domain.NewError(domain.KindModelsEndpointMissing,
			providerLabel+" has no models endpoint", nil)
	}

	if err := errorFromResponse(resp); err != nil {
		return nil, err
	}

	var decoded modelsResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, domain.NewError(domain.KindProvider, providerLabel+" returned an undecodable model list", err)
	}

	models := make([]string, 0, len(decoded.Models))
	for _, m := range decoded.Models {
		if !supports(m.SupportedGenerationMethods, generateMethod) {
			continue
		}
		if id := strings.TrimPrefix(strings.TrimSpace(m.Name), modelPrefix); id != "" {
			models = append(models, id)
		}
	}

	if len(models) == 0 {
		return nil, domain.ProviderError(providerLabel, "no models returned")
	}

	return models, nil
}

func buildRequest(req *domain.GenerateRequest) generateRequest {
	parts := make([]part, 0, 2+2*len(req.Images))

	if strings.TrimSpace(req.SystemPrompt) != "" {
		parts = append(parts, part{Text: req.SystemPrompt})
	}

	if strings.TrimSpace(req.Prompt) != "" {
		parts = append(parts, part{Text: req.Prompt})
	}

	for _, img := range req.Images {
		if img.Data == "" {
			continue
		}
		if label := strings.TrimSpace(img.Label); label != "" {
			parts = append(parts, part{Text: label})
		}
		parts = append(parts, part{InlineData: &inlineData{MimeType: img.MimeType, Data: img.Data}})
	}

	// Never send a content without parts.
	if len(parts) == 0 {
		parts = append(parts, part{Text: req.Prompt})
	}

	temperature := domain.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
		SafetySettings: buildSafetySettings(req.Safety),
	}

	if req.ResponseFormat != nil && req.ResponseFormat.Schema != nil {
		body.GenerationConfig.ResponseMimeType = jsonMimeType
		body.GenerationConfig.ResponseJSONSchema = sanitizeSchema(req.ResponseFormat.Schema)
	}

	return body
}

func errorFromResponse(resp *resty.Response) error {
	if msg := gjson.GetBytes(resp.Body(), "error.message"); msg.Exists() && msg.String() != "" {
		return domain.ProviderError(providerLabel, msg.String())
	}

	if resp.IsError() {
		return domain.ProviderError(providerLabel, fmt.Sprintf("status %d", resp.StatusCode()))
	}

	return nil
}

func usageFrom(resp *generateResponse, finishReason string) map[string]any {
	usage := map[string]any{}

	if meta := resp.UsageMetadata; meta != nil {
		usage["prompt_tokens"] = meta.PromptTokenCount
		usage["completion_tokens"] = meta.CandidatesTokenCount
		usage["total_tokens"] = meta.TotalTokenCount
	}

	if finishReason != "" {
		usage["finish_reason"] = finishReason
	}

	if len(usage) == 0 {
		return nil
	}

	return usage
}

func supports(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
