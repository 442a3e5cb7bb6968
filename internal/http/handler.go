package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/generation"
	"github.com/davidbz/shopscribe/internal/observability"
)

// Generator runs one orchestrated generation.
type Generator interface {
	Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error)
}

// ModelLister serves cached and refreshed model lists.
type ModelLister interface {
	Available(ctx context.Context, provider domain.Provider) []string
	Refresh(ctx context.Context, provider domain.Provider, apiKey string) ([]string, error)
}

// SettingsStore reads and writes operator settings.
type SettingsStore interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, values map[string]any) error
}

// Handler handles HTTP requests.
type Handler struct {
	generator Generator
	registry  domain.ProviderRegistry
	models    ModelLister
	settings  SettingsStore
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	generator Generator,
	registry domain.ProviderRegistry,
	models ModelLister,
	settings SettingsStore,
) *Handler {
	return &Handler{
		generator: generator,
		registry:  registry,
		models:    models,
		settings:  settings,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type providerResponse struct {
	Key                    string   `json:"key"`
	Label                  string   `json:"label"`
	DefaultModel           string   `json:"default_model"`
	SupportsLiveModels     bool     `json:"supports_live_models"`
	SupportsResponseFormat bool     `json:"supports_response_format"`
	SupportsImageContext   bool     `json:"supports_image_context"`
	Models                 []string `json:"models"`
}

type modelsResponse struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}

// HandleGenerate runs a generation for a product or term.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		cfg, err := h.settings.Load(ctx)
		if err != nil {
			writeError(ctx, w, http.StatusInternalServerError, err)
			return
		}
		req.Prompt = cfg.DefaultPrompt
		if req.Kind == domain.KindTerm || (req.Kind == "" && req.Term != nil && req.Product == nil) {
			req.Prompt = cfg.TermDefaultPrompt
		}
	}

	result, err := h.generator.Generate(ctx, &req)
	if err != nil {
		logger.Warn("generation request failed", observability.Error(err))
		writeError(ctx, w, statusFor(err), err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}

// HandleProviders lists the registered providers and their models.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	providers := h.registry.All(ctx)
	out := make([]providerResponse, 0, len(providers))
	for _, p := range providers {
		out = append(out, providerResponse{
			Key:                    p.Key(),
			Label:                  p.Label(),
			DefaultModel:           p.DefaultModel(),
			SupportsLiveModels:     p.SupportsLiveModels(),
			SupportsResponseFormat: p.SupportsResponseFormat(),
			SupportsImageContext:   p.SupportsImageContext(),
			Models:                 h.models.Available(ctx, p),
		})
	}

	writeJSON(ctx, w, http.StatusOK, out)
}

// HandleModels returns a provider's models, refreshing them when ?refresh=true.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	provider, err := h.registry.Get(ctx, r.PathValue("key"))
	if err != nil {
		writeError(ctx, w, http.StatusNotFound, err)
		return
	}

	if r.URL.Query().Get("refresh") != "true" {
		writeJSON(ctx, w, http.StatusOK, modelsResponse{Provider: provider.Key(), Models: h.models.Available(ctx, provider)})
		return
	}

	cfg, err := h.settings.Load(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	models, err := h.models.Refresh(ctx, provider, cfg.APIKey(provider.APIKeyOption()))
	if err != nil {
		writeError(ctx, w, statusFor(err), err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, modelsResponse{Provider: provider.Key(), Models: models})
}

// HandleGetSettings returns the resolved settings with API keys masked.
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cfg, err := h.settings.Load(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	masked := make(map[string]string, len(cfg.APIKeys))
	for option, key := range cfg.APIKeys {
		masked[option] = maskKey(key)
	}
	cfg.APIKeys = masked

	writeJSON(ctx, w, http.StatusOK, cfg)
}

// HandlePutSettings stores a flat map of settings.
func (h *Handler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := h.settings.Save(ctx, values); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "healthy"})
}

func statusFor(err error) int {
	if errors.Is(err, generation.ErrInvalidRequest) {
		return http.StatusBadRequest
	}

	switch domain.KindOf(err) {
	case domain.KindMissingAPIKey:
		return http.StatusBadRequest
	case domain.KindParse:
		return http.StatusUnprocessableEntity
	case domain.KindProvider, domain.KindTransport, domain.KindEmptyResponse:
		return http.StatusBadGateway
	case domain.KindModelsEndpointMissing:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	if kind := domain.KindOf(err); kind != domain.KindUnknown {
		resp.Kind = string(kind)
	}
	writeJSON(ctx, w, status, resp)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Status already written, just log.
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}
