package generation

import (
	"context"

	"github.com/spf13/cast"

	"github.com/davidbz/shopscribe/internal/domain"
)

// resolveModel picks the explicit selection, then the provider default, then
// the first available model. Excluded models are skipped at every step.
func (s *Service) resolveModel(ctx context.Context, provider domain.Provider, requested string, cfg domain.Settings) string {
	key := provider.Key()

	explicit := requested
	if explicit == "" {
		explicit = cfg.Model(key)
	}
	if model := s.filter.EnsureAllowed(key, explicit); model != "" {
		return model
	}
	if model := s.filter.EnsureAllowed(key, provider.DefaultModel()); model != "" {
		return model
	}
	for _, model := range s.catalog.Available(ctx, provider) {
		if allowed := s.filter.EnsureAllowed(key, model); allowed != "" {
			return allowed
		}
	}
	return ""
}

func contextSelection(req *domain.GenerationRequest, cfg domain.Settings) (domain.ContextSelection, domain.AttributeSelection) {
	selection := cfg.Context
	if req.Context != nil {
		selection = *req.Context
	}
	attrs := cfg.Attributes
	if req.Attributes != nil {
		attrs = *req.Attributes
	}
	if requestedImageMode(req, cfg) == domain.ImageModeNone {
		selection.Images = false
	}
	return selection, attrs
}

func requestedImageMode(req *domain.GenerationRequest, cfg domain.Settings) domain.ImageMode {
	if req.ImageMode != "" {
		return domain.ParseImageMode(string(req.ImageMode))
	}
	return cfg.ImageMode
}

func imageLimit(req *domain.GenerationRequest, cfg domain.Settings) int {
	limit := req.ImageLimit
	if limit <= 0 {
		limit = cfg.ImageLimit
	}
	return max(limit, 1)
}

// resolveImages computes the image diagnostics and the effective delivery mode.
func resolveImages(
	req *domain.GenerationRequest,
	cfg domain.Settings,
	selection domain.ContextSelection,
	provider domain.Provider,
) domain.ImageContext {
	requested := requestedImageMode(req, cfg)
	ic := domain.ImageContext{
		RequestedMode: requested,
		EffectiveMode: domain.ImageModeNone,
		Limit:         imageLimit(req, cfg),
		Available:     len(req.Product.Images),
	}

	if !selection.Images || requested == domain.ImageModeNone || ic.Available == 0 {
		return ic
	}

	ic.Used = min(ic.Limit, ic.Available)
	ic.EffectiveMode = requested
	if requested == domain.ImageModeBase64 && !provider.SupportsImageContext() {
		ic.EffectiveMode = domain.ImageModeURL
	}
	return ic
}

// tokenCounts reads the common usage vocabulary; missing values stay nil.
func tokenCounts(usage map[string]any) (promptTokens, completionTokens, totalTokens *int) {
	read := func(key string) *int {
		v, ok := usage[key]
		if !ok {
			return nil
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil
		}
		return &n
	}
	return read("prompt_tokens"), read("completion_tokens"), read("total_tokens")
}
