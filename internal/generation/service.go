// Package generation ties provider resolution, prompt construction, the
// provider call and response parsing into one audited operation.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/exclusion"
	"github.com/davidbz/shopscribe/internal/metrics"
	"github.com/davidbz/shopscribe/internal/observability"
	"github.com/davidbz/shopscribe/internal/prompt"
)

// ErrInvalidRequest is returned for requests that cannot be orchestrated at all.
var ErrInvalidRequest = errors.New("invalid generation request")

// Service orchestrates one generation per call.
type Service struct {
	registry domain.ProviderRegistry
	settings domain.SettingsSource
	tracker  domain.ConversationTracker
	catalog  domain.ModelCatalog
	filter   *exclusion.Filter
	builder  *prompt.Builder
	images   domain.ImageLoader
	audit    domain.AuditLog
	now      func() time.Time
}

// NewService creates a new generation service (DI constructor).
func NewService(
	registry domain.ProviderRegistry,
	settings domain.SettingsSource,
	tracker domain.ConversationTracker,
	catalog domain.ModelCatalog,
	filter *exclusion.Filter,
	builder *prompt.Builder,
	images domain.ImageLoader,
	audit domain.AuditLog,
) *Service {
	return &Service{
		registry: registry,
		settings: settings,
		tracker:  tracker,
		catalog:  catalog,
		filter:   filter,
		builder:  builder,
		images:   images,
		audit:    audit,
		now:      time.Now,
	}
}

// call is the state accumulated for one request.
type call struct {
	req      *domain.GenerationRequest
	settings domain.Settings
	provider domain.Provider
	model    string
	system   string
	user     string
	format   *domain.ResponseFormat
	payloads []domain.ImagePayload
	images   domain.ImageContext
}

// Generate runs one request and records exactly one audit entry once a
// provider has been resolved.
func (s *Service) Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	c := &call{req: req, settings: cfg}
	if err := s.prepare(ctx, c); err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, c.provider.Key())
	ctx = observability.WithModel(ctx, c.model)
	ctx = observability.WithTarget(ctx, req.TargetID)
	logger := observability.FromContext(ctx)

	logger.Info("generation started",
		observability.String("kind", string(req.Kind)),
		observability.String("image_mode", string(c.images.EffectiveMode)),
		observability.Bool("response_format", c.format != nil))

	start := s.now()
	resp, err := c.provider.Generate(ctx, &domain.GenerateRequest{
		Prompt:         c.user,
		SystemPrompt:   c.system,
		Model:          c.model,
		APIKey:         cfg.APIKey(c.provider.APIKeyOption()),
		Temperature:    &cfg.Temperature,
		ResponseFormat: c.format,
		Images:         c.payloads,
		Safety:         cfg.GoogleSafety,
	})
	metrics.GenerationDuration.WithLabelValues(c.provider.Key()).Observe(s.now().Sub(start).Seconds())

	if err != nil {
		logger.Error("provider call failed", observability.Error(err))
		s.record(ctx, c, "", nil, err)
		return nil, err
	}

	result, err := s.parse(c, resp.Content)
	if err != nil {
		logger.Warn("response could not be parsed", observability.Error(err))
		s.record(ctx, c, resp.Content, resp.Usage, err)
		return nil, err
	}

	result.Provider = c.provider.Key()
	result.Model = c.auditModel()
	result.Usage = resp.Usage

	s.record(ctx, c, resp.Content, resp.Usage, nil)
	logger.Info("generation completed", observability.Int("fields", len(result.Fields)))

	return result, nil
}

func validate(req *domain.GenerationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request cannot be nil", ErrInvalidRequest)
	}

	if req.Kind == "" {
		req.Kind = domain.KindProduct
		if req.Term != nil && req.Product == nil {
			req.Kind = domain.KindTerm
		}
	}

	switch req.Kind {
	case domain.KindProduct:
		if req.Product == nil {
			return fmt.Errorf("%w: product content is required", ErrInvalidRequest)
		}
	case domain.KindTerm:
		if req.Term == nil {
			return fmt.Errorf("%w: term content is required", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, req.Kind)
	}

	if req.TargetID == "" {
		if req.Product != nil {
			req.TargetID = req.Product.ID
		} else {
			req.TargetID = req.Term.ID
		}
	}
	return nil
}

// prepare resolves provider, tag, model, images and prompts.
func (s *Service) prepare(ctx context.Context, c *call) error {
	req, cfg := c.req, c.settings

	key := req.Provider
	if key == "" {
		key = cfg.Provider
	}
	provider, err := s.registry.Resolve(ctx, key)
	if err != nil {
		return fmt.Errorf("provider resolution failed: %w", err)
	}
	c.provider = provider

	tag, err := s.tracker.EnsureTag(ctx, provider.Key(), cfg.StoreContext)
	if err != nil {
		observability.FromContext(ctx).Warn("conversation tag unavailable", observability.Error(err))
	}

	c.model = s.resolveModel(ctx, provider, req.Model, cfg)

	var block string
	switch req.Kind {
	case domain.KindTerm:
		c.system = s.builder.TermSystemPrompt(cfg.StoreContext, tag, req.Term)
		c.images = domain.ImageContext{
			RequestedMode: requestedImageMode(req, cfg),
			EffectiveMode: domain.ImageModeNone,
			Limit:         imageLimit(req, cfg),
		}
		block = s.builder.TermContext(ctx, prompt.TermContextInput{
			Term:                req.Term,
			TopProducts:         req.TopProducts,
			IncludeSlug:         req.IncludeSlug,
			IncludeCount:        req.IncludeCount,
			IncludeDescriptions: req.IncludeDescriptions,
			IncludeLinks:        req.IncludeLinks,
		}, cfg)
	default:
		c.system = s.builder.ProductSystemPrompt(cfg.StoreContext, tag)
		selection, attrs := contextSelection(req, cfg)
		c.images = resolveImages(req, cfg, selection, provider)
		block = s.builder.ProductContext(prompt.ProductContextInput{
			Product:    req.Product,
			Selection:  selection,
			Attributes: attrs,
			ImageMode:  c.images.EffectiveMode,
			ImageLimit: c.images.Used,
		})
		if c.images.EffectiveMode == domain.ImageModeBase64 {
			c.payloads = s.images.Load(ctx, req.Product.Images, c.images.Used)
			c.images.Base64Sent = len(c.payloads)
		}
	}

	c.user = prompt.ComposeUserPrompt(block, req.Prompt)

	if provider.SupportsResponseFormat() && !cfg.CompatibilityMode {
		if req.Kind == domain.KindTerm {
			c.format = prompt.TermSchema(cfg.SEO.Enabled)
		} else {
			c.format = prompt.ProductSchema(cfg.SEO.Enabled)
		}
		return nil
	}

	if req.Kind == domain.KindTerm {
		c.user = prompt.AppendInstructions(c.user, prompt.TermInstructions(cfg.SEO))
	} else {
		c.user = prompt.AppendInstructions(c.user, prompt.ProductInstructions(cfg.SEO))
	}
	return nil
}

func (s *Service) parse(c *call, raw string) (*domain.GenerationResult, error) {
	if c.req.Kind == domain.KindTerm {
		return prompt.ParseTerm(raw, c.settings.SEO)
	}
	return prompt.ParseProduct(raw, c.settings.SEO)
}

func (c *call) auditModel() string {
	if c.model != "" {
		return c.model
	}
	return c.provider.DefaultModel()
}

// record writes the audit entry and metrics. Audit failures are logged only.
func (s *Service) record(ctx context.Context, c *call, response string, usage map[string]any, callErr error) {
	promptTokens, completionTokens, totalTokens := tokenCounts(usage)

	entry := &domain.AuditEntry{
		Timestamp:        s.now().UTC(),
		Actor:            c.req.Actor,
		Kind:             c.req.Kind,
		TargetID:         c.req.TargetID,
		Provider:         c.provider.Key(),
		Model:            c.auditModel(),
		Prompt:           c.user,
		Response:         response,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		Status:           domain.StatusSuccess,
		ImageContext:     c.images,
	}
	if callErr != nil {
		msg := callErr.Error()
		entry.Status = domain.StatusError
		entry.ErrorMessage = &msg
		metrics.GenerationErrorsTotal.WithLabelValues(c.provider.Key(), string(domain.KindOf(callErr))).Inc()
	}

	metrics.GenerationsTotal.WithLabelValues(c.provider.Key(), string(c.req.Kind), entry.Status).Inc()
	if promptTokens != nil {
		metrics.GenerationTokensTotal.WithLabelValues(c.provider.Key(), "prompt").Add(float64(*promptTokens))
	}
	if completionTokens != nil {
		metrics.GenerationTokensTotal.WithLabelValues(c.provider.Key(), "completion").Add(float64(*completionTokens))
	}

	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		observability.FromContext(ctx).Error("failed to record audit entry", observability.Error(err))
	}
}
