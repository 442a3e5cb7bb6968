// Package settings resolves the operator settings from environment defaults
// and the values stored in the key-value store.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/observability"
)

const storeKey = "settings"

// Flat setting keys.
const (
	KeyProvider                 = "provider"
	KeyStoreContext             = "store_context"
	KeyDefaultPrompt            = "default_prompt"
	KeyTermDefaultPrompt        = "term_default_prompt"
	KeyContextFields            = "context_fields"
	KeyAttributeInclude         = "attribute_include"
	KeyImageMode                = "image_mode"
	KeyImageLimit               = "image_limit"
	KeySEOEnabled               = "seo_enabled"
	KeySEOKeywordLimit          = "seo_keyword_limit"
	KeySEOTitlePixelLimit       = "seo_title_pixel_limit"
	KeySEODescriptionPixelLimit = "seo_description_pixel_limit"
	KeyCompatibilityMode        = "response_format_compat"
	KeyTermTopCharLimit         = "term_top_char_limit"
	KeyTermBottomCharLimit      = "term_bottom_char_limit"
	KeyTermBottomMetaKey        = "term_bottom_meta_key"
	KeyTemperature              = "temperature"
	KeyGoogleSafety             = "google_safety"
)

// Providers whose API key and model can be configured.
//
//nolint:gochecknoglobals // static key set
var Providers = []string{"groq", "openai", "google"}

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindFloat
	kindList
)

//nolint:gochecknoglobals // static key set
var schema = map[string]valueKind{
	KeyProvider:                 kindString,
	KeyStoreContext:             kindString,
	KeyDefaultPrompt:            kindString,
	KeyTermDefaultPrompt:        kindString,
	KeyContextFields:            kindList,
	KeyAttributeInclude:         kindList,
	KeyImageMode:                kindString,
	KeyImageLimit:               kindInt,
	KeySEOEnabled:               kindBool,
	KeySEOKeywordLimit:          kindInt,
	KeySEOTitlePixelLimit:       kindInt,
	KeySEODescriptionPixelLimit: kindInt,
	KeyCompatibilityMode:        kindBool,
	KeyTermTopCharLimit:         kindInt,
	KeyTermBottomCharLimit:      kindInt,
	KeyTermBottomMetaKey:        kindString,
	KeyTemperature:              kindFloat,
	KeyGoogleSafety:             kindList,
}

func init() {
	for _, p := range Providers {
		schema[APIKeyOption(p)] = kindString
		schema[ModelOption(p)] = kindString
	}
}

// APIKeyOption returns the flat key holding a provider's API key.
func APIKeyOption(provider string) string { return provider + "_api_key" }

// ModelOption returns the flat key holding a provider's selected model.
func ModelOption(provider string) string { return provider + "_model" }

// Defaults are the environment-provided values used for unset keys.
type Defaults struct {
	Provider                 string  `env:"PROVIDER"                    envDefault:"groq"`
	StoreContext             string  `env:"STORE_CONTEXT"`
	DefaultPrompt            string  `env:"DEFAULT_PROMPT"              envDefault:"Schreibe einen ansprechenden Produkttext."`
	TermDefaultPrompt        string  `env:"TERM_DEFAULT_PROMPT"         envDefault:"Schreibe einen ansprechenden Kategorietext."`
	ContextFields            string  `env:"CONTEXT_FIELDS"              envDefault:"title,short_description,description"`
	AttributeInclude         string  `env:"ATTRIBUTE_INCLUDE"`
	ImageMode                string  `env:"IMAGE_MODE"                  envDefault:"none"`
	ImageLimit               int     `env:"IMAGE_LIMIT"                 envDefault:"3"`
	SEOEnabled               bool    `env:"SEO_ENABLED"                 envDefault:"false"`
	SEOKeywordLimit          int     `env:"SEO_KEYWORD_LIMIT"           envDefault:"5"`
	SEOTitlePixelLimit       int     `env:"SEO_TITLE_PIXEL_LIMIT"       envDefault:"580"`
	SEODescriptionPixelLimit int     `env:"SEO_DESCRIPTION_PIXEL_LIMIT" envDefault:"920"`
	CompatibilityMode        bool    `env:"RESPONSE_FORMAT_COMPAT"      envDefault:"false"`
	TermTopCharLimit         int     `env:"TERM_TOP_CHAR_LIMIT"         envDefault:"600"`
	TermBottomCharLimit      int     `env:"TERM_BOTTOM_CHAR_LIMIT"      envDefault:"3000"`
	TermBottomMetaKey        string  `env:"TERM_BOTTOM_META_KEY"        envDefault:"bottom_description"`
	Temperature              float64 `env:"TEMPERATURE"                 envDefault:"0.7"`
	GoogleSafety             string  `env:"GOOGLE_SAFETY"`

	// APIKeys maps provider keys to API keys from the provider configs.
	APIKeys map[string]string
}

func (d Defaults) flat() map[string]any {
	values := map[string]any{
		KeyProvider:                 d.Provider,
		KeyStoreContext:             d.StoreContext,
		KeyDefaultPrompt:            d.DefaultPrompt,
		KeyTermDefaultPrompt:        d.TermDefaultPrompt,
		KeyContextFields:            d.ContextFields,
		KeyAttributeInclude:         d.AttributeInclude,
		KeyImageMode:                d.ImageMode,
		KeyImageLimit:               d.ImageLimit,
		KeySEOEnabled:               d.SEOEnabled,
		KeySEOKeywordLimit:          d.SEOKeywordLimit,
		KeySEOTitlePixelLimit:       d.SEOTitlePixelLimit,
		KeySEODescriptionPixelLimit: d.SEODescriptionPixelLimit,
		KeyCompatibilityMode:        d.CompatibilityMode,
		KeyTermTopCharLimit:         d.TermTopCharLimit,
		KeyTermBottomCharLimit:      d.TermBottomCharLimit,
		KeyTermBottomMetaKey:        d.TermBottomMetaKey,
		KeyTemperature:              d.Temperature,
		KeyGoogleSafety:             d.GoogleSafety,
	}
	for provider, key := range d.APIKeys {
		values[APIKeyOption(provider)] = key
	}
	return values
}

// Source reads and writes the flat settings document.
type Source struct {
	store    domain.KVStore
	defaults Defaults
}

// NewSource creates a settings source.
func NewSource(store domain.KVStore, defaults Defaults) *Source {
	return &Source{
		store:    store,
		defaults: defaults,
	}
}

// Load returns the typed settings with stored values overriding the defaults.
func (s *Source) Load(ctx context.Context) (domain.Settings, error) {
	values := s.defaults.flat()

	stored, err := s.stored(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	for key, value := range stored {
		if _, known := schema[key]; known {
			values[key] = value
		}
	}

	return toSettings(values), nil
}

// Save validates and merges values into the stored document.
func (s *Source) Save(ctx context.Context, values map[string]any) error {
	for key, value := range values {
		kind, known := schema[key]
		if !known {
			return fmt.Errorf("unknown setting %q", key)
		}
		if err := validate(kind, value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if key == KeyTemperature {
			if v, ok := temperatureValue(value); ok && v < 0 {
				return fmt.Errorf("invalid value for %s: must not be negative", key)
			}
		}
	}

	stored, err := s.stored(ctx)
	if err != nil {
		return err
	}
	for key, value := range values {
		stored[key] = value
	}

	encoded, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.store.Set(ctx, storeKey, string(encoded)); err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	observability.FromContext(ctx).Info("settings updated", observability.Strings("keys", keys))

	return nil
}

func (s *Source) stored(ctx context.Context) (map[string]any, error) {
	raw, ok, err := s.store.Get(ctx, storeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	values := make(map[string]any)
	if !ok || raw == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		observability.FromContext(ctx).Warn("ignoring corrupted settings document", observability.Error(err))
		return make(map[string]any), nil
	}
	return values, nil
}

func validate(kind valueKind, value any) error {
	var err error
	switch kind {
	case kindBool:
		_, err = cast.ToBoolE(value)
	case kindInt:
		_, err = cast.ToIntE(value)
	case kindFloat:
		_, err = cast.ToFloat64E(value)
	case kindList:
		switch value.(type) {
		case string, []any, []string, map[string]any, nil:
		default:
			err = fmt.Errorf("expected a list, got %T", value)
		}
	case kindString:
		_, err = cast.ToStringE(value)
	}
	return err
}

func toSettings(values map[string]any) domain.Settings {
	apiKeys := make(map[string]string, len(Providers))
	models := make(map[string]string, len(Providers))
	for _, p := range Providers {
		if key := strings.TrimSpace(cast.ToString(values[APIKeyOption(p)])); key != "" {
			apiKeys[APIKeyOption(p)] = key
		}
		if model := strings.TrimSpace(cast.ToString(values[ModelOption(p)])); model != "" {
			models[p] = model
		}
	}

	temperature := domain.DefaultTemperature
	if v, ok := temperatureValue(values[KeyTemperature]); ok && v >= 0 {
		temperature = v
	}

	return domain.Settings{
		Provider:          strings.TrimSpace(cast.ToString(values[KeyProvider])),
		APIKeys:           apiKeys,
		Models:            models,
		StoreContext:      cast.ToString(values[KeyStoreContext]),
		DefaultPrompt:     cast.ToString(values[KeyDefaultPrompt]),
		TermDefaultPrompt: cast.ToString(values[KeyTermDefaultPrompt]),
		Context:           parseContextFields(values[KeyContextFields]),
		Attributes:        parseAttributeInclude(values[KeyAttributeInclude]),
		ImageMode:         domain.ParseImageMode(cast.ToString(values[KeyImageMode])),
		ImageLimit:        max(cast.ToInt(values[KeyImageLimit]), 0),
		SEO: domain.SEOSettings{
			Enabled:               cast.ToBool(values[KeySEOEnabled]),
			KeywordLimit:          cast.ToInt(values[KeySEOKeywordLimit]),
			TitlePixelLimit:       cast.ToInt(values[KeySEOTitlePixelLimit]),
			DescriptionPixelLimit: cast.ToInt(values[KeySEODescriptionPixelLimit]),
		},
		CompatibilityMode:   cast.ToBool(values[KeyCompatibilityMode]),
		TermTopCharLimit:    cast.ToInt(values[KeyTermTopCharLimit]),
		TermBottomCharLimit: cast.ToInt(values[KeyTermBottomCharLimit]),
		TermBottomMetaKey:   strings.TrimSpace(cast.ToString(values[KeyTermBottomMetaKey])),
		Temperature:         temperature,
		GoogleSafety:        parseSafety(values[KeyGoogleSafety]),
	}
}

// temperatureValue returns the temperature and whether one is set. Zero counts as set.
func temperatureValue(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, false
	}
	return v, true
}
