package domain

// DefaultTemperature is used when no temperature is configured.
const DefaultTemperature = 0.7

// DefaultBottomMetaKey is the term meta key holding the lower description.
const DefaultBottomMetaKey = "bottom_description"

// SEOSettings configures the optional SEO module.
type SEOSettings struct {
	Enabled bool `json:"enabled"`
	// KeywordLimit caps focus keywords. Zero means no cap.
	KeywordLimit int `json:"keyword_limit"`
	// Pixel widths are only quoted in prompt instructions.
	TitlePixelLimit       int `json:"title_pixel_limit"`
	DescriptionPixelLimit int `json:"description_pixel_limit"`
}

// Settings is the typed view of the operator configuration.
type Settings struct {
	Provider          string             `json:"provider"`
	APIKeys           map[string]string  `json:"api_keys,omitempty"`
	Models            map[string]string  `json:"models,omitempty"`
	StoreContext      string             `json:"store_context"`
	DefaultPrompt     string             `json:"default_prompt"`
	TermDefaultPrompt string             `json:"term_default_prompt"`
	Context           ContextSelection   `json:"context"`
	Attributes        AttributeSelection `json:"attributes"`
	ImageMode         ImageMode          `json:"image_mode"`
	ImageLimit        int                `json:"image_limit"`
	SEO               SEOSettings        `json:"seo"`
	CompatibilityMode bool               `json:"response_format_compat"`
	// Term character limits are carried for the admin layer; nothing enforces them.
	TermTopCharLimit    int               `json:"term_top_char_limit"`
	TermBottomCharLimit int               `json:"term_bottom_char_limit"`
	TermBottomMetaKey   string            `json:"term_bottom_meta_key"`
	Temperature         float64           `json:"temperature"`
	GoogleSafety        map[string]string `json:"google_safety,omitempty"`
}

// APIKey returns the configured key stored under the given option name.
func (s Settings) APIKey(option string) string {
	if s.APIKeys == nil {
		return ""
	}
	return s.APIKeys[option]
}

// Model returns the operator's selected model for a provider.
func (s Settings) Model(provider string) string {
	if s.Models == nil {
		return ""
	}
	return s.Models[provider]
}
