package domain

import "time"

// ContentKind selects which response shape a generation produces.
type ContentKind string

const (
	KindProduct ContentKind = "product"
	KindTerm    ContentKind = "term"
)

// ImageMode controls how product images reach the model.
type ImageMode string

const (
	ImageModeNone   ImageMode = "none"
	ImageModeURL    ImageMode = "url"
	ImageModeBase64 ImageMode = "base64"
)

// ParseImageMode normalizes a stored or submitted image mode. Unknown values map to none.
func ParseImageMode(s string) ImageMode {
	switch ImageMode(s) {
	case ImageModeURL, ImageModeBase64:
		return ImageMode(s)
	default:
		return ImageModeNone
	}
}

// ContextSelection holds the named toggles that decide which product fragments
// are written into the context block.
type ContextSelection struct {
	Title            bool `json:"title"`
	ShortDescription bool `json:"short_description"`
	Description      bool `json:"description"`
	Attributes       bool `json:"attributes"`
	Brands           bool `json:"brands"`
	Images           bool `json:"images"`
}

// AttributeSelection is the allow-list of product attributes. An empty
// selection includes no attributes.
type AttributeSelection struct {
	All    bool     `json:"all"`
	Custom bool     `json:"custom"`
	Keys   []string `json:"keys,omitempty"`
}

// IsEmpty reports whether nothing was selected explicitly.
func (a AttributeSelection) IsEmpty() bool {
	return !a.All && !a.Custom && len(a.Keys) == 0
}

// Includes reports whether the attribute passes the selection.
func (a AttributeSelection) Includes(attr Attribute) bool {
	if a.All {
		return true
	}
	if a.Custom && !attr.Taxonomy {
		return true
	}
	for _, key := range a.Keys {
		if key == attr.Key {
			return true
		}
	}
	return false
}

// Attribute is a flattened product attribute.
type Attribute struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Taxonomy bool   `json:"taxonomy"`
}

// Brand is a brand-like taxonomy term attached to a product.
type Brand struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ImageDescriptor points at a product image.
type ImageDescriptor struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	FilePath string `json:"file_path,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// ProductContent carries the fragments extracted from the content repository for one product.
type ProductContent struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	ShortDescription string             `json:"short_description"`
	Description      string             `json:"description"`
	Attributes       []Attribute        `json:"attributes,omitempty"`
	BrandTaxonomies  map[string][]Brand `json:"brand_taxonomies,omitempty"`
	Images           []ImageDescriptor  `json:"images,omitempty"`
}

// TopProduct is a best-selling product within a term.
type TopProduct struct {
	Name  string `json:"name"`
	Sales int    `json:"sales"`
}

// Link is an internal link candidate.
type Link struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TermContent carries the fragments for a taxonomy term (category or brand).
type TermContent struct {
	ID            string            `json:"id"`
	Taxonomy      string            `json:"taxonomy"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug,omitempty"`
	Count         int               `json:"count,omitempty"`
	Description   string            `json:"description,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
	TopProducts   []TopProduct      `json:"top_products,omitempty"`
	CategoryLinks []Link            `json:"category_links,omitempty"`
	BrandLinks    []Link            `json:"brand_links,omitempty"`
}

// GenerationRequest is one operator-triggered generation.
type GenerationRequest struct {
	Kind       ContentKind         `json:"kind"`
	TargetID   string              `json:"target_id"`
	Actor      string              `json:"actor,omitempty"`
	Prompt     string              `json:"prompt"`
	Provider   string              `json:"provider,omitempty"`
	Model      string              `json:"model,omitempty"`
	Context    *ContextSelection   `json:"context,omitempty"`
	Attributes *AttributeSelection `json:"attributes,omitempty"`
	ImageMode  ImageMode           `json:"image_mode,omitempty"`
	ImageLimit int                 `json:"image_limit,omitempty"`

	Product *ProductContent `json:"product,omitempty"`
	Term    *TermContent    `json:"term,omitempty"`

	// Term-only toggles.
	TopProducts         int  `json:"top_products,omitempty"`
	IncludeSlug         bool `json:"include_slug,omitempty"`
	IncludeCount        bool `json:"include_count,omitempty"`
	IncludeDescriptions bool `json:"include_descriptions,omitempty"`
	IncludeLinks        bool `json:"include_links,omitempty"`
}

// ResponseFormat is a JSON-schema constraint on the model reply.
type ResponseFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// ImagePayload is an inline image sent next to the prompt.
type ImagePayload struct {
	Label    string `json:"label"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

// GenerateRequest is the provider-agnostic call handed to an adapter.
type GenerateRequest struct {
	Prompt         string
	SystemPrompt   string
	Model          string
	APIKey         string
	Temperature    *float64 // nil uses DefaultTemperature
	ResponseFormat *ResponseFormat
	Images         []ImagePayload
	Safety         map[string]string
}

// GenerateResponse is an adapter's normalized reply.
type GenerateResponse struct {
	Content string         `json:"content"`
	Usage   map[string]any `json:"usage,omitempty"`
}

// GenerationResult is the parsed and normalized model output.
type GenerationResult struct {
	Kind             ContentKind       `json:"kind"`
	Fields           map[string]string `json:"fields"`
	TitleSuggestions []string          `json:"title_suggestions,omitempty"`
	Raw              string            `json:"raw"`
	Provider         string            `json:"provider,omitempty"`
	Model            string            `json:"model,omitempty"`
	Usage            map[string]any    `json:"usage,omitempty"`
}

// Audit statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ImageContext records how images were resolved for one call.
type ImageContext struct {
	RequestedMode ImageMode `json:"requested_mode"`
	EffectiveMode ImageMode `json:"effective_mode"`
	Limit         int       `json:"limit"`
	Available     int       `json:"available"`
	Used          int       `json:"used"`
	Base64Sent    int       `json:"base64_sent"`
}

// AuditEntry is one append-only record per orchestrated call.
type AuditEntry struct {
	Timestamp        time.Time    `json:"timestamp"`
	Actor            string       `json:"actor"`
	Kind             ContentKind  `json:"kind"`
	TargetID         string       `json:"target_id"`
	Provider         string       `json:"provider"`
	Model            string       `json:"model"`
	Prompt           string       `json:"prompt"`
	Response         string       `json:"response"`
	PromptTokens     *int         `json:"prompt_tokens"`
	CompletionTokens *int         `json:"completion_tokens"`
	TotalTokens      *int         `json:"total_tokens"`
	Status           string       `json:"status"`
	ErrorMessage     *string      `json:"error_message"`
	ImageContext     ImageContext `json:"image_context"`
}
