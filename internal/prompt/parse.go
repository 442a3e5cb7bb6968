package prompt

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"

	"github.com/davidbz/shopscribe/internal/domain"
)

const maxTitleSuggestions = 3

// Output field names.
const (
	FieldTitle             = "title"
	FieldSlug              = "slug"
	FieldShortDescription  = "short_description"
	FieldDescription       = "description"
	FieldTopDescription    = "top_description"
	FieldBottomDescription = "bottom_description"
	FieldMetaTitle         = "meta_title"
	FieldMetaDescription   = "meta_description"
	FieldFocusKeywords     = "focus_keywords"
)

func decodeObject(raw string) (map[string]any, bool) {
	var decoded any
	if err := json.Unmarshal([]byte(stripFence(raw)), &decoded); err != nil {
		return nil, false
	}
	obj, ok := decoded.(map[string]any)
	return obj, ok
}

func stringField(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

// ParseProduct extracts product fields from a model reply.
func ParseProduct(raw string, seo domain.SEOSettings) (*domain.GenerationResult, error) {
	obj, ok := decodeObject(raw)
	if !ok {
		return nil, domain.ParseError("response is not a JSON object")
	}

	title := stringField(obj, FieldTitle)
	short := stringField(obj, FieldShortDescription)
	description := stringField(obj, FieldDescription)

	suggestions := titleSuggestions(obj["title_suggestions"])
	if len(suggestions) == 0 && title != "" {
		suggestions = []string{title}
	}
	if title == "" && len(suggestions) > 0 {
		title = suggestions[0]
	}

	if title == "" && short == "" && description == "" {
		return nil, domain.ParseError("response contains no title, short description or description")
	}

	slug := Slugify(stringField(obj, FieldSlug))
	if slug == "" {
		slug = Slugify(title)
	}

	fields := map[string]string{
		FieldTitle:            title,
		FieldSlug:             slug,
		FieldShortDescription: short,
		FieldDescription:      description,
	}
	if seo.Enabled {
		fields[FieldMetaTitle] = truncateRunes(stringField(obj, FieldMetaTitle), metaTitleLimit)
		fields[FieldMetaDescription] = truncateRunes(stringField(obj, FieldMetaDescription), metaDescriptionLimit)
		fields[FieldFocusKeywords] = strings.Join(splitKeywords(obj[FieldFocusKeywords], seo.KeywordLimit), ", ")
	}

	return &domain.GenerationResult{
		Kind:             domain.KindProduct,
		Fields:           fields,
		TitleSuggestions: suggestions,
		Raw:              raw,
	}, nil
}

func titleSuggestions(value any) []string {
	suggestions := make([]string, 0, maxTitleSuggestions)

	items, ok := value.([]any)
	if !ok {
		return suggestions
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = collapseSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
		if len(suggestions) == maxTitleSuggestions {
			break
		}
	}
	return suggestions
}

// ParseTerm extracts category or brand fields from a model reply. A reply that
// is not a JSON object is used verbatim as the description.
func ParseTerm(raw string, seo domain.SEOSettings) (*domain.GenerationResult, error) {
	var top string
	obj, ok := decodeObject(raw)
	if ok {
		top = stringField(obj, FieldTopDescription)
		if top == "" {
			top = stringField(obj, FieldDescription)
		}
	} else {
		obj = map[string]any{}
		if strings.TrimSpace(raw) != "" {
			top = raw
		}
	}
	bottom := stringField(obj, FieldBottomDescription)

	if top == "" && bottom == "" {
		return nil, domain.ParseError("response contains neither a top nor a bottom description")
	}

	fields := map[string]string{
		FieldTopDescription:    top,
		FieldBottomDescription: bottom,
		FieldDescription:       top,
	}

	// SEO fields are taken whenever present, independent of seo.Enabled.
	if _, present := obj[FieldMetaTitle]; present {
		fields[FieldMetaTitle] = truncateRunes(stringField(obj, FieldMetaTitle), metaTitleLimit)
	}
	if _, present := obj[FieldMetaDescription]; present {
		fields[FieldMetaDescription] = truncateRunes(stringField(obj, FieldMetaDescription), metaDescriptionLimit)
	}
	if v, present := obj[FieldFocusKeywords]; present {
		fields[FieldFocusKeywords] = strings.Join(splitKeywords(v, seo.KeywordLimit), ", ")
	}

	return &domain.GenerationResult{
		Kind:   domain.KindTerm,
		Fields: fields,
		Raw:    raw,
	}, nil
}
