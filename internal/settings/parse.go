package settings

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/davidbz/shopscribe/internal/domain"
)

// listValue accepts a comma/newline separated string or a JSON array.
func listValue(value any) []string {
	var items []string
	switch v := value.(type) {
	case string:
		items = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '\n' })
	default:
		items = cast.ToStringSlice(v)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseContextFields(value any) domain.ContextSelection {
	var sel domain.ContextSelection
	for _, field := range listValue(value) {
		switch strings.ToLower(field) {
		case "title":
			sel.Title = true
		case "short_description":
			sel.ShortDescription = true
		case "description":
			sel.Description = true
		case "attributes":
			sel.Attributes = true
		case "brands":
			sel.Brands = true
		case "images":
			sel.Images = true
		}
	}
	return sel
}

func parseAttributeInclude(value any) domain.AttributeSelection {
	var sel domain.AttributeSelection
	for _, item := range listValue(value) {
		switch strings.ToLower(item) {
		case "all":
			sel.All = true
		case "custom":
			sel.Custom = true
		default:
			sel.Keys = append(sel.Keys, item)
		}
	}
	return sel
}

// parseSafety reads CATEGORY=THRESHOLD pairs; validation happens in the Google adapter.
func parseSafety(value any) map[string]string {
	out := make(map[string]string)

	if m, ok := value.(map[string]any); ok {
		for category, threshold := range m {
			out[strings.TrimSpace(category)] = strings.TrimSpace(cast.ToString(threshold))
		}
		return out
	}

	for _, pair := range listValue(value) {
		category, threshold, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		category, threshold = strings.TrimSpace(category), strings.TrimSpace(threshold)
		if category != "" && threshold != "" {
			out[category] = threshold
		}
	}
	return out
}
