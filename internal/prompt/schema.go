package prompt

import "github.com/davidbz/shopscribe/internal/domain"

const (
	productSchemaName = "product_content"
	termSchemaName    = "term_content"
)

// ProductSchema returns the structured-response schema for product copy.
func ProductSchema(seo bool) *domain.ResponseFormat {
	properties := map[string]any{
		"title_suggestions": map[string]any{
			"type":        "array",
			"description": "Exactly three alternative product titles.",
			"items":       map[string]any{"type": "string"},
		},
		"title":             stringProperty("Best product title, plain text."),
		"slug":              stringProperty("URL slug: lowercase letters, digits and hyphens."),
		"short_description": stringProperty("Short description as HTML."),
		"description":       stringProperty("Full description as HTML."),
	}
	required := []string{"title_suggestions", "title", "slug", "short_description", "description"}

	return buildSchema(productSchemaName, properties, required, seo)
}

// TermSchema returns the structured-response schema for category or brand copy.
func TermSchema(seo bool) *domain.ResponseFormat {
	properties := map[string]any{
		"top_description":    stringProperty("Introductory text shown above the product list, as HTML."),
		"bottom_description": stringProperty("Detailed text shown below the product list, as HTML."),
	}
	required := []string{"top_description", "bottom_description"}

	return buildSchema(termSchemaName, properties, required, seo)
}

func buildSchema(name string, properties map[string]any, required []string, seo bool) *domain.ResponseFormat {
	if seo {
		properties["meta_title"] = stringProperty("SEO title, at most 60 characters.")
		properties["meta_description"] = stringProperty("SEO meta description, at most 160 characters.")
		properties["focus_keywords"] = map[string]any{
			"type":        "array",
			"description": "Focus keywords.",
			"items":       map[string]any{"type": "string"},
		}
		required = append(required, "meta_title", "meta_description", "focus_keywords")
	}

	return &domain.ResponseFormat{
		Name:   name,
		Strict: true,
		Schema: map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

func stringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}
