package google

import "strings"

//nolint:gochecknoglobals // fixed API enums
var (
	safetyCategories = []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
		"HARM_CATEGORY_CIVIC_INTEGRITY",
	}
	safetyThresholds = map[string]struct{}{
		"BLOCK_LOW_AND_ABOVE":    {},
		"BLOCK_MEDIUM_AND_ABOVE": {},
		"BLOCK_ONLY_HIGH":        {},
		"BLOCK_NONE":             {},
		"OFF":                    {},
	}
)

// buildSafetySettings keeps valid category/threshold pairs in category order.
// Invalid pairs are dropped.
func buildSafetySettings(overrides map[string]string) []safetySetting {
	if len(overrides) == 0 {
		return nil
	}

	normalized := make(map[string]string, len(overrides))
	for category, threshold := range overrides {
		normalized[strings.ToUpper(strings.TrimSpace(category))] = strings.ToUpper(strings.TrimSpace(threshold))
	}

	var settings []safetySetting
	for _, category := range safetyCategories {
		threshold, ok := normalized[category]
		if !ok {
			continue
		}
		if _, valid := safetyThresholds[threshold]; !valid {
			continue
		}
		settings = append(settings, safetySetting{Category: category, Threshold: threshold})
	}

	return settings
}
