// Package exclusion keeps models that cannot produce chat text out of every
// model list and model selection.
package exclusion

import "strings"

// OverrideFunc may replace the exclusion list of a provider. It receives the
// built-in list and returns the list to use; a value that is not a list of
// strings yields an empty list for that provider.
type OverrideFunc func(provider string, defaults []string) any

// defaultExclusions lists models per provider that are never offered.
//
//nolint:gochecknoglobals // static table
var defaultExclusions = map[string][]string{
	"groq": {
		"whisper-large-v3",
		"whisper-large-v3-turbo",
		"distil-whisper-large-v3-en",
		"playai-tts",
		"playai-tts-arabic",
		"meta-llama/llama-guard-4-12b",
		"meta-llama/llama-prompt-guard-2-22m",
		"meta-llama/llama-prompt-guard-2-86m",
	},
	"openai": {
		"whisper-1",
		"tts-1",
		"tts-1-hd",
		"dall-e-2",
		"dall-e-3",
		"gpt-image-1",
		"text-embedding-ada-002",
		"text-embedding-3-small",
		"text-embedding-3-large",
		"omni-moderation-latest",
		"babbage-002",
		"davinci-002",
	},
	"google": {
		"embedding-001",
		"text-embedding-004",
		"gemini-embedding-001",
		"aqa",
		"imagen-3.0-generate-002",
	},
}

// Filter answers exclusion questions for a fixed set of lists.
type Filter struct {
	lists map[string]map[string]struct{}
}

// NewFilter builds a filter from the built-in table and an optional override.
func NewFilter(override OverrideFunc) *Filter {
	f := &Filter{lists: make(map[string]map[string]struct{}, len(defaultExclusions))}

	for provider := range defaultExclusions {
		defaults := append([]string(nil), defaultExclusions[provider]...)
		list := defaults
		if override != nil {
			list = toStrings(override(provider, defaults))
		}
		f.lists[provider] = toSet(list)
	}

	return f
}

// IsExcluded reports whether model is on the provider's exclusion list.
func (f *Filter) IsExcluded(provider, model string) bool {
	set, ok := f.lists[provider]
	if !ok {
		return false
	}
	_, excluded := set[strings.TrimSpace(model)]
	return excluded
}

// FilterModels removes excluded, blank and duplicate entries, keeping order.
func (f *Filter) FilterModels(provider string, models []string) []string {
	out := make([]string, 0, len(models))
	seen := make(map[string]struct{}, len(models))

	for _, model := range models {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		if _, dup := seen[model]; dup {
			continue
		}
		seen[model] = struct{}{}

		if f.IsExcluded(provider, model) {
			continue
		}
		out = append(out, model)
	}

	return out
}

// EnsureAllowed returns model, or "" when it is excluded.
func (f *Filter) EnsureAllowed(provider, model string) string {
	if f.IsExcluded(provider, model) {
		return ""
	}
	return model
}

func toStrings(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, model := range list {
		model = strings.TrimSpace(model)
		if model != "" {
			set[model] = struct{}{}
		}
	}
	return set
}
