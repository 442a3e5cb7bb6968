package prompt

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//nolint:gochecknoglobals // compiled once
var (
	leadingFence   = regexp.MustCompile("^```(?:json|JSON)?\\s*")
	trailingFence  = regexp.MustCompile("\\s*```$")
	slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)
	umlauts        = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")
)

// stripFence removes a leading ```json (or ```) marker and a trailing ```
// marker. Either may be missing, e.g. when the reply was cut off.
func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = leadingFence.ReplaceAllString(trimmed, "")
	return trailingFence.ReplaceAllString(trimmed, "")
}

// collapseSpace trims and folds internal whitespace runs to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most limit code points.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// Slugify turns text into a lowercase, hyphen-separated URL token.
func Slugify(text string) string {
	s := umlauts.Replace(strings.ToLower(strings.TrimSpace(text)))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = slugSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// splitKeywords accepts a JSON array or a comma/newline separated string and
// returns trimmed, case-insensitively de-duplicated keywords in first-seen order.
func splitKeywords(value any, limit int) []string {
	var candidates []string
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				candidates = append(candidates, s)
			}
		}
	case []string:
		candidates = v
	case string:
		candidates = strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == '\n' || r == '\r'
		})
	}

	seen := make(map[string]struct{}, len(candidates))
	keywords := make([]string, 0, len(candidates))
	for _, c := range candidates {
		kw := collapseSpace(c)
		if kw == "" {
			continue
		}
		lower := strings.ToLower(kw)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		keywords = append(keywords, kw)
		if limit > 0 && len(keywords) == limit {
			break
		}
	}
	return keywords
}
