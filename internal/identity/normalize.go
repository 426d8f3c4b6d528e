// Package identity normalizes and matches the fixed set of identity labels.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Sisý" -> "Sisy").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Normalize normalizes a name for comparison (lowercase, no diacritics, spaces for dashes and underscores).
func Normalize(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// Match returns the index of the label matching name after normalization.
func Match(labels []string, name string) (int, bool) {
	want := Normalize(name)
	if want == "" {
		return -1, false
	}
	for i, label := range labels {
		if Normalize(label) == want {
			return i, true
		}
	}
	return -1, false
}

// HasDuplicates reports whether two labels normalize to the same name.
func HasDuplicates(labels []string) bool {
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		n := Normalize(label)
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
	}
	return false
}
