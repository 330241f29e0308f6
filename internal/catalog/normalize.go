package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle folds a title for substring matching: lowercase,
// accents stripped, whitespace collapsed. Matching happens on the
// normalized form so "léon" finds "Léon: The Professional".
func NormalizeTitle(title string) string {
	s := strings.ToLower(title)
	s = removeAccents(s)
	return strings.Join(strings.Fields(s), " ")
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
