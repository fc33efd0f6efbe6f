package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonicalize normalizes a column header: accents are folded, letters
// lowered, every run of other characters becomes one underscore and
// leading or trailing underscores are dropped.
//
//	" Model Identifier " -> "model_identifier"
//	"Überdruck (Pa)"     -> "uberdruck_pa"
func Canonicalize(header string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(fold, strings.TrimSpace(header))
	if err != nil {
		s = header
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}
