package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes diacritics by decomposing and dropping combining marks.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a stable natural key from a display name: case-insensitive,
// diacritics stripped, non-alphanumeric runs collapsed to a single hyphen.
// Returns "" when nothing survives; callers supply their fallback token.
func Slugify(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if folded, _, err := transform.String(stripMarks, name); err == nil {
		name = folded
	}
	name = strings.ToLower(name)

	var b strings.Builder
	pending := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
