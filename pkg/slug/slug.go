// Package slug turns display names into URL and flag friendly identifiers.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

var folder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"ç", "c", "é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i", "ı", "i",
	"ñ", "n", "ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o",
	"ş", "s", "ß", "ss", "ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ğ", "g", "&", " and ",
)

// Generate creates a slug from name:
//
//   - "Personal Care" → "personal-care"
//   - "Kitchen & Dining" → "kitchen-and-dining"
//   - "Crème Brûlée!" → "creme-brulee"
func Generate(name string) string {
	s := folder.Replace(strings.ToLower(strings.TrimSpace(name)))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Equal reports whether a and b produce the same slug. Empty slugs never
// match.
func Equal(a, b string) bool {
	sa := Generate(a)
	return sa != "" && sa == Generate(b)
}
