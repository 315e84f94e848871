package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// French and West African Latin letters folded to ASCII. Catalog names are
// mostly French ("Pagne wax imprimé", "Bœuf séché").
var folder = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a", "á", "a",
	"ç", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i", "í", "i",
	"ô", "o", "ö", "o", "ó", "o",
	"ù", "u", "û", "u", "ü", "u", "ú", "u",
	"ÿ", "y",
	"œ", "oe", "æ", "ae",
	"ɓ", "b", "ɗ", "d", "ƙ", "k", "ŋ", "n", "ƴ", "y",
)

// Generate turns a product or category name into a lowercase, hyphenated
// ASCII key.
//
//   - "Pagne wax imprimé" → "pagne-wax-imprime"
//   - "Bœuf  séché!" → "boeuf-seche"
func Generate(name string) string {
	s := folder.Replace(strings.ToLower(strings.TrimSpace(name)))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Matches reports whether every word of query appears in name, ignoring
// case, accents and punctuation. An empty query matches everything.
func Matches(name, query string) bool {
	q := Generate(query)
	if q == "" {
		return true
	}
	n := "-" + Generate(name) + "-"
	for _, word := range strings.Split(q, "-") {
		if !strings.Contains(n, word) {
			return false
		}
	}
	return true
}
