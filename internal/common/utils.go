package common

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TitleWords upper-cases the first letter of every space-separated word and
// leaves the rest of each word as is.
func TitleWords(s string) string {
	words := strings.Split(s, " ")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		out = append(out, string(unicode.ToUpper(r))+w[size:])
	}
	return strings.Join(out, " ")
}
