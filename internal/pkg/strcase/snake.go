// Package strcase converts Go field names into the snake_case keys the API
// reports validation errors under.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts a Go identifier to snake_case. Initialisms stay one
// word, including plural ones: ItemIDs becomes item_ids and HTTPServer
// becomes http_server. Anything that is not a letter, like the "[0]" of a
// slice element, is copied as is.
func ToLowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && startsWord(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// startsWord is called for an upper case rune at i > 0.
func startsWord(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	if !unicode.IsUpper(prev) || i+1 >= len(runes) || !unicode.IsLower(runes[i+1]) {
		return false
	}

	// the last rune of an initialism followed by a lower case word
	return !pluralSuffix(runes, i+1)
}

// pluralSuffix reports whether runes[i] is a lone "s" closing an initialism.
func pluralSuffix(runes []rune, i int) bool {
	if runes[i] != 's' {
		return false
	}
	return i+1 == len(runes) || !unicode.IsLower(runes[i+1])
}
