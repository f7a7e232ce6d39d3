package redemption

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// quoteRunes lists every quotation mark stripped from titles. Full-width
// forms are folded to ASCII before this set is consulted.
var quoteRunes = map[rune]struct{}{
	'"': {}, '\'': {},
	'“': {}, '”': {},
	'‘': {}, '’': {},
	'„': {}, '‟': {},
	'‚': {}, '‛': {},
	'«': {}, '»': {},
	'‹': {}, '›': {},
	'〝': {}, '〞': {}, '〟': {},
	'＂': {}, '＇': {},
}

func isStripped(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	_, ok := quoteRunes[r]
	return ok
}

// NormalizeTitle folds full-width forms and removes whitespace and quotation
// marks so that titles can be compared token by token.
func NormalizeTitle(s string) string {
	t := transform.Chain(width.Fold, runes.Remove(runes.Predicate(isStripped)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.Map(func(r rune) rune {
			if isStripped(r) {
				return -1
			}
			return r
		}, s)
	}
	return out
}
