package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Token is a word or a collapsed run of whitespace
type Token struct {
	Text    string
	IsSpace bool
}

// Normalize composes text to NFC so equal strings measure equally
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// CollapseWhitespace preserves single spaces but collapses multiple consecutive
// whitespace runes into a single space. Leading and trailing spaces are kept.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteByte(' ')
			}
			lastWasSpace = true
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return b.String()
}

// Tokenize splits normalized text into alternating word and space tokens.
// Consecutive whitespace becomes one space token.
func Tokenize(s string) []Token {
	s = Normalize(s)
	var (
		tokens []Token
		cur    strings.Builder
		inWord bool
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, Token{Text: cur.String()})
			cur.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			if inWord || len(tokens) == 0 || !tokens[len(tokens)-1].IsSpace {
				flush()
				tokens = append(tokens, Token{Text: " ", IsSpace: true})
			}
			inWord = false
			continue
		}
		cur.WriteRune(r)
		inWord = true
	}
	flush()
	return tokens
}

// Lines splits preformatted text on newlines, keeping empty lines
func Lines(s string) []string {
	s = strings.ReplaceAll(Normalize(s), "\r\n", "\n")
	return strings.Split(s, "\n")
}

// IsBlank reports whether s holds only whitespace
func IsBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
