// Package normalize turns raw questions into lowercase, accent-free text and
// word tokens.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Query is a normalized question.
type Query struct {
	Text   string
	Tokens []string
}

// NewQuery normalizes and tokenizes question.
func NewQuery(question string) Query {
	text := Normalize(question)
	return Query{Text: text, Tokens: split(text)}
}

// Len is the number of tokens.
func (q Query) Len() int { return len(q.Tokens) }

// Has reports whether token is present.
func (q Query) Has(token string) bool {
	for _, t := range q.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// HasAny reports whether any of tokens is present.
func (q Query) HasAny(tokens ...string) bool {
	for _, t := range tokens {
		if q.Has(t) {
			return true
		}
	}
	return false
}

// Contains reports whether phrase occurs in the text on word boundaries.
func (q Query) Contains(phrase string) bool {
	return ContainsPhrase(q.Text, phrase)
}

// Normalize lowercases text, strips combining marks and collapses whitespace.
// Lowercasing happens before decomposition so that the result is a fixed point.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, lowered)
	if err != nil {
		stripped = lowered
	}
	return strings.Join(strings.Fields(stripped), " ")
}

// Tokenize returns the word tokens of text.
func Tokenize(text string) []string {
	return split(Normalize(text))
}

func split(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContainsPhrase reports whether phrase occurs in normalized text as whole words.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	padded := " " + strings.Join(split(text), " ") + " "
	return strings.Contains(padded, " "+strings.Join(split(phrase), " ")+" ")
}
