package entities

import (
	"regexp"
	"strings"

	"intent-engine/internal/engine/normalize"
)

var (
	explicitBuyerRe       = regexp.MustCompile(`\b(?:buyer|comprador|compradora)\s+([a-z][a-z]+(?:\s+[a-z][a-z]+)?)`)
	explicitSalespersonRe = regexp.MustCompile(`\b(?:salesperson|seller|salesman|vendedor|vendedora)\s+([a-z][a-z]+)`)
)

// BuyerCascade resolves the buyer field.
var BuyerCascade = Cascade{
	{Name: "explicit", Find: explicitBuyer},
	{Name: "vocabulary", Find: vocabularyBuyer},
}

// SalespersonCascade resolves the salesperson field. There is no vocabulary
// strategy; salespeople are only recognized when introduced explicitly.
var SalespersonCascade = Cascade{
	{Name: "explicit", Find: explicitSalesperson},
}

func explicitBuyer(in *Input) (string, bool) {
	m := explicitBuyerRe.FindStringSubmatch(in.Text)
	if m == nil {
		return "", false
	}
	words := strings.Fields(m[1])
	if normalize.IsStopword(words[0]) {
		return "", false
	}
	// Prefer the vocabulary's full name for a first-name mention.
	for _, b := range in.buyers {
		if b.normalized == m[1] || firstWord(b.normalized) == words[0] {
			return b.canonical, true
		}
	}
	return strings.ToUpper(words[0]), true
}

// vocabularyBuyer matches a full buyer name, or a first name shared by exactly one
// known buyer.
func vocabularyBuyer(in *Input) (string, bool) {
	for _, b := range in.buyers {
		if strings.Contains(b.normalized, " ") && normalize.ContainsPhrase(in.Text, b.normalized) {
			return b.canonical, true
		}
	}
	match := ""
	for _, b := range in.buyers {
		first := firstWord(b.normalized)
		if len(first) < 3 || normalize.IsStopword(first) || !in.hasToken(first) {
			continue
		}
		if match != "" {
			return "", false
		}
		match = b.canonical
	}
	return match, match != ""
}

func explicitSalesperson(in *Input) (string, bool) {
	m := explicitSalespersonRe.FindStringSubmatch(in.Text)
	if m == nil || normalize.IsStopword(m[1]) {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

func isBuyerWord(in *Input, word string) bool {
	for _, b := range in.buyers {
		if firstWord(b.normalized) == word {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
