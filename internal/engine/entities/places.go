package entities

import (
	"regexp"
	"strings"

	"intent-engine/internal/engine/normalize"
)

// city maps a normalized city name to the branch-code prefix used by the ERP.
type city struct {
	name string
	code string
}

// cities is ordered longest first so that multi-word names win.
var cities = []city{
	{"belo horizonte", "BH"},
	{"rio de janeiro", "RJ"},
	{"porto alegre", "POA"},
	{"sao paulo", "SP"},
	{"campinas", "CPS"},
	{"curitiba", "CWB"},
	{"goiania", "GYN"},
	{"recife", "REC"},
}

var cityWords = map[string]string{}

func init() {
	for _, c := range cities {
		for _, w := range strings.Fields(c.name) {
			if w == "de" {
				continue
			}
			cityWords[w] = c.code
		}
	}
}

// CityCode returns the branch-code prefix for a city name.
func CityCode(name string) (string, bool) {
	n := normalize.Normalize(name)
	for _, c := range cities {
		if c.name == n {
			return c.code, true
		}
	}
	return "", false
}

var (
	explicitBranchRe = regexp.MustCompile(`\b(?:branch|filial|loja|unidade|company|empresa)\s+(?:de\s+|da\s+|do\s+|in\s+|em\s+)?([a-z0-9][a-z0-9 ]*)`)
	branchCodeRe     = regexp.MustCompile(`^[a-z]{2,4}\d{0,3}$`)
)

// BranchCascade resolves the branch field.
var BranchCascade = Cascade{
	{Name: "explicit", Find: explicitBranch},
	{Name: "preposition_city", Find: prepositionCity},
	{Name: "city", Find: bareCity},
	{Name: "vocabulary", Find: vocabularyBranch},
}

func explicitBranch(in *Input) (string, bool) {
	m := explicitBranchRe.FindStringSubmatch(in.Text)
	if m == nil {
		return "", false
	}
	rest := m[1]
	for _, c := range cities {
		if rest == c.name || strings.HasPrefix(rest, c.name+" ") {
			return c.code, true
		}
	}
	first := strings.Fields(rest)[0]
	for _, b := range in.branches {
		if b.normalized == first {
			return b.canonical, true
		}
	}
	if branchCodeRe.MatchString(first) && !normalize.IsStopword(first) {
		return strings.ToUpper(first), true
	}
	return "", false
}

func prepositionCity(in *Input) (string, bool) {
	for _, c := range cities {
		for _, prep := range []string{"in", "at", "em", "na", "no", "de", "da", "do"} {
			if normalize.ContainsPhrase(in.Text, prep+" "+c.name) {
				return c.code, true
			}
		}
	}
	return "", false
}

func bareCity(in *Input) (string, bool) {
	for _, c := range cities {
		if normalize.ContainsPhrase(in.Text, c.name) {
			return c.code, true
		}
	}
	return "", false
}

func vocabularyBranch(in *Input) (string, bool) {
	for _, b := range in.branches {
		if normalize.ContainsPhrase(in.Text, b.normalized) {
			return b.canonical, true
		}
	}
	return "", false
}

// isBranchWord reports whether word names a city or a known branch.
func isBranchWord(in *Input, word string) bool {
	if _, ok := cityWords[word]; ok {
		return true
	}
	for _, b := range in.branches {
		if b.normalized == word {
			return true
		}
	}
	return false
}
