package entities

import (
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"intent-engine/internal/engine/normalize"
)

var (
	explicitBrandRe = regexp.MustCompile(`\b(?:brand|marca|fabricante)\s+(?:da\s+|do\s+|de\s+)?([a-z0-9][a-z0-9&-]*)`)
	prepositionRe   = regexp.MustCompile(`\b(?:from|of|by|da|do|de|dos|das)\s+([a-z][a-z0-9&-]{2,})`)
)

// brandNoise are words that follow a preposition without naming a brand.
var brandNoise = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"today", "yesterday", "week", "month", "year", "last", "this", "next", "days",
		"hoje", "ontem", "semana", "mes", "ano", "ultimo", "ultima", "ultimos", "ultimas",
		"esta", "este", "essa", "esse", "dias", "passado", "passada",
		"orders", "order", "purchases", "purchase", "sales", "stock", "products", "product",
		"items", "item", "supplier", "suppliers", "branch", "buyer", "seller", "value",
		"pedidos", "pedido", "compras", "compra", "vendas", "venda", "estoque", "produtos",
		"produto", "itens", "fornecedor", "fornecedores", "filial", "loja", "comprador",
		"vendedor", "valor", "previsao", "entrega", "nota", "fiscal", "marca", "brand",
		"the", "all", "each", "every", "our", "your", "them", "mil", "thousand", "million",
		"reais", "maior", "menor", "mais", "menos", "cada", "todos", "todas",
		"late", "delayed", "overdue", "pending", "open", "partial", "forecast", "invoice",
		"atrasado", "atrasados", "atrasada", "atrasadas", "pendente", "pendentes", "parcial",
		"aberto", "abertos", "prazo",
		"date", "dates", "data", "datas", "price", "prices", "preco", "precos", "cost", "custo",
		"status", "situacao", "name", "nome", "total", "totals", "amount", "quantity", "qty",
		"quantidade", "number", "numero", "delay", "atraso", "newest", "oldest", "recent",
		"recentes", "antigos", "descricao", "description", "category", "categoria", "type", "tipo",
	} {
		brandNoise[w] = struct{}{}
	}
}

func isBrandNoise(word string) bool {
	if _, ok := brandNoise[word]; ok {
		return true
	}
	return normalize.IsStopword(word)
}

// BrandCascade resolves the brand field.
var BrandCascade = Cascade{
	{Name: "explicit", Find: explicitBrand},
	{Name: "preposition", Find: prepositionBrand},
	{Name: "vocabulary", Find: vocabularyBrand},
	{Name: "fuzzy", Find: fuzzyBrand},
}

func explicitBrand(in *Input) (string, bool) {
	m := explicitBrandRe.FindStringSubmatch(in.Text)
	if m == nil || isBrandNoise(m[1]) {
		return "", false
	}
	return canonicalBrand(in, m[1]), true
}

func prepositionBrand(in *Input) (string, bool) {
	for _, m := range prepositionRe.FindAllStringSubmatch(in.Text, -1) {
		word := m[1]
		if isBrandNoise(word) || isBranchWord(in, word) || isBuyerWord(in, word) || manufacturerCodeRe.MatchString(word) {
			continue
		}
		return canonicalBrand(in, word), true
	}
	return "", false
}

// vocabularyBrand finds a known brand written out in full. Longer names win so
// that "MANN FILTER" beats "MANN".
func vocabularyBrand(in *Input) (string, bool) {
	best := ""
	bestLen := 0
	for _, b := range in.brands {
		if normalize.IsStopword(b.normalized) {
			continue
		}
		if normalize.ContainsPhrase(in.Text, b.normalized) && len(b.normalized) > bestLen {
			best, bestLen = b.canonical, len(b.normalized)
		}
	}
	return best, best != ""
}

// fuzzyBrand tolerates small misspellings: a token that is an in-order subsequence
// of a known brand within a fifth of its length in edits.
func fuzzyBrand(in *Input) (string, bool) {
	if len(in.brands) == 0 {
		return "", false
	}
	targets := make([]string, len(in.brands))
	for i, b := range in.brands {
		targets[i] = b.normalized
	}

	best := ""
	bestDistance := -1
	for _, tok := range in.Tokens {
		if len(tok) < 4 || isBrandNoise(tok) {
			continue
		}
		for _, r := range fuzzy.RankFindNormalizedFold(tok, targets) {
			limit := len(r.Target) / 5
			if limit < 1 {
				limit = 1
			}
			if r.Distance > limit {
				continue
			}
			if bestDistance < 0 || r.Distance < bestDistance {
				best, bestDistance = in.brands[r.OriginalIndex].canonical, r.Distance
			}
		}
	}
	return best, best != ""
}

// canonicalBrand prefers the vocabulary spelling of word, else upper-cases it.
func canonicalBrand(in *Input, word string) string {
	for _, b := range in.brands {
		if b.normalized == word {
			return b.canonical
		}
	}
	return strings.ToUpper(word)
}
