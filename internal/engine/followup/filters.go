package followup

import (
	"regexp"
	"strconv"
	"strings"

	"intent-engine/internal/engine/normalize"
	"intent-engine/internal/models"
)

var (
	thresholdRe = regexp.MustCompile(`\b(above|over|more than|greater than|higher than|acima de|mais de|maior que|maiores que|superior a|superiores a|below|under|less than|lower than|abaixo de|menos de|menor que|menores que|inferior a|inferiores a)\s+(?:r\$\s*|\$\s*)?(\d+(?:[.,]\d+)*)\s*(thousand|mil|k|million|millions|milhao|milhoes|mi)?\b\s*(days|dias|reais|brl|dollars)?`)

	topNRe       = regexp.MustCompile(`\btop\s+(\d+)\b`)
	nMostRe      = regexp.MustCompile(`\b(\d+)\s+(?:most|mais|maiores|menores|biggest|largest|highest|lowest|primeiros|primeiras|first)\b`)
	firstNRe     = regexp.MustCompile(`\b(?:first|primeiros|primeiras)\s+(\d+)\b`)
	singularRe   = regexp.MustCompile(`\b(?:the|o|a)\s+(?:most|mais|cheapest|oldest|newest|biggest|highest|lowest|latest|largest)\b`)
	containsRe   = regexp.MustCompile(`\b(?:containing|contains|contendo|que contem|que contenham|com a palavra|with the word)\s+["']?([a-z0-9-]+)`)
	lateStatusRe = regexp.MustCompile(`\b(?:delayed|late|overdue|atrasad[oa]s?|em atraso)\b`)
)

type sortRule struct {
	phrases []string
	field   string
	desc    bool
}

var sortRules = []sortRule{
	{[]string{"most delayed", "most late", "mais atrasados", "mais atrasadas", "mais atrasado", "mais atrasada", "maior atraso"}, models.ColumnDaysLate, true},
	{[]string{"most expensive", "more expensive", "highest value", "highest values", "biggest", "largest", "mais caros", "mais caras", "mais caro", "mais cara", "maior valor", "maiores valores"}, models.ColumnTotalValue, true},
	{[]string{"cheapest", "least expensive", "lowest value", "lowest values", "mais baratos", "mais baratas", "mais barato", "mais barata", "menor valor", "menores valores"}, models.ColumnTotalValue, false},
	{[]string{"newest", "most recent", "latest", "mais recentes", "mais recente", "mais novos", "mais novas", "mais novo", "mais nova"}, models.ColumnOrderDate, true},
	{[]string{"oldest", "mais antigos", "mais antigas", "mais antigo", "mais antiga"}, models.ColumnOrderDate, false},
	{[]string{"sorted by value", "ordered by value", "ordenados por valor", "ordenado por valor", "ordenadas por valor"}, models.ColumnTotalValue, true},
}

// Parser turns follow-up phrasing into a FilterRequest. StatusField names the row
// field holding the order status.
type Parser struct {
	StatusField string
}

// NewParser returns a Parser for statusField, defaulting to models.ColumnStatus.
func NewParser(statusField string) *Parser {
	if statusField == "" {
		statusField = models.ColumnStatus
	}
	return &Parser{StatusField: statusField}
}

// DetectFilterRequest is Parser.Detect with the default status field.
func DetectFilterRequest(text string, tokens []string) (models.FilterRequest, bool) {
	return NewParser("").Detect(text, tokens)
}

// Detect parses every filter cue in text and combines them conjunctively. ok is
// false when nothing was recognized.
func (p *Parser) Detect(text string, tokens []string) (models.FilterRequest, bool) {
	text = normalize.Normalize(text)
	if tokens == nil {
		tokens = normalize.Tokenize(text)
	}
	var fr models.FilterRequest

	p.detectStatus(&fr, text, tokens)
	detectPresence(&fr, text)
	detectThresholds(&fr, text)
	detectContains(&fr, text)
	detectSort(&fr, text)
	detectTopN(&fr, text)

	return fr, !fr.IsZero()
}

var partialTokens = map[string]struct{}{
	"partial": {}, "partially": {}, "parcial": {}, "parciais": {}, "parcialmente": {},
}

func (p *Parser) detectStatus(fr *models.FilterRequest, text string, tokens []string) {
	switch {
	case normalize.ContainsPhrase(text, "on time") || normalize.ContainsPhrase(text, "no prazo") ||
		normalize.ContainsPhrase(text, "em dia") || normalize.ContainsPhrase(text, "pontuais"):
		fr.Add(models.Clause{Field: p.StatusField, Op: models.OpEquals, Value: models.StatusOnTime})
	case lateStatusRe.MatchString(text) && !normalize.ContainsPhrase(text, "not late") && !normalize.ContainsPhrase(text, "nao atrasados"):
		fr.Add(models.Clause{Field: p.StatusField, Op: models.OpEquals, Value: models.StatusDelayed})
	}
	for _, t := range tokens {
		if _, ok := partialTokens[t]; ok {
			fr.Add(models.Clause{Field: p.StatusField, Op: models.OpEquals, Value: models.StatusPartial})
			break
		}
	}
}

var presenceRules = []struct {
	phrases []string
	field   string
	op      models.Op
}{
	{[]string{"no forecast", "without forecast", "without a forecast", "sem previsao", "sem data de previsao", "sem data prevista"}, models.ColumnForecastDate, models.OpEmpty},
	{[]string{"with forecast", "with a forecast", "com previsao", "com data de previsao"}, models.ColumnForecastDate, models.OpNotEmpty},
	{[]string{"no invoice", "without invoice", "without an invoice", "sem nota", "sem nf", "sem nota fiscal", "nao faturados"}, models.ColumnInvoice, models.OpEmpty},
	{[]string{"with invoice", "with an invoice", "invoiced", "com nota", "com nf", "faturados"}, models.ColumnInvoice, models.OpNotEmpty},
}

func detectPresence(fr *models.FilterRequest, text string) {
	for _, r := range presenceRules {
		for _, ph := range r.phrases {
			if normalize.ContainsPhrase(text, ph) {
				if r.op == models.OpNotEmpty && fr.Has(r.field, models.OpEmpty) {
					break
				}
				fr.Add(models.Clause{Field: r.field, Op: r.op})
				break
			}
		}
	}
}

func detectThresholds(fr *models.FilterRequest, text string) {
	for _, m := range thresholdRe.FindAllStringSubmatch(text, -1) {
		value, ok := ParseNumber(m[2])
		if !ok {
			continue
		}
		value *= multiplier(m[3])

		op := models.OpGreater
		switch m[1] {
		case "below", "under", "less than", "lower than", "abaixo de", "menos de", "menor que", "menores que", "inferior a", "inferiores a":
			op = models.OpLess
		}

		field := models.ColumnTotalValue
		if m[4] == "days" || m[4] == "dias" {
			field = models.ColumnDaysLate
		}
		fr.Add(models.Clause{Field: field, Op: op, Value: value})
	}
}

func multiplier(word string) float64 {
	switch word {
	case "thousand", "mil", "k":
		return 1e3
	case "million", "millions", "milhao", "milhoes", "mi":
		return 1e6
	}
	return 1
}

// ParseNumber reads a number written with either pt-BR or en separators:
// "50.000" and "50,000" are fifty thousand, "2,5" and "2.5" are two and a half.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if isThousandsGrouped(s, '.') {
			s = strings.ReplaceAll(s, ".", "")
		}
	case lastComma >= 0:
		if isThousandsGrouped(s, ',') {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isThousandsGrouped reports whether every group after sep has exactly three
// digits, as in "1.250.000".
func isThousandsGrouped(s string, sep byte) bool {
	parts := strings.Split(s, string(sep))
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

func detectContains(fr *models.FilterRequest, text string) {
	if m := containsRe.FindStringSubmatch(text); m != nil {
		fr.Add(models.Clause{Field: models.ColumnDescription, Op: models.OpContains, Value: m[1]})
	}
}

func detectSort(fr *models.FilterRequest, text string) {
	for _, r := range sortRules {
		for _, ph := range r.phrases {
			if normalize.ContainsPhrase(text, ph) {
				fr.SortField = r.field
				fr.SortDesc = r.desc
				return
			}
		}
	}
}

func detectTopN(fr *models.FilterRequest, text string) {
	for _, re := range []*regexp.Regexp{topNRe, nMostRe, firstNRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				fr.TopN = n
				if fr.SortField == "" {
					fr.SortField = models.ColumnTotalValue
					fr.SortDesc = true
				}
				return
			}
		}
	}
	if fr.SortField == "" {
		return
	}
	if loc := singularRe.FindStringIndex(text); loc != nil && !pluralAfter(text[loc[1]:]) {
		fr.TopN = 1
	}
}

// pluralAfter looks at the two words following a superlative: "expensive orders"
// is plural, "expensive one" or "caro" is not.
func pluralAfter(rest string) bool {
	words := strings.Fields(strings.Trim(rest, " ?!.,"))
	if len(words) > 2 {
		words = words[:2]
	}
	for _, w := range words {
		w = strings.Trim(w, "?!.,")
		if w == "ones" {
			return true
		}
		if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && w != "this" && w != "was" {
			return true
		}
	}
	return false
}
