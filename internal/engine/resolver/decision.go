package resolver

import (
	"regexp"

	"intent-engine/internal/engine/conversation"
	"intent-engine/internal/engine/entities"
	"intent-engine/internal/engine/normalize"
	"intent-engine/internal/engine/scoring"
	"intent-engine/internal/models"
)

// decision is threaded through the tiers. Tiers fill it in as they go; later
// tiers read what earlier ones computed.
type decision struct {
	question string
	userID   string
	query    normalize.Query
	session  *conversation.Session
	snapshot conversation.Context
	vocab    entities.Vocabulary
	viewMode string

	scores    scoring.Scores
	best      models.Intent
	bestScore float64

	extraction *entities.Extraction
	params     models.Params
	filters    models.FilterRequest
	followup   bool

	trace []string
}

func (d *decision) activeIntent() bool {
	return d.snapshot.Intent.IsData()
}

func (d *decision) result(intent models.Intent, outcome Outcome, reason string) *ResolvedQuery {
	return &ResolvedQuery{
		Intent:   intent,
		Params:   d.params.Clone(),
		Filters:  d.filters,
		ViewMode: d.viewMode,
		Outcome:  outcome,
		Reason:   reason,
	}
}

// newEntity reports whether the extraction names a strong field whose value is
// not what the context already holds.
func newEntity(extracted models.Params, stored models.Params) bool {
	for _, f := range models.AllFields {
		if f == models.FieldPeriod {
			continue
		}
		v, ok := extracted.Get(f)
		if !ok {
			continue
		}
		if old, had := stored.Get(f); !had || normalize.Normalize(old) != normalize.Normalize(v) {
			return true
		}
	}
	return false
}

// entityIntent maps the strongest extracted field to the intent that lists it.
func entityIntent(p models.Params) (models.Intent, bool) {
	switch {
	case p.Has(models.FieldOrderNumber):
		return models.IntentOrderLookup, true
	case p.Has(models.FieldProductCode), p.Has(models.FieldManufacturerCode),
		p.Has(models.FieldProductName), p.Has(models.FieldApplication):
		return models.IntentProductSearch, true
	case p.Has(models.FieldSalesperson):
		return models.IntentSales, true
	case p.Has(models.FieldBrand), p.Has(models.FieldSupplier),
		p.Has(models.FieldBuyer), p.Has(models.FieldBranch):
		return models.IntentPendingPurchases, true
	}
	return "", false
}

var viewWords = map[string]string{
	"summary":    ViewSummary,
	"summarize":  ViewSummary,
	"summarized": ViewSummary,
	"resumo":     ViewSummary,
	"resumido":   ViewSummary,
	"resumida":   ViewSummary,
	"detail":     ViewDetail,
	"details":    ViewDetail,
	"detailed":   ViewDetail,
	"detalhe":    ViewDetail,
	"detalhes":   ViewDetail,
	"detalhado":  ViewDetail,
	"detalhada":  ViewDetail,
}

func detectViewMode(q normalize.Query) string {
	for _, t := range q.Tokens {
		if v, ok := viewWords[t]; ok {
			return v
		}
	}
	return ""
}

// vocabularyFields are the fields backed by a controlled vocabulary.
var vocabularyFields = []models.Field{models.FieldBrand, models.FieldBranch, models.FieldBuyer}

func vocabularyFor(v entities.Vocabulary, f models.Field) []string {
	switch f {
	case models.FieldBrand:
		return v.Brands
	case models.FieldBranch:
		return v.Branches
	case models.FieldBuyer:
		return v.Buyers
	}
	return nil
}

// lookupVocabulary returns the vocabulary spelling of value.
func lookupVocabulary(values []string, value string) (string, bool) {
	n := normalize.Normalize(value)
	for _, v := range values {
		if normalize.Normalize(v) == n {
			return v, true
		}
	}
	return "", false
}

// adoptVocabularyParams lets an external value replace a local one only when the
// external value is a known vocabulary term and the local one is not.
func adoptVocabularyParams(local models.Params, remote models.Params, vocab entities.Vocabulary) (models.Params, []models.Field) {
	out := local.Clone()
	var adopted []models.Field
	for _, f := range vocabularyFields {
		rv, ok := remote.Get(f)
		if !ok {
			continue
		}
		known := vocabularyFor(vocab, f)
		canonical, ok := lookupVocabulary(known, rv)
		if !ok {
			continue
		}
		if lv, had := local.Get(f); had {
			if _, localKnown := lookupVocabulary(known, lv); localKnown {
				continue
			}
		}
		out.Set(f, canonical)
		adopted = append(adopted, f)
	}
	return out, adopted
}

var byWordRe = regexp.MustCompile(`\bby\s+([a-z][a-z0-9&-]{2,})`)

// dropOrderingBrand removes a brand read from "by <word>" when that word is not
// a known brand. In a question about earlier rows "by" names a sort or grouping
// key far more often than a manufacturer.
func dropOrderingBrand(x *entities.Extraction, q normalize.Query, vocab entities.Vocabulary) (string, bool) {
	if x.Sources[models.FieldBrand] != "preposition" {
		return "", false
	}
	brand, _ := x.Params.Get(models.FieldBrand)
	if _, known := lookupVocabulary(vocab.Brands, brand); known {
		return "", false
	}
	nb := normalize.Normalize(brand)
	for _, m := range byWordRe.FindAllStringSubmatch(q.Text, -1) {
		if m[1] != nb {
			continue
		}
		x.Params.Clear(models.FieldBrand)
		delete(x.Sources, models.FieldBrand)
		x.Dropped = append(x.Dropped, entities.Dropped{Field: models.FieldBrand, Value: brand, Reason: "ordering key"})
		return brand, true
	}
	return "", false
}
