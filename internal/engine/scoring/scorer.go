// Package scoring computes keyword-weighted intent scores.
package scoring

import (
	"strings"
	"sync/atomic"

	"intent-engine/internal/engine/normalize"
	"intent-engine/internal/models"
)

// Scores maps every scored intent to a non-negative weight.
type Scores map[models.Intent]float64

// Best returns the highest scoring intent. Equal scores resolve to the intent
// listed first in models.ScoredIntents; all-zero scores yield IntentUnknown.
func (s Scores) Best() (models.Intent, float64) {
	best, bestScore := models.IntentUnknown, 0.0
	for _, intent := range models.ScoredIntents {
		if v := s[intent]; v > bestScore {
			best, bestScore = intent, v
		}
	}
	return best, bestScore
}

// Scorer sums catalog and learned keyword weights over a token sequence. It is
// safe for concurrent use; the learned table is swapped atomically.
type Scorer struct {
	catalog *Catalog
	learned atomic.Pointer[LearnedTable]
}

// New builds a Scorer over catalog. A nil catalog selects the embedded default.
func New(catalog *Catalog) *Scorer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	s := &Scorer{catalog: catalog}
	s.learned.Store(&LearnedTable{})
	return s
}

// Catalog returns the static keyword table.
func (s *Scorer) Catalog() *Catalog { return s.catalog }

// SetLearned replaces the learned keyword table.
func (s *Scorer) SetLearned(t *LearnedTable) {
	if t == nil {
		t = &LearnedTable{}
	}
	s.learned.Store(t)
}

// Learned returns the current learned keyword table.
func (s *Scorer) Learned() *LearnedTable { return s.learned.Load() }

// Score computes a score for every scored intent.
func (s *Scorer) Score(tokens []string) Scores {
	present := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		present[t] = struct{}{}
	}
	padded := " " + strings.Join(tokens, " ") + " "
	learned := s.learned.Load()

	scores := make(Scores, len(models.ScoredIntents))
	for _, intent := range models.ScoredIntents {
		total := 0.0
		rules, _ := s.catalog.Rules(intent)
		for _, k := range rules.Keywords {
			if matches(k.Words, present, padded) {
				total += k.Effective()
			}
		}
		for _, k := range learned.byIntent[intent] {
			if matches(k.Words, present, padded) {
				total += k.Effective()
			}
		}
		scores[intent] = total
	}
	return scores
}

// ScoreQuery is Score over a normalized query.
func (s *Scorer) ScoreQuery(q normalize.Query) Scores {
	return s.Score(q.Tokens)
}

// Threshold is the minimum score at which intent is trusted without escalation.
func (s *Scorer) Threshold(intent models.Intent) float64 {
	rules, ok := s.catalog.Rules(intent)
	if !ok {
		return 0
	}
	return rules.Threshold
}

// Clears reports whether score reaches intent's threshold.
func (s *Scorer) Clears(intent models.Intent, score float64) bool {
	t := s.Threshold(intent)
	return t > 0 && score >= t
}

func matches(words []string, present map[string]struct{}, padded string) bool {
	if len(words) == 1 {
		_, ok := present[words[0]]
		return ok
	}
	return strings.Contains(padded, " "+strings.Join(words, " ")+" ")
}
