package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "intent-engine/internal/common/errors"
	"intent-engine/internal/common/logger"
	"intent-engine/internal/engine/normalize"
	"intent-engine/internal/models"
)

const (
	learnedIncrement = 0.25
	learnedMaxWeight = 1.0
	minLearnedLength = 4
)

// LearnedTable is an immutable set of keywords reinforced from classifier
// decisions. It augments, never replaces, the static catalog.
type LearnedTable struct {
	byIntent map[models.Intent][]Keyword
}

// NewLearnedTable builds a table from raw entries, dropping unknown intents and
// non-positive weights.
func NewLearnedTable(entries []LearnedEntry) *LearnedTable {
	t := &LearnedTable{byIntent: make(map[models.Intent][]Keyword)}
	for _, e := range entries {
		intent := models.ParseIntent(e.Intent)
		if !isScored(intent) || e.Weight <= 0 {
			continue
		}
		words := normalize.Tokenize(e.Keyword)
		if len(words) == 0 {
			continue
		}
		t.byIntent[intent] = append(t.byIntent[intent], Keyword{Term: e.Keyword, Words: words, Weight: e.Weight})
	}
	return t
}

// Len is the number of learned keywords.
func (t *LearnedTable) Len() int {
	n := 0
	for _, ks := range t.byIntent {
		n += len(ks)
	}
	return n
}

// LearnedEntry is one row of the learned keyword table.
type LearnedEntry struct {
	Intent  string
	Keyword string
	Weight  float64
}

// LearnedRepository persists learned keywords.
type LearnedRepository interface {
	Load(ctx context.Context) ([]LearnedEntry, error)
	Record(ctx context.Context, intent models.Intent, keywords []string) error
}

// PostgresLearnedRepository stores learned keywords in intent_learned_keywords.
type PostgresLearnedRepository struct {
	db *sql.DB
}

func NewPostgresLearnedRepository(db *sql.DB) *PostgresLearnedRepository {
	return &PostgresLearnedRepository{db: db}
}

const (
	loadLearnedSQL = `SELECT intent, keyword, weight FROM intent_learned_keywords WHERE weight > 0 ORDER BY intent, keyword`

	upsertLearnedSQL = `INSERT INTO intent_learned_keywords (intent, keyword, weight, hits, updated_at)
VALUES ($1, $2, $3, 1, NOW())
ON CONFLICT (intent, keyword) DO UPDATE
SET weight = LEAST(intent_learned_keywords.weight + $3, $4),
    hits = intent_learned_keywords.hits + 1,
    updated_at = NOW()`
)

func (r *PostgresLearnedRepository) Load(ctx context.Context) ([]LearnedEntry, error) {
	rows, err := r.db.QueryContext(ctx, loadLearnedSQL)
	if err != nil {
		return nil, fmt.Errorf("query learned keywords: %w", err)
	}
	defer rows.Close()

	var out []LearnedEntry
	for rows.Next() {
		var e LearnedEntry
		if err := rows.Scan(&e.Intent, &e.Keyword, &e.Weight); err != nil {
			return nil, fmt.Errorf("scan learned keyword: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate learned keywords: %w", err)
	}
	return out, nil
}

func (r *PostgresLearnedRepository) Record(ctx context.Context, intent models.Intent, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin learned keyword tx: %w", err)
	}
	for _, kw := range keywords {
		if _, err := tx.ExecContext(ctx, upsertLearnedSQL, string(intent), kw, learnedIncrement, learnedMaxWeight); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert learned keyword %q: %w", kw, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit learned keywords: %w", err)
	}
	return nil
}

// Candidates picks the tokens worth reinforcing for intent: long enough, not stop
// words, not numbers, not already in the catalog.
func (s *Scorer) Candidates(intent models.Intent, tokens []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tokens {
		if len([]rune(t)) < minLearnedLength || normalize.IsStopword(t) || isNumeric(t) {
			continue
		}
		if s.catalog.Contains(intent, t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Reloader periodically refreshes the scorer's learned table.
type Reloader struct {
	repo     LearnedRepository
	scorer   *Scorer
	interval time.Duration
	logger   logger.Logger
}

func NewReloader(repo LearnedRepository, scorer *Scorer, interval time.Duration, log logger.Logger) *Reloader {
	return &Reloader{
		repo:     repo,
		scorer:   scorer,
		interval: interval,
		logger:   logger.ForComponent(log, "learned-keywords"),
	}
}

// ReloadOnce loads the table and swaps it in. On failure the previous table stays.
func (r *Reloader) ReloadOnce(ctx context.Context) error {
	entries, err := r.repo.Load(ctx)
	if err != nil {
		r.logger.Warn("learned keyword reload failed, keeping previous table", map[string]interface{}{
			"error": err,
		})
		return fmt.Errorf("%w: %v", apperrors.ErrKeywordReloadFailed, err)
	}
	table := NewLearnedTable(entries)
	r.scorer.SetLearned(table)
	r.logger.Debug("learned keywords reloaded", map[string]interface{}{"count": table.Len()})
	return nil
}

// Run reloads immediately and then on every tick until ctx is done.
func (r *Reloader) Run(ctx context.Context) {
	_ = r.ReloadOnce(ctx)
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.ReloadOnce(ctx)
		}
	}
}
