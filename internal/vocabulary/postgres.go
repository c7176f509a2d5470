package vocabulary

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "intent-engine/internal/common/errors"
)

// PostgresLoader runs one single-column query per list.
type PostgresLoader struct {
	db            *sql.DB
	brandsQuery   string
	branchesQuery string
	buyersQuery   string
	maxTerms      int
	now           func() time.Time
}

func NewPostgresLoader(db *sql.DB, brandsQuery, branchesQuery, buyersQuery string, maxTerms int) *PostgresLoader {
	return &PostgresLoader{
		db:            db,
		brandsQuery:   brandsQuery,
		branchesQuery: branchesQuery,
		buyersQuery:   buyersQuery,
		maxTerms:      maxTerms,
		now:           time.Now,
	}
}

func (l *PostgresLoader) Load(ctx context.Context) (*Snapshot, error) {
	brands, err := l.column(ctx, l.brandsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: brands: %v", apperrors.ErrVocabularyLoadFailed, err)
	}
	branches, err := l.column(ctx, l.branchesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: branches: %v", apperrors.ErrVocabularyLoadFailed, err)
	}
	buyers, err := l.column(ctx, l.buyersQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: buyers: %v", apperrors.ErrVocabularyLoadFailed, err)
	}
	return &Snapshot{
		Brands:   clean(brands, l.maxTerms),
		Branches: clean(branches, l.maxTerms),
		Buyers:   clean(buyers, l.maxTerms),
		Source:   "postgres",
		LoadedAt: l.now(),
	}, nil
}

// column returns the first column of every row. An empty query yields no values.
func (l *PostgresLoader) column(ctx context.Context, query string) ([]string, error) {
	if query == "" {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid {
			out = append(out, v.String)
		}
	}
	return out, rows.Err()
}
