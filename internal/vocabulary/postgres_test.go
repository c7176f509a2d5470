package vocabulary

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "intent-engine/internal/common/errors"
)

const (
	brandsSQL   = "SELECT DISTINCT brand FROM products"
	branchesSQL = "SELECT code FROM branches"
	buyersSQL   = "SELECT name FROM buyers WHERE active"
)

func TestPostgresLoader_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(brandsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"brand"}).AddRow("TECFIL").AddRow("DONALDSON").AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta(branchesSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("BH01").AddRow("SP02"))
	mock.ExpectQuery(regexp.QuoteMeta(buyersSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Maria Souza"))

	loader := NewPostgresLoader(db, brandsSQL, branchesSQL, buyersSQL, 0)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	loader.now = func() time.Time { return fixed }

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DONALDSON", "TECFIL"}, snap.Brands)
	assert.Equal(t, []string{"BH01", "SP02"}, snap.Branches)
	assert.Equal(t, []string{"Maria Souza"}, snap.Buyers)
	assert.Equal(t, "postgres", snap.Source)
	assert.Equal(t, fixed, snap.LoadedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoader_SkipsEmptyQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(brandsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"brand"}).AddRow("MANN"))

	snap, err := NewPostgresLoader(db, brandsSQL, "", "", 0).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"MANN"}, snap.Brands)
	assert.Empty(t, snap.Branches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoader_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(brandsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"brand"}).AddRow("MANN"))
	mock.ExpectQuery(regexp.QuoteMeta(branchesSQL)).WillReturnError(errors.New("relation does not exist"))

	_, err = NewPostgresLoader(db, brandsSQL, branchesSQL, buyersSQL, 0).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrVocabularyLoadFailed))
	assert.Contains(t, err.Error(), "branches")
}
