package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent-engine/internal/app"
	"intent-engine/internal/common/config"
	"intent-engine/internal/common/logger"
	"intent-engine/internal/models"
)

func purchaseFixture(delayed, onTime int) *models.HandlerResult {
	rows := make([]models.Row, 0, delayed+onTime)
	for i := 0; i < delayed; i++ {
		rows = append(rows, models.Row{"order": fmt.Sprintf("D%03d", i), "status": "DELAYED"})
	}
	for i := 0; i < onTime; i++ {
		rows = append(rows, models.Row{"order": fmt.Sprintf("T%03d", i), "status": "ON_TIME"})
	}
	return &models.HandlerResult{Rows: rows, Columns: []string{"order", "status"}, Description: "pending purchase orders"}
}

func testComponents(t *testing.T, fixture *models.HandlerResult) *app.Components {
	t.Helper()
	cfg := &config.Config{
		Engine:     config.EngineConfig{ContextTTL: 3600, HistorySize: 10, StatusField: "status", ConfirmationMaxTokens: 3},
		Classifier: config.ClassifierConfig{Provider: "none"},
		Vocabulary: config.VocabularyConfig{Source: "none"},
	}
	opts := app.Options{}
	if fixture != nil {
		opts.Dispatcher = fixtureDispatcher(fixture)
	}
	comp, err := app.Build(context.Background(), cfg, logger.NewTestLogger(t), opts)
	require.NoError(t, err)
	t.Cleanup(func() { comp.Close() })
	return comp
}

func TestRunChat_FollowupFiltersFixture(t *testing.T) {
	comp := testComponents(t, purchaseFixture(41, 75))
	in := strings.NewReader("late orders from Donaldson\ngive me those 41 delayed ones\nexit\nhi\n")
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), comp.Engine, in, &out, "u1"))

	text := out.String()
	assert.Contains(t, text, "intent:   pending_purchases")
	assert.Contains(t, text, "brand=DONALDSON")
	assert.Contains(t, text, "filters:  status eq DELAYED")
	assert.Contains(t, text, "result:   41 of 116 rows")
	assert.NotContains(t, text, "intent:   greeting", "input after exit is ignored")
}

func TestRunChat_DispatchWithoutFixture(t *testing.T) {
	comp := testComponents(t, nil)
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), comp.Engine, strings.NewReader("late orders from Donaldson\n"), &out, "u1"))
	assert.Contains(t, out.String(), "intent:   pending_purchases")
	assert.Contains(t, out.String(), "error:")
}

func TestFormatFilters(t *testing.T) {
	f := models.FilterRequest{SortField: "total_value", SortDesc: true, TopN: 5}
	f.Add(models.Clause{Field: "status", Op: models.OpEquals, Value: "DELAYED"})
	f.Add(models.Clause{Field: "forecast_date", Op: models.OpEmpty})
	f.Add(models.Clause{Field: "total_value", Op: models.OpGreater, Value: 50000.0})

	assert.Equal(t, "status eq DELAYED; forecast_date empty; total_value gt 50000; sort total_value desc; top 5", formatFilters(f))
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rows":[{"status":"DELAYED"}],"columns":["status"],"description":"d"}`), 0o644))

	result, err := loadFixture(path)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)
	assert.Equal(t, "d", result.Description)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	_, err = loadFixture(path)
	assert.Error(t, err)

	_, err = loadFixture(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
