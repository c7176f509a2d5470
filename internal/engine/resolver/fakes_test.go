package resolver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"intent-engine/internal/common/logger"
	"intent-engine/internal/engine/classifier"
	"intent-engine/internal/engine/conversation"
	"intent-engine/internal/engine/entities"
	"intent-engine/internal/engine/scoring"
	"intent-engine/internal/models"
)

type fakeClassifier struct {
	available bool
	result    *classifier.Result
	err       error
	panicOn   bool
	calls     []classifier.Request
}

func (f *fakeClassifier) Classify(_ context.Context, req classifier.Request) (*classifier.Result, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeClassifier) Available(context.Context) bool {
	if f.panicOn {
		panic("classifier probe exploded")
	}
	return f.available
}

type fakeDispatcher struct {
	result *models.HandlerResult
	err    error
	calls  []*ResolvedQuery
}

func (f *fakeDispatcher) Dispatch(_ context.Context, q *ResolvedQuery, _ conversation.Context) (*models.HandlerResult, error) {
	f.calls = append(f.calls, q)
	return f.result, f.err
}

type fakeLearning struct {
	recorded map[models.Intent][]string
	err      error
}

func (f *fakeLearning) Load(context.Context) ([]scoring.LearnedEntry, error) { return nil, nil }

func (f *fakeLearning) Record(_ context.Context, intent models.Intent, keywords []string) error {
	if f.recorded == nil {
		f.recorded = make(map[models.Intent][]string)
	}
	f.recorded[intent] = append(f.recorded[intent], keywords...)
	return f.err
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	log := logger.NewTestLogger(t)
	store := conversation.NewStore(time.Hour, 10, log)
	return New(scoring.New(nil), entities.New(), store, log, opts...)
}

// purchaseResult returns delayed DELAYED rows and onTime ON_TIME rows.
func purchaseResult(delayed, onTime int) *models.HandlerResult {
	rows := make([]models.Row, 0, delayed+onTime)
	for i := 0; i < delayed; i++ {
		rows = append(rows, models.Row{"order": fmt.Sprintf("D%03d", i), "status": "DELAYED", "total_value": float64(1000 + i)})
	}
	for i := 0; i < onTime; i++ {
		rows = append(rows, models.Row{"order": fmt.Sprintf("T%03d", i), "status": "ON_TIME", "total_value": float64(500 + i)})
	}
	return &models.HandlerResult{
		Rows:        rows,
		Columns:     []string{"order", "status", "total_value"},
		Description: "pending purchase orders",
	}
}

// seed puts a pending_purchases context for DONALDSON with cached rows in place.
func seed(t *testing.T, e *Engine, userID string, result *models.HandlerResult) {
	t.Helper()
	sess := e.Store().GetOrCreate(context.Background(), userID)
	params := models.Params{}
	params.Set(models.FieldBrand, "DONALDSON")
	sess.Update(models.IntentPendingPurchases, params, result, "pending orders from donaldson", "")
}
