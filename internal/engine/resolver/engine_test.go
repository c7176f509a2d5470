package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "intent-engine/internal/common/errors"
	"intent-engine/internal/engine/classifier"
	"intent-engine/internal/engine/entities"
	"intent-engine/internal/models"
)

func brandOf(t *testing.T, rq *ResolvedQuery) string {
	t.Helper()
	b, _ := rq.Params.Get(models.FieldBrand)
	return b
}

func TestResolve_LateOrdersFromBrand(t *testing.T) {
	e := newTestEngine(t)

	rq, err := e.Resolve(context.Background(), "late orders from Donaldson", "u1")
	require.NoError(t, err)

	assert.Equal(t, models.IntentPendingPurchases, rq.Intent)
	assert.Equal(t, OutcomeDispatch, rq.Outcome)
	assert.Equal(t, TierConfidence, rq.Tier)
	assert.Equal(t, "DONALDSON", brandOf(t, rq))
	status, ok := rq.Filters.Equals("status")
	require.True(t, ok)
	assert.Equal(t, models.StatusDelayed, status)
}

func TestResolve_FollowupFiltersCachedRows(t *testing.T) {
	e := newTestEngine(t)
	seed(t, e, "u1", purchaseResult(41, 75))

	rq, err := e.Resolve(context.Background(), "give me those 41 delayed ones", "u1")
	require.NoError(t, err)

	assert.Equal(t, TierFollowup, rq.Tier)
	assert.Equal(t, OutcomeDerived, rq.Outcome)
	assert.Equal(t, models.IntentPendingPurchases, rq.Intent)
	status, _ := rq.Filters.Equals("status")
	assert.Equal(t, models.StatusDelayed, status)
	assert.Equal(t, "DONALDSON", brandOf(t, rq))
	assert.Len(t, rq.Rows, 41)

	sess, _ := e.Store().Lookup("u1")
	assert.Len(t, sess.Data(), 116, "cache must stay intact")
}

func TestResolve_GreetingShortCircuits(t *testing.T) {
	fc := &fakeClassifier{available: true}
	e := newTestEngine(t, WithClassifier(fc))

	rq, err := e.Resolve(context.Background(), "hi", "u1")
	require.NoError(t, err)

	assert.Equal(t, models.IntentGreeting, rq.Intent)
	assert.Equal(t, TierTrivial, rq.Tier)
	assert.Equal(t, []string{TierTrivial}, rq.Trace)
	assert.True(t, rq.Params.IsEmpty())
	assert.Empty(t, fc.calls)
}

func TestResolve_ConfirmationRegeneratesLast(t *testing.T) {
	e := newTestEngine(t)
	seed(t, e, "u1", purchaseResult(2, 3))

	rq, err := e.Resolve(context.Background(), "sim, pode", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentRegenerateLast, rq.Intent)
	assert.Equal(t, TierTrivial, rq.Tier)
	assert.Len(t, rq.Rows, 5)
	assert.Equal(t, "DONALDSON", brandOf(t, rq))

	// without cached data a confirmation means nothing
	rq, err = e.Resolve(context.Background(), "yes", "u2")
	require.NoError(t, err)
	assert.Equal(t, models.IntentUnknown, rq.Intent)
	assert.Equal(t, OutcomeUnrecognized, rq.Outcome)
}

func TestResolve_NoRowsMatched(t *testing.T) {
	e := newTestEngine(t)
	seed(t, e, "u1", purchaseResult(3, 3))

	rq, err := e.Resolve(context.Background(), "only the partial ones", "u1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoRowsMatched, rq.Outcome)
	assert.NotNil(t, rq.Rows)
	assert.Empty(t, rq.Rows)
}

func TestResolve_NumericContinuity(t *testing.T) {
	e := newTestEngine(t)
	seed(t, e, "u1", purchaseResult(41, 75))

	rq, err := e.Resolve(context.Background(), "show me those 75", "u1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDerived, rq.Outcome)
	status, _ := rq.Filters.Equals("status")
	assert.Equal(t, models.StatusOnTime, status)
	assert.Len(t, rq.Rows, 75)
}

func TestResolve_FollowupWithNewEntityRequeries(t *testing.T) {
	e := newTestEngine(t)
	seed(t, e, "u1", purchaseResult(41, 75))

	rq, err := e.Resolve(context.Background(), "and the late ones from Tecfil", "u1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDispatch, rq.Outcome)
	assert.Equal(t, models.IntentPendingPurchases, rq.Intent)
	assert.Equal(t, "TECFIL", brandOf(t, rq))
	assert.Nil(t, rq.Rows)
}

func TestResolve_TopicSwitchDoesNotInherit(t *testing.T) {
	e := newTestEngine(t)
	seed(t, e, "u1", purchaseResult(1, 1))

	rq, err := e.Resolve(context.Background(), "stock levels", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStock, rq.Intent)
	assert.False(t, rq.Params.Has(models.FieldBrand))
}

func TestResolve_FollowupKeepsActiveIntent(t *testing.T) {
	e := newTestEngine(t)
	sess := e.Store().GetOrCreate(context.Background(), "u1")
	params := models.Params{}
	params.Set(models.FieldBrand, "TECFIL")
	sess.Update(models.IntentStock, params, nil, "estoque tecfil", "")

	rq, err := e.Resolve(context.Background(), "and yesterday?", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStock, rq.Intent)
	assert.Equal(t, TierFallback, rq.Tier)
	assert.Equal(t, "TECFIL", brandOf(t, rq))
	period, _ := rq.Params.Get(models.FieldPeriod)
	assert.Equal(t, "yesterday", period)
}

func TestResolve_EntityPrecedence(t *testing.T) {
	fc := &fakeClassifier{available: true}
	e := newTestEngine(t, WithClassifier(fc))

	rq, err := e.Resolve(context.Background(), "PSL123", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentProductSearch, rq.Intent)
	assert.Equal(t, TierConfidence, rq.Tier)
	assert.Empty(t, fc.calls)
}

func TestResolve_ClassifierEscalation(t *testing.T) {
	params := models.Params{}
	params.Set(models.FieldBrand, "MANN")
	fc := &fakeClassifier{available: true, result: &classifier.Result{
		Intent:  models.IntentStock,
		Params:  params,
		Columns: []string{"warehouse"},
	}}
	learning := &fakeLearning{}
	e := newTestEngine(t, WithClassifier(fc), WithLearning(learning))
	seed(t, e, "u1", purchaseResult(1, 1))

	rq, err := e.Resolve(context.Background(), "xyzzy plugh", "u1")
	require.NoError(t, err)

	assert.Equal(t, TierClassifier, rq.Tier)
	assert.Equal(t, models.IntentStock, rq.Intent)
	assert.Equal(t, "MANN", brandOf(t, rq))
	assert.Equal(t, []string{"warehouse"}, rq.Columns)

	require.Len(t, fc.calls, 1)
	assert.Equal(t, classifier.ScopeFull, fc.calls[0].Scope)
	assert.Contains(t, fc.calls[0].Summary, "last_tool: pending_purchases")
	assert.Equal(t, []string{"xyzzy", "plugh"}, learning.recorded[models.IntentStock])
}

func TestResolve_ClassifierFailureDegrades(t *testing.T) {
	tests := []struct {
		name string
		fc   *fakeClassifier
	}{
		{"timeout", &fakeClassifier{available: true, err: classifier.ErrTimeout}},
		{"malformed", &fakeClassifier{available: true, err: classifier.ErrMalformed}},
		{"unavailable", &fakeClassifier{available: false}},
		{"unknown intent", &fakeClassifier{available: true, result: &classifier.Result{Intent: models.IntentUnknown}}},
		{"panics", &fakeClassifier{panicOn: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, WithClassifier(tt.fc))

			rq, err := e.Resolve(context.Background(), "xyzzy plugh", "u1")
			require.NoError(t, err)
			assert.Equal(t, OutcomeUnrecognized, rq.Outcome)
			assert.Equal(t, TierFallback, rq.Tier)
			assert.Contains(t, rq.Trace, TierClassifier)
		})
	}
}

func TestResolve_FallbackKnowledgeLookup(t *testing.T) {
	e := newTestEngine(t)

	rq, err := e.Resolve(context.Background(), "what is a filter", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentKnowledgeLookup, rq.Intent)
	assert.Equal(t, TierFallback, rq.Tier)
}

func TestResolve_ComplexModifiersScopedCall(t *testing.T) {
	fc := &fakeClassifier{available: true, result: &classifier.Result{
		Filters: models.FilterRequest{
			Clauses:   []models.Clause{{Field: "total_value", Op: models.OpGreater, Value: 1.0}},
			SortField: "total_value",
			SortDesc:  true,
		},
		Columns: []string{"buyer"},
	}}
	e := newTestEngine(t, WithClassifier(fc))

	rq, err := e.Resolve(context.Background(), "late orders from Donaldson above 50 thousand", "u1")
	require.NoError(t, err)

	assert.Equal(t, models.IntentPendingPurchases, rq.Intent)
	require.Len(t, fc.calls, 1)
	assert.Equal(t, classifier.ScopeFilters, fc.calls[0].Scope)
	assert.Equal(t, models.IntentPendingPurchases, fc.calls[0].Intent)

	gt, ok := rq.Filters.Find("total_value", models.OpGreater)
	require.True(t, ok)
	assert.Equal(t, 50000.0, gt.Value, "local threshold wins")
	assert.True(t, rq.Filters.Has("status", models.OpEquals))
	assert.Equal(t, "total_value", rq.Filters.SortField)
	assert.Equal(t, []string{"buyer"}, rq.Columns)
}

func TestResolve_ScopedCallFailureKeepsLocal(t *testing.T) {
	fc := &fakeClassifier{available: true, err: classifier.ErrUnavailable}
	e := newTestEngine(t, WithClassifier(fc))

	rq, err := e.Resolve(context.Background(), "late orders above 50 thousand", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentPendingPurchases, rq.Intent)
	assert.Equal(t, OutcomeDispatch, rq.Outcome)
	assert.True(t, rq.Filters.Has("total_value", models.OpGreater))
}

func TestResolve_ViewMode(t *testing.T) {
	e := newTestEngine(t)
	rq, err := e.Resolve(context.Background(), "resumo das compras atrasadas", "u1")
	require.NoError(t, err)
	assert.Equal(t, ViewSummary, rq.ViewMode)
}

func TestResolve_InvalidInput(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Resolve(context.Background(), "   ", "u1")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = e.Resolve(context.Background(), "hi", "")
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
}

func TestAdoptVocabularyParams(t *testing.T) {
	vocab := entities.Vocabulary{Brands: []string{"Donaldson", "Tecfil"}, Buyers: []string{"Maria Souza"}}

	local := models.Params{}
	local.Set(models.FieldBrand, "DONALDSOM")
	local.Set(models.FieldBuyer, "Maria Souza")
	remote := models.Params{}
	remote.Set(models.FieldBrand, "donaldson")
	remote.Set(models.FieldBuyer, "Maria Silva")
	remote.Set(models.FieldBranch, "XYZ")

	out, adopted := adoptVocabularyParams(local, remote, vocab)
	brand, _ := out.Get(models.FieldBrand)
	assert.Equal(t, "Donaldson", brand)
	buyer, _ := out.Get(models.FieldBuyer)
	assert.Equal(t, "Maria Souza", buyer)
	assert.False(t, out.Has(models.FieldBranch))
	assert.Equal(t, []models.Field{models.FieldBrand}, adopted)
}

func TestResolve_GreetingInFrontOfDataRequest(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{name: "english", question: "hi, show me orders from Donaldson"},
		{name: "portuguese", question: "oi, pedidos da Donaldson"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)

			rq, err := e.Resolve(context.Background(), tt.question, "u1")
			require.NoError(t, err)
			assert.Equal(t, models.IntentPendingPurchases, rq.Intent)
			assert.Equal(t, OutcomeDispatch, rq.Outcome)
			assert.NotEqual(t, TierTrivial, rq.Tier)
			assert.Equal(t, "DONALDSON", brandOf(t, rq))
		})
	}
}

func TestResolve_LongGreetingWithoutDataStaysTrivial(t *testing.T) {
	e := newTestEngine(t)

	rq, err := e.Resolve(context.Background(), "what can you do", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentHelp, rq.Intent)
	assert.Equal(t, TierTrivial, rq.Tier)
}

func TestResolve_FollowupOrderingKeyIsNotABrand(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{name: "column word", question: "those delayed ones by date"},
		{name: "unknown word after by", question: "those delayed ones by region"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			seed(t, e, "u1", purchaseResult(41, 75))

			rq, err := e.Resolve(context.Background(), tt.question, "u1")
			require.NoError(t, err)
			assert.Equal(t, TierFollowup, rq.Tier)
			assert.Equal(t, OutcomeDerived, rq.Outcome)
			assert.Equal(t, "DONALDSON", brandOf(t, rq))
			assert.Len(t, rq.Rows, 41)
		})
	}
}

func TestResolve_FollowupByKnownBrandRequeries(t *testing.T) {
	e := newTestEngine(t, WithVocabulary(StaticVocabulary{Brands: []string{"DONALDSON", "TECFIL"}}))
	seed(t, e, "u1", purchaseResult(41, 75))

	rq, err := e.Resolve(context.Background(), "those delayed ones by Tecfil", "u1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDispatch, rq.Outcome)
	assert.Equal(t, "TECFIL", brandOf(t, rq))
}

func TestResolve_SearchScoreCompetesWithEntity(t *testing.T) {
	vocab := WithVocabulary(StaticVocabulary{Brands: []string{"DONALDSON"}})
	params := models.Params{}
	params.Set(models.FieldBrand, "DONALDSON")
	fc := &fakeClassifier{available: true, result: &classifier.Result{
		Intent: models.IntentProductSearch,
		Params: params,
	}}
	e := newTestEngine(t, vocab, WithClassifier(fc))

	rq, err := e.Resolve(context.Background(), "search Donaldson", "u1")
	require.NoError(t, err)
	require.Len(t, fc.calls, 1)
	assert.Equal(t, classifier.ScopeFull, fc.calls[0].Scope)
	assert.Equal(t, TierClassifier, rq.Tier)
	assert.Equal(t, models.IntentProductSearch, rq.Intent)

	// without a classifier the fallback still lists the brand
	e = newTestEngine(t, vocab)
	rq, err = e.Resolve(context.Background(), "search Donaldson", "u1")
	require.NoError(t, err)
	assert.Equal(t, TierFallback, rq.Tier)
	assert.Equal(t, models.IntentPendingPurchases, rq.Intent)
	assert.Equal(t, "DONALDSON", brandOf(t, rq))
}

func TestResolve_DerivedRowsDoNotAliasCache(t *testing.T) {
	e := newTestEngine(t)
	seed(t, e, "u1", purchaseResult(41, 75))

	rq, err := e.Resolve(context.Background(), "give me those 41 delayed ones", "u1")
	require.NoError(t, err)
	require.NotEmpty(t, rq.Rows)
	rq.Rows[0]["status"] = "EDITED"

	sess, _ := e.Store().Lookup("u1")
	for _, row := range sess.Data() {
		assert.NotEqual(t, "EDITED", row["status"])
	}
}
