package resolver

import (
	"context"
	"fmt"

	apperrors "intent-engine/internal/common/errors"
	"intent-engine/internal/common/metrics"
	"intent-engine/internal/engine/classifier"
	"intent-engine/internal/engine/conversation"
	"intent-engine/internal/engine/entities"
	"intent-engine/internal/engine/followup"
	"intent-engine/internal/engine/scoring"
	"intent-engine/internal/models"
)

// trivialCheck answers short confirmations from the cache and greetings or help
// requests without touching extraction.
func (e *Engine) trivialCheck(_ context.Context, d *decision) (*ResolvedQuery, error) {
	if followup.IsConfirmation(d.query, e.confirmationMaxTokens) && d.session.HasData() {
		d.params = d.snapshot.Params
		rq := d.result(models.IntentRegenerateLast, OutcomeDispatch, "confirmation")
		rq.Rows = d.session.Data()
		if d.viewMode == "" {
			rq.ViewMode = d.snapshot.ViewMode
		}
		return rq, nil
	}

	d.scores = e.scorer.ScoreQuery(d.query)
	d.best, d.bestScore = d.scores.Best()
	if !d.best.IsTrivial() {
		return nil, nil
	}
	// a greeting in front of a data request does not answer it
	rest, restScore := bestNonTrivial(d.scores)
	if e.scorer.Clears(d.best, d.bestScore) && (d.query.Len() <= e.confirmationMaxTokens || restScore == 0) {
		return d.result(d.best, OutcomeDispatch, "trivial intent"), nil
	}
	d.best, d.bestScore = rest, restScore
	return nil, nil
}

// bestNonTrivial is Scores.Best without greeting and help, with the same
// tie-break.
func bestNonTrivial(s scoring.Scores) (models.Intent, float64) {
	best, bestScore := models.IntentUnknown, 0.0
	for _, intent := range models.ScoredIntents {
		if intent.IsTrivial() {
			continue
		}
		if v := s[intent]; v > bestScore {
			best, bestScore = intent, v
		}
	}
	return best, bestScore
}

func (e *Engine) extract(d *decision) *entities.Extraction {
	if d.extraction == nil {
		x := e.extractor.ExtractDetailed(d.question, d.vocab)
		d.extraction = &x
		for _, dropped := range x.Dropped {
			e.logger.Debug("entity candidate dropped", map[string]interface{}{
				"field":  dropped.Field,
				"value":  dropped.Value,
				"reason": dropped.Reason,
			})
		}
	}
	return d.extraction
}

// followupCheck answers a follow-up directly from the cached rows when the
// question carries filter cues and names nothing new.
func (e *Engine) followupCheck(_ context.Context, d *decision) (*ResolvedQuery, error) {
	x := e.extract(d)
	if d.activeIntent() && followup.HasReferentialCue(d.query) {
		if brand, ok := dropOrderingBrand(x, d.query, d.vocab); ok {
			e.logger.Debug("brand candidate read as ordering key", map[string]interface{}{
				"value": brand,
			})
		}
	}
	strong := entities.HasStrongEntity(x.Params)
	d.followup = followup.IsFollowup(d.query, d.activeIntent(), strong)

	// a different data intent that clears its own threshold is a topic switch
	if d.followup && !followup.HasReferentialCue(d.query) && d.best.IsData() &&
		d.best != d.snapshot.Intent && e.scorer.Clears(d.best, d.bestScore) {
		d.followup = false
	}
	if !d.followup || !d.session.HasData() {
		return nil, nil
	}
	if newEntity(x.Params, d.snapshot.Params) {
		// a new brand or code means a fresh query, not a narrower view
		return nil, nil
	}

	fr, _ := e.parser.Detect(d.query.Text, d.query.Tokens)
	if !fr.Has(e.statusField, models.OpEquals) && !fr.Has(models.ColumnTotalValue, models.OpGreater) &&
		!fr.Has(models.ColumnTotalValue, models.OpLess) && fr.TopN == 0 {
		counts := d.session.CategoryCounts(e.statusField)
		if c, ok := followup.NumericContinuity(d.query.Tokens, counts, conversation.SortedCategories(counts)); ok {
			if c.Ambiguous() {
				amb := apperrors.NewExtractionAmbiguityError(e.statusField, c.Candidates)
				e.logger.Warn("ambiguous numeric continuity", map[string]interface{}{
					"number":    c.Number,
					"chosen":    c.Category,
					"errorCode": amb.Code,
					"details":   amb.Details,
				})
			}
			fr.Add(c.Clause(e.statusField))
		}
	}
	if fr.IsZero() {
		return nil, nil
	}

	d.params = d.snapshot.MergeParams(x.Params)
	d.filters = fr
	rows := followup.ApplyFilters(d.session.Data(), fr)

	outcome := OutcomeDerived
	if len(rows) == 0 {
		outcome = OutcomeNoRowsMatched
	}
	rq := d.result(d.snapshot.Intent, outcome, "filtered cached rows")
	rq.Rows = rows
	if rq.ViewMode == "" {
		rq.ViewMode = d.snapshot.ViewMode
	}
	return rq, nil
}

// extraction settles params and local filters. It never answers.
func (e *Engine) extraction(_ context.Context, d *decision) (*ResolvedQuery, error) {
	x := e.extract(d)
	if d.followup {
		d.params = d.snapshot.MergeParams(x.Params)
	} else {
		d.params = x.Params.Clone()
	}
	d.filters, _ = e.parser.Detect(d.query.Text, d.query.Tokens)
	return nil, nil
}

// confidenceDecision dispatches locally when the scores or the entities are
// decisive.
func (e *Engine) confidenceDecision(ctx context.Context, d *decision) (*ResolvedQuery, error) {
	if e.scorer.Clears(d.best, d.bestScore) && !d.best.IsTrivial() {
		rq := d.result(d.best, OutcomeDispatch, "score cleared threshold")
		if followup.HasComplexModifiers(d.query.Text) {
			e.refineFilters(ctx, d, rq)
		}
		return rq, nil
	}

	// a free-text search score competes with the entity and goes to the classifier
	if x := e.extract(d); entities.HasStrongEntity(x.Params) && d.scores[models.IntentProductSearch] == 0 {
		if intent, ok := entityIntent(x.Params); ok {
			return d.result(intent, OutcomeDispatch, "entity precedence"), nil
		}
	}
	return nil, nil
}

// refineFilters asks the classifier for filter, sort and column parameters only.
// Any failure leaves rq as the local decision.
func (e *Engine) refineFilters(ctx context.Context, d *decision, rq *ResolvedQuery) {
	if e.classifier == nil || !e.classifier.Available(ctx) {
		return
	}
	res, err := e.classifier.Classify(ctx, classifier.Request{
		Question: d.question,
		Scope:    classifier.ScopeFilters,
		Intent:   rq.Intent,
	})
	e.countClassifierCall(classifier.ScopeFilters, err)
	if err != nil {
		e.logger.Warn("scoped classification failed, keeping local filters", map[string]interface{}{
			"errorCode": apperrors.CodeOf(err),
			"error":     err.Error(),
		})
		return
	}

	rq.Filters = rq.Filters.Merge(res.Filters)
	rq.Columns = res.Columns
	params, adopted := adoptVocabularyParams(rq.Params, res.Params, d.vocab)
	rq.Params = params
	if len(adopted) > 0 {
		e.logger.Debug("adopted classifier vocabulary values", map[string]interface{}{
			"fields": fmt.Sprint(adopted),
		})
	}
}

// classifierEscalation asks for a full classification seeded with the session
// summary and adopts a usable answer wholesale.
func (e *Engine) classifierEscalation(ctx context.Context, d *decision) (*ResolvedQuery, error) {
	if e.classifier == nil {
		return nil, nil
	}
	if !e.classifier.Available(ctx) {
		e.countClassifierCall(classifier.ScopeFull, classifier.ErrUnavailable)
		return nil, nil
	}

	res, err := e.classifier.Classify(ctx, classifier.Request{
		Question: d.question,
		Summary:  d.session.Summarize(),
		Scope:    classifier.ScopeFull,
	})
	e.countClassifierCall(classifier.ScopeFull, err)
	if err != nil {
		return nil, err
	}
	if !res.Usable() {
		return nil, nil
	}

	if res.Intent == models.IntentRegenerateLast {
		if !d.session.HasData() {
			return nil, nil
		}
		d.params = d.snapshot.Params
		rq := d.result(models.IntentRegenerateLast, OutcomeDispatch, "classifier")
		rq.Rows = d.session.Data()
		return rq, nil
	}

	d.params = res.Params
	rq := d.result(res.Intent, OutcomeDispatch, "classifier")
	rq.Filters = res.Filters.Merge(d.filters)
	rq.Columns = res.Columns

	e.learn(ctx, d, res.Intent)
	return rq, nil
}

func (e *Engine) learn(ctx context.Context, d *decision, intent models.Intent) {
	if e.learning == nil || !intent.IsData() {
		return
	}
	keywords := e.scorer.Candidates(intent, d.query.Tokens)
	if len(keywords) == 0 {
		return
	}
	if err := e.learning.Record(ctx, intent, keywords); err != nil {
		e.logger.Warn("learned keyword write failed", map[string]interface{}{
			"intent": intent,
			"error":  err.Error(),
		})
	}
}

// fallback is the last tier and always answers.
func (e *Engine) fallback(_ context.Context, d *decision) (*ResolvedQuery, error) {
	if d.followup && d.activeIntent() {
		return d.result(d.snapshot.Intent, OutcomeDispatch, "follow-up keeps active intent"), nil
	}
	if entities.HasStrongEntity(d.params) {
		return d.result(models.IntentPendingPurchases, OutcomeDispatch, "fallback to listing"), nil
	}
	if d.scores[models.IntentKnowledgeLookup] > 0 {
		return d.result(models.IntentKnowledgeLookup, OutcomeDispatch, "fallback to knowledge lookup"), nil
	}
	nm := apperrors.NewNoMatchingIntentError(d.question)
	e.logger.Info("question not recognized", map[string]interface{}{
		"errorCode": nm.Code,
		"userId":    d.userID,
	})
	return d.result(models.IntentUnknown, OutcomeUnrecognized, nm.Message), nil
}

func (e *Engine) countClassifierCall(scope classifier.Scope, err error) {
	result := "ok"
	if err != nil {
		result = string(apperrors.CodeOf(err))
	}
	metrics.ClassifierCalls.WithLabelValues(string(scope), result).Inc()
}
