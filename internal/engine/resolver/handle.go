package resolver

import (
	"context"
	"fmt"

	apperrors "intent-engine/internal/common/errors"
	"intent-engine/internal/engine/conversation"
	"intent-engine/internal/models"
)

// Response pairs a resolution with the result shown to the user.
type Response struct {
	Query  *ResolvedQuery        `json:"query"`
	Result *models.HandlerResult `json:"result,omitempty"`
}

// Handle resolves question, dispatches data intents and writes the outcome back
// into the context store.
func (e *Engine) Handle(ctx context.Context, question, userID string) (*Response, error) {
	rq, err := e.Resolve(ctx, question, userID)
	if err != nil {
		return nil, err
	}
	if !rq.NeedsDispatch() {
		return &Response{Query: rq, Result: e.Settle(ctx, userID, question, rq)}, nil
	}

	if e.dispatcher == nil {
		return &Response{Query: rq}, apperrors.NewDispatchFailedError(rq.Intent.String(), fmt.Errorf("no dispatcher configured"))
	}
	sess := e.store.GetOrCreate(ctx, userID)
	result, err := e.dispatcher.Dispatch(ctx, rq, sess.Context())
	if err != nil {
		e.logger.Error("dispatch failed", map[string]interface{}{
			"intent": rq.Intent,
			"userId": userID,
			"error":  err.Error(),
		})
		return &Response{Query: rq}, apperrors.NewDispatchFailedError(rq.Intent.String(), err)
	}

	e.Record(ctx, userID, question, rq, result)
	return &Response{Query: rq, Result: result}, nil
}

// Settle records a turn that needs no handler and returns the result shown for
// it, nil for greetings and other answers that carry no rows. Queries that need
// dispatch are left to the caller, which records them once the handler returns.
func (e *Engine) Settle(ctx context.Context, userID, question string, rq *ResolvedQuery) *models.HandlerResult {
	if rq == nil || rq.NeedsDispatch() {
		return nil
	}
	var result *models.HandlerResult
	if rq.Outcome == OutcomeDerived || rq.Outcome == OutcomeNoRowsMatched || rq.Intent == models.IntentRegenerateLast {
		result = derivedResult(e.store.GetOrCreate(ctx, userID), rq)
	}
	e.Record(ctx, userID, question, rq, result)
	return result
}

func derivedResult(sess *conversation.Session, rq *ResolvedQuery) *models.HandlerResult {
	last, _ := sess.LastResult()
	desc := last.Description
	if rq.Outcome != OutcomeDispatch {
		desc = fmt.Sprintf("%d of %d rows", len(rq.Rows), len(last.Rows))
	}
	return &models.HandlerResult{
		Rows:         rq.Rows,
		Columns:      last.Columns,
		Description:  desc,
		ExtraColumns: last.ExtraColumns,
	}
}

// Record writes the outcome of a turn into the user's session. Only a dispatched
// data intent replaces the cached result; derived answers, greetings and
// unrecognized questions leave it in place so later follow-ups still see the
// full set.
func (e *Engine) Record(ctx context.Context, userID, question string, rq *ResolvedQuery, result *models.HandlerResult) {
	if rq == nil {
		return
	}
	sess := e.store.GetOrCreate(ctx, userID)
	sess.AddTurn(conversation.RoleUser, question, "", rq.Params)

	reply := string(rq.Outcome)
	if result != nil {
		reply = result.Description
	}

	switch {
	case rq.NeedsDispatch() && result != nil:
		sess.Update(rq.Intent, rq.Params, result, question, rq.ViewMode)
		sess.MergeExtraColumns(rq.Columns)
	default:
		sess.Touch()
	}
	sess.AddTurn(conversation.RoleAssistant, reply, rq.Intent.String(), rq.Params)

	e.store.Save(ctx, sess)
}
