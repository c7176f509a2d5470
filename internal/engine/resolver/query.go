package resolver

import (
	"intent-engine/internal/models"
)

// Outcome tells the caller what to do with a ResolvedQuery.
type Outcome string

const (
	// OutcomeDispatch means the intent should be handed to its handler.
	OutcomeDispatch Outcome = "dispatch"
	// OutcomeDerived means Rows were computed from the cached result.
	OutcomeDerived Outcome = "derived"
	// OutcomeNoRowsMatched is a derived result with zero rows.
	OutcomeNoRowsMatched Outcome = "no_rows_matched"
	// OutcomeUnrecognized is the terminal "question not understood" answer.
	OutcomeUnrecognized Outcome = "unrecognized"
)

// Tier names, in pipeline order.
const (
	TierTrivial    = "trivial_check"
	TierFollowup   = "followup_check"
	TierExtraction = "extraction"
	TierConfidence = "confidence_decision"
	TierClassifier = "full_classifier_escalation"
	TierFallback   = "fallback"
)

// View modes a question can ask for.
const (
	ViewSummary = "summary"
	ViewDetail  = "detail"
)

// ResolvedQuery is the engine's answer for one question.
type ResolvedQuery struct {
	Intent   models.Intent        `json:"intent"`
	Params   models.Params        `json:"params"`
	Filters  models.FilterRequest `json:"filters"`
	ViewMode string               `json:"viewMode,omitempty"`
	Columns  []string             `json:"columns,omitempty"`
	Outcome  Outcome              `json:"outcome"`
	Tier     string               `json:"tier"`
	Reason   string               `json:"reason,omitempty"`
	Rows     []models.Row         `json:"rows,omitempty"`
	Trace    []string             `json:"trace,omitempty"`
}

// NeedsDispatch reports whether a data handler has to run for this query.
func (q *ResolvedQuery) NeedsDispatch() bool {
	return q.Outcome == OutcomeDispatch && q.Intent.IsData()
}

// RowCount is the number of rows carried by a derived or regenerated result.
func (q *ResolvedQuery) RowCount() int { return len(q.Rows) }
