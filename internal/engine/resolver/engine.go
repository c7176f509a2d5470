// Package resolver turns a question into a ResolvedQuery by running an ordered
// list of tiers, each either answering or passing to the next.
package resolver

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	apperrors "intent-engine/internal/common/errors"
	"intent-engine/internal/common/logger"
	"intent-engine/internal/common/metrics"
	"intent-engine/internal/engine/classifier"
	"intent-engine/internal/engine/conversation"
	"intent-engine/internal/engine/entities"
	"intent-engine/internal/engine/followup"
	"intent-engine/internal/engine/normalize"
	"intent-engine/internal/engine/scoring"
	"intent-engine/internal/models"
)

const defaultConfirmationMaxTokens = 3

// VocabularySource supplies the current brand/branch/buyer snapshot.
type VocabularySource interface {
	Vocabulary() entities.Vocabulary
}

// StaticVocabulary is a fixed VocabularySource.
type StaticVocabulary entities.Vocabulary

func (v StaticVocabulary) Vocabulary() entities.Vocabulary { return entities.Vocabulary(v) }

// Dispatcher runs the handler for a data intent.
type Dispatcher interface {
	Dispatch(ctx context.Context, q *ResolvedQuery, c conversation.Context) (*models.HandlerResult, error)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, q *ResolvedQuery, c conversation.Context) (*models.HandlerResult, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, q *ResolvedQuery, c conversation.Context) (*models.HandlerResult, error) {
	return f(ctx, q, c)
}

type tierFunc func(ctx context.Context, d *decision) (*ResolvedQuery, error)

type tier struct {
	name string
	run  tierFunc
}

type Engine struct {
	scorer     *scoring.Scorer
	extractor  *entities.Extractor
	store      *conversation.Store
	parser     *followup.Parser
	classifier classifier.Classifier
	dispatcher Dispatcher
	learning   scoring.LearnedRepository
	vocabulary VocabularySource

	statusField           string
	confirmationMaxTokens int
	logger                logger.Logger
	tiers                 []tier
}

type Option func(*Engine)

// WithClassifier enables the external classifier tiers. A nil classifier is ignored.
func WithClassifier(c classifier.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithLearning records keywords from adopted classifier decisions.
func WithLearning(repo scoring.LearnedRepository) Option {
	return func(e *Engine) { e.learning = repo }
}

func WithVocabulary(v VocabularySource) Option {
	return func(e *Engine) { e.vocabulary = v }
}

func WithStatusField(field string) Option {
	return func(e *Engine) {
		if field != "" {
			e.statusField = field
		}
	}
}

func WithConfirmationMaxTokens(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.confirmationMaxTokens = n
		}
	}
}

func New(scorer *scoring.Scorer, extractor *entities.Extractor, store *conversation.Store, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		scorer:                scorer,
		extractor:             extractor,
		store:                 store,
		vocabulary:            StaticVocabulary{},
		statusField:           models.ColumnStatus,
		confirmationMaxTokens: defaultConfirmationMaxTokens,
		logger:                logger.ForComponent(log, "resolver"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.parser = followup.NewParser(e.statusField)
	e.tiers = []tier{
		{TierTrivial, e.trivialCheck},
		{TierFollowup, e.followupCheck},
		{TierExtraction, e.extraction},
		{TierConfidence, e.confidenceDecision},
		{TierClassifier, e.classifierEscalation},
		{TierFallback, e.fallback},
	}
	return e
}

// Store exposes the context store the engine reads and writes.
func (e *Engine) Store() *conversation.Store { return e.store }

// Resolve runs the tier pipeline for question. Tier failures never surface here;
// the only errors are invalid input.
func (e *Engine) Resolve(ctx context.Context, question, userID string) (*ResolvedQuery, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.NewInvalidInputError("question is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}

	start := time.Now()
	sess := e.store.GetOrCreate(ctx, userID)
	q := normalize.NewQuery(question)
	d := &decision{
		question: question,
		userID:   userID,
		query:    q,
		session:  sess,
		snapshot: sess.Context(),
		vocab:    e.vocabulary.Vocabulary(),
		viewMode: detectViewMode(q),
	}

	for _, t := range e.tiers {
		rq := e.runTier(ctx, t, d)
		if rq == nil {
			continue
		}
		rq.Tier = t.name
		rq.Trace = d.trace
		e.observe(rq, start)
		return rq, nil
	}

	// the fallback tier always answers unless it panicked
	rq := d.result(models.IntentUnknown, OutcomeUnrecognized, "pipeline exhausted")
	rq.Tier = TierFallback
	rq.Trace = d.trace
	e.observe(rq, start)
	return rq, nil
}

func (e *Engine) runTier(ctx context.Context, t tier, d *decision) (rq *ResolvedQuery) {
	d.trace = append(d.trace, t.name)
	defer func() {
		if r := recover(); r != nil {
			metrics.TierFailures.WithLabelValues(t.name, string(apperrors.ErrCodeInternal)).Inc()
			e.logger.Error("tier panicked", map[string]interface{}{
				"tier":   t.name,
				"userId": d.userID,
				"panic":  fmt.Sprint(r),
				"stack":  string(debug.Stack()),
			})
			rq = nil
		}
	}()

	res, err := t.run(ctx, d)
	if err != nil {
		code := apperrors.CodeOf(err)
		metrics.TierFailures.WithLabelValues(t.name, string(code)).Inc()
		e.logger.Warn("tier failed, passing to next", map[string]interface{}{
			"tier":      t.name,
			"userId":    d.userID,
			"errorCode": code,
			"error":     err.Error(),
		})
		return nil
	}
	if res == nil {
		e.logger.Debug("tier passed", map[string]interface{}{
			"tier":   t.name,
			"userId": d.userID,
		})
	}
	return res
}

func (e *Engine) observe(rq *ResolvedQuery, start time.Time) {
	metrics.Resolutions.WithLabelValues(rq.Tier, string(rq.Outcome)).Inc()
	metrics.ResolveDuration.WithLabelValues(rq.Tier).Observe(time.Since(start).Seconds())
	e.logger.Info("question resolved", map[string]interface{}{
		"intent":   rq.Intent,
		"outcome":  rq.Outcome,
		"tier":     rq.Tier,
		"params":   rq.Params.String(),
		"clauses":  len(rq.Filters.Clauses),
		"rows":     len(rq.Rows),
		"viewMode": rq.ViewMode,
	})
}
