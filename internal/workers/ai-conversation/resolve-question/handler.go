// internal/workers/ai-conversation/resolve-question/handler.go
package resolvequestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "intent-engine/internal/common/errors"
	"intent-engine/internal/common/logger"
	"intent-engine/internal/common/metrics"
	"intent-engine/internal/common/observability"
	"intent-engine/internal/common/validation"
	"intent-engine/internal/engine/resolver"
	"intent-engine/internal/models"
)

const (
	TaskType = "resolve-question"
)

var schema = validation.MustCompile(TaskType, inputSchema)

// Engine is the part of resolver.Engine the worker drives.
type Engine interface {
	Resolve(ctx context.Context, question, userID string) (*resolver.ResolvedQuery, error)
	Settle(ctx context.Context, userID, question string, rq *resolver.ResolvedQuery) *models.HandlerResult
}

type Handler struct {
	config *Config
	engine Engine
	obs    *observability.Observability
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

type HandlerOptions struct {
	Config        *Config
	Engine        Engine
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = LoadConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("%s: engine is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config: cfg,
		engine: opts.Engine,
		obs:    opts.Observability,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

// Execute resolves the question. Answers that need no handler are recorded in
// the user's session here and returned in Result.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	rq, err := h.engine.Resolve(ctx, input.Question, input.UserID)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Intent:        rq.Intent.String(),
		Outcome:       string(rq.Outcome),
		Tier:          rq.Tier,
		NeedsDispatch: rq.NeedsDispatch(),
		RowCount:      rq.RowCount(),
		Query:         rq,
	}
	if !output.NeedsDispatch {
		output.Result = h.engine.Settle(ctx, input.UserID, input.Question, rq)
	}
	h.capRows(output)

	h.logger.Info("question resolved", map[string]interface{}{
		"userId":        input.UserID,
		"intent":        output.Intent,
		"outcome":       output.Outcome,
		"tier":          output.Tier,
		"needsDispatch": output.NeedsDispatch,
		"rowCount":      output.RowCount,
	})
	return output, nil
}

func (h *Handler) capRows(out *Output) {
	limit := h.config.MaxRows
	if limit <= 0 {
		return
	}
	if len(out.Query.Rows) > limit {
		q := *out.Query
		q.Rows = q.Rows[:limit]
		out.Query = &q
		out.Truncated = true
	}
	if out.Result != nil && len(out.Result.Rows) > limit {
		r := *out.Result
		r.Rows = r.Rows[:limit]
		out.Result = &r
		out.Truncated = true
	}
}

func parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	if err := schema.ValidateGo(variables); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("decode input: %v", err))
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
	h.errors.HandleJobError(ctx, client, job, err)
}
