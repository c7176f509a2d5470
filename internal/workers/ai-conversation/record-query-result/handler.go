// internal/workers/ai-conversation/record-query-result/handler.go
package recordqueryresult

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
	TaskType = "record-query-result"
)

var schema = validation.MustCompile(TaskType, inputSchema)

// Recorder writes a finished turn into the user's conversation context.
type Recorder interface {
	Record(ctx context.Context, userID, question string, rq *resolver.ResolvedQuery, result *models.HandlerResult)
}

type Handler struct {
	config   *Config
	recorder Recorder
	obs      *observability.Observability
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

type HandlerOptions struct {
	Config        *Config
	Recorder      Recorder
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
	if opts.Recorder == nil {
		return nil, fmt.Errorf("%s: recorder is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:   cfg,
		recorder: opts.Recorder,
		obs:      opts.Observability,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
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

// Execute stores the handler result for a dispatched query. Queries that were
// settled during resolution are already in the context and are skipped.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Query == nil {
		return nil, apperrors.NewInvalidInputError("resolvedQuery is required")
	}
	rq := input.Query
	output := &Output{Intent: rq.Intent.String()}

	if !rq.NeedsDispatch() {
		h.logger.Debug("query settled at resolution, nothing to record", map[string]interface{}{
			"userId":  input.UserID,
			"intent":  output.Intent,
			"outcome": rq.Outcome,
		})
		return output, nil
	}
	if input.Result == nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("result is required for dispatched intent %s", rq.Intent))
	}

	h.recorder.Record(ctx, input.UserID, input.Question, rq, input.Result)
	output.Recorded = true
	output.RowCount = len(input.Result.Rows)

	h.logger.Info("query result recorded", map[string]interface{}{
		"userId":   input.UserID,
		"intent":   output.Intent,
		"rowCount": output.RowCount,
	})
	return output, nil
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
