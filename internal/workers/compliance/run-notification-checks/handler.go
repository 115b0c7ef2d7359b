package runnotificationchecks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/common/metrics"
	"letting-compliance/internal/notification"
)

const (
	TaskType = "run-notification-checks"
)

type Checker interface {
	RunNotificationChecksAt(ctx context.Context, now time.Time) notification.Result
}

type Handler struct {
	config       *Config
	checker      Checker
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, checker Checker, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		checker:      checker,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	vars := map[string]interface{}{}
	if job.Variables != "" {
		if err := json.Unmarshal([]byte(job.Variables), &vars); err != nil {
			return nil, apperrors.NewInputParsingError(err)
		}
	}
	// process variables carry more than this job reads
	scoped := map[string]interface{}{}
	if v, ok := vars["asOf"]; ok {
		scoped["asOf"] = v
	}

	if result := validateInput(scoped); !result.Valid {
		return nil, apperrors.NewValidationError("Invalid job variables", strings.Join(result.GetErrorMessages(), "; "))
	}

	input := &Input{}
	if s, ok := scoped["asOf"].(string); ok {
		input.AsOf = s
	}
	return input, nil
}

// Execute runs the sweeps. A run where every sweep failed is a retryable
// job failure; partial failures still complete the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	now := h.now()
	if input != nil && input.AsOf != "" {
		t, err := time.Parse(time.RFC3339, input.AsOf)
		if err != nil {
			return nil, apperrors.NewValidationError("asOf must be an RFC 3339 timestamp", err.Error())
		}
		now = t
	}

	result := h.checker.RunNotificationChecksAt(ctx, now)
	if !result.Success {
		return nil, apperrors.NewQueryExecutionFailedError("notification_checks",
			fmt.Errorf("all sweeps failed: %s", strings.Join(result.FailedCategories, ", ")))
	}

	h.logger.Info("notification checks complete", map[string]interface{}{
		"totalNotifications": result.TotalNotifications,
		"failedCategories":   result.FailedCategories,
	})

	return &Output{
		Success:            result.Success,
		Timestamp:          result.Timestamp.Format(time.RFC3339),
		TotalNotifications: result.TotalNotifications,
		Details:            result.Details,
		FailedCategories:   result.FailedCategories,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
