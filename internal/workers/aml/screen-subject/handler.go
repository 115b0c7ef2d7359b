package screensubject

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"letting-compliance/internal/aml"
	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/common/metrics"
	"letting-compliance/internal/models"
)

const (
	TaskType = "aml-screen-subject"
)

type Screener interface {
	RunScreening(ctx context.Context, in aml.RunScreeningInput) (models.AMLScreening, error)
}

type Handler struct {
	config       *Config
	service      Screener
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, service Screener, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
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
	if err := json.Unmarshal([]byte(job.Variables), &vars); err != nil {
		return nil, apperrors.NewInputParsingError(err)
	}
	scoped := map[string]interface{}{}
	for _, k := range []string{"userId", "screeningId"} {
		if v, ok := vars[k]; ok {
			scoped[k] = v
		}
	}

	if result := validateInput(scoped); !result.Valid {
		return nil, apperrors.NewValidationError("Invalid job variables", strings.Join(result.GetErrorMessages(), "; "))
	}

	input := &Input{}
	input.UserID, _ = scoped["userId"].(string)
	input.ScreeningID, _ = scoped["screeningId"].(string)
	return input, nil
}

// Execute completes the job even when the provider failed. The screening is
// then FAILED and the process model routes on screeningStatus.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	screening, err := h.service.RunScreening(ctx, aml.RunScreeningInput{
		UserID:      input.UserID,
		ScreeningID: input.ScreeningID,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		ScreeningID:   screening.ID,
		Status:        screening.Status,
		RiskScore:     screening.RiskScore,
		RiskLevel:     screening.RiskLevel,
		EDDRequired:   screening.EDDRequired,
		ReviewStatus:  screening.ReviewStatus,
		MatchCount:    len(screening.Matches),
		FailureReason: screening.FailureReason,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
