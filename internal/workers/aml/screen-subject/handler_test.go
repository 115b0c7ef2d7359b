package screensubject

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"letting-compliance/internal/aml"
	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) RunScreening(ctx context.Context, in aml.RunScreeningInput) (models.AMLScreening, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.AMLScreening), args.Error(1)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "tenant-onboarding",
		ElementId:          "Activity_ScreenSubject",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func createTestHandler(t *testing.T, svc Screener) *Handler {
	return NewHandler(&Config{Timeout: 10 * time.Second}, svc, logger.NewTestLogger(t))
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name       string
		screening  models.AMLScreening
		serviceErr error
		validate   func(t *testing.T, out *Output, err error)
	}{
		{
			name: "clear subject",
			screening: models.AMLScreening{
				ID: "scr-1", Status: models.ScreeningCompleted, RiskLevel: models.RiskLow, ReviewStatus: models.ReviewApproved,
			},
			validate: func(t *testing.T, out *Output, err error) {
				require.NoError(t, err)
				assert.Equal(t, models.ReviewApproved, out.ReviewStatus)
				assert.False(t, out.EDDRequired)
				assert.Equal(t, 0, out.MatchCount)
			},
		},
		{
			name: "sanctions hit",
			screening: models.AMLScreening{
				ID: "scr-1", Status: models.ScreeningCompleted, RiskScore: 100, RiskLevel: models.RiskCritical,
				EDDRequired: true, ReviewStatus: models.ReviewPending,
				Matches: []models.AMLMatch{{ID: "m-1", MatchType: models.MatchSanctions, MatchScore: 90}},
			},
			validate: func(t *testing.T, out *Output, err error) {
				require.NoError(t, err)
				assert.Equal(t, models.RiskCritical, out.RiskLevel)
				assert.True(t, out.EDDRequired)
				assert.Equal(t, 1, out.MatchCount)
			},
		},
		{
			name: "provider failure completes with FAILED status",
			screening: models.AMLScreening{
				ID: "scr-1", Status: models.ScreeningFailed, FailureReason: "Screening provider call failed: timeout",
			},
			validate: func(t *testing.T, out *Output, err error) {
				require.NoError(t, err)
				assert.Equal(t, models.ScreeningFailed, out.Status)
				assert.NotEmpty(t, out.FailureReason)
			},
		},
		{
			name:       "screening not found",
			serviceErr: apperrors.NewNotFoundError("Screening", "scr-1"),
			validate: func(t *testing.T, out *Output, err error) {
				assert.Nil(t, out)
				assert.True(t, apperrors.IsNotFound(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("RunScreening", mock.Anything, aml.RunScreeningInput{UserID: "user-1", ScreeningID: "scr-1"}).
				Return(tt.screening, tt.serviceErr)

			out, err := createTestHandler(t, svc).Execute(context.Background(), &Input{UserID: "user-1", ScreeningID: "scr-1"})
			tt.validate(t, out, err)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_ParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
	}{
		{"valid", map[string]interface{}{"userId": "user-1", "screeningId": "scr-1", "applicant": "Jane"}, false},
		{"missing screening", map[string]interface{}{"userId": "user-1"}, true},
		{"empty user", map[string]interface{}{"userId": "", "screeningId": "scr-1"}, true},
		{"wrong type", map[string]interface{}{"userId": "user-1", "screeningId": 7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := createTestHandler(t, new(MockService)).parseInput(createMockJob(1, tt.variables))
			if tt.wantErr {
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &Input{UserID: "user-1", ScreeningID: "scr-1"}, input)
		})
	}
}
