package aml

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/common/metrics"
	"letting-compliance/internal/common/validation"
	"letting-compliance/internal/models"
	"letting-compliance/internal/notification"
)

// EDDMinNotesLength is the minimum trimmed length of EDD notes.
const EDDMinNotesLength = 10

type Store interface {
	GetScreening(ctx context.Context, userID, screeningID string) (models.AMLScreening, error)
	SaveResult(ctx context.Context, s models.AMLScreening) error
	MarkFailed(ctx context.Context, screeningID, reason string, at time.Time) error
	GetMatch(ctx context.Context, userID, matchID string) (models.AMLMatch, error)
	ReviewMatch(ctx context.Context, m models.AMLMatch) (bool, error)
	CompleteEDD(ctx context.Context, screeningID, notes string, at time.Time) error
}

type Notifier interface {
	Notify(ctx context.Context, a notification.Alert) (notification.Outcome, error)
}

type Service struct {
	store    Store
	screener Screener
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
}

// NewService wires the review workflow. notifier may be nil.
func NewService(store Store, screener Screener, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		store:    store,
		screener: screener,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "aml"}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RunScreeningInput struct {
	UserID      string `validate:"required"`
	ScreeningID string `validate:"required"`
}

// RunScreening calls the provider and stores the scored result. A provider
// failure marks the screening FAILED and is not returned as an error.
func (s *Service) RunScreening(ctx context.Context, in RunScreeningInput) (models.AMLScreening, error) {
	if err := validation.Struct(in); err != nil {
		return models.AMLScreening{}, err
	}

	screening, err := s.store.GetScreening(ctx, in.UserID, in.ScreeningID)
	if err != nil {
		return screening, err
	}
	// EDD sign-off is final; a new screening has to be opened instead.
	if screening.EDDCompleted {
		return screening, apperrors.NewBusinessRuleError("Screening already has completed EDD and cannot be re-run", screening.ID)
	}

	now := s.now()
	found, err := s.screener.Screen(ctx, screening.Subject)
	if err != nil {
		reason := err.Error()
		if stdErr, ok := apperrors.As(err); ok {
			reason = stdErr.Message + ": " + stdErr.Details
		}
		s.logger.Warn("screening provider failed", map[string]interface{}{"screeningId": screening.ID, "error": err})
		if markErr := s.store.MarkFailed(ctx, screening.ID, reason, now); markErr != nil {
			return screening, markErr
		}
		metrics.AMLScreenings.WithLabelValues(string(models.ScreeningFailed), "").Inc()

		screening.Status = models.ScreeningFailed
		screening.FailureReason = reason
		screening.ScreenedAt = &now
		return screening, nil
	}

	matches := make([]models.AMLMatch, 0, len(found))
	for _, f := range found {
		matches = append(matches, models.AMLMatch{
			ID:           uuid.NewString(),
			ScreeningID:  screening.ID,
			MatchType:    f.MatchType,
			MatchedName:  f.MatchedName,
			MatchScore:   f.MatchScore,
			Source:       f.Source,
			Details:      f.Details,
			ReviewStatus: models.ReviewPending,
		})
	}

	assessment := Score(matches)
	screening.Matches = matches
	screening.Status = models.ScreeningCompleted
	screening.RiskScore = assessment.RiskScore
	screening.RiskLevel = assessment.RiskLevel
	screening.EDDRequired = assessment.EDDRequired
	screening.FailureReason = ""
	screening.ScreenedAt = &now
	screening.ReviewStatus = models.ReviewPending
	if len(matches) == 0 {
		screening.ReviewStatus = models.ReviewApproved
	}

	if err := s.store.SaveResult(ctx, screening); err != nil {
		return screening, err
	}
	metrics.AMLScreenings.WithLabelValues(string(models.ScreeningCompleted), string(screening.RiskLevel)).Inc()

	if screening.EDDRequired {
		s.requestReview(ctx, screening)
	}
	return screening, nil
}

func (s *Service) requestReview(ctx context.Context, screening models.AMLScreening) {
	if s.notifier == nil {
		return
	}

	priority := models.PriorityHigh
	if screening.RiskLevel == models.RiskCritical {
		priority = models.PriorityCritical
	}

	_, err := s.notifier.Notify(ctx, notification.Alert{
		UserID:   screening.UserID,
		Type:     models.NotificationAMLReviewRequired,
		Priority: priority,
		Title:    "AML review required",
		Message: fmt.Sprintf("Screening of %s returned %d match(es) with %s risk (score %d). Enhanced due diligence is required.",
			screening.Subject.FullName, len(screening.Matches), strings.ToLower(string(screening.RiskLevel)), screening.RiskScore),
		Link:        "/aml/screenings/" + screening.ID,
		MetadataKey: models.MetaScreeningID,
		EntityID:    screening.ID,
		Metadata: map[string]interface{}{
			"riskLevel": string(screening.RiskLevel),
			"riskScore": screening.RiskScore,
		},
		Window: notification.ExpiryWindow,
	})
	if err != nil {
		s.logger.Warn("failed to create AML review notification", map[string]interface{}{"screeningId": screening.ID, "error": err})
	}
}

type ReviewMatchInput struct {
	UserID   string               `validate:"required"`
	MatchID  string               `validate:"required"`
	Decision models.MatchDecision `validate:"required,oneof=ACCEPT REJECT"`
	Notes    string               `validate:"max=2000"`
}

type ReviewResult struct {
	Match             models.AMLMatch `json:"match"`
	ScreeningApproved bool            `json:"screeningApproved"`
}

// ReviewMatch records a reviewer decision. The screening is approved once
// no match on it remains PENDING.
func (s *Service) ReviewMatch(ctx context.Context, in ReviewMatchInput) (ReviewResult, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validation.Struct(in); err != nil {
		return ReviewResult{}, err
	}

	match, err := s.store.GetMatch(ctx, in.UserID, in.MatchID)
	if err != nil {
		return ReviewResult{}, err
	}

	now := s.now()
	match.Decision = in.Decision
	match.ReviewStatus = in.Decision.ReviewStatus()
	match.ReviewerNotes = in.Notes
	match.ReviewedAt = &now

	approved, err := s.store.ReviewMatch(ctx, match)
	if err != nil {
		return ReviewResult{}, err
	}

	s.logger.Info("aml match reviewed", map[string]interface{}{
		"matchId":           match.ID,
		"screeningId":       match.ScreeningID,
		"decision":          string(match.Decision),
		"screeningApproved": approved,
	})
	return ReviewResult{Match: match, ScreeningApproved: approved}, nil
}

type CompleteEDDInput struct {
	UserID      string `validate:"required"`
	ScreeningID string `validate:"required"`
	Notes       string `validate:"required,min=10,max=5000"`
}

// CompleteEDD is one-way: there is no transition back to incomplete.
func (s *Service) CompleteEDD(ctx context.Context, in CompleteEDDInput) (models.AMLScreening, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validation.Struct(in); err != nil {
		return models.AMLScreening{}, err
	}

	screening, err := s.store.GetScreening(ctx, in.UserID, in.ScreeningID)
	if err != nil {
		return screening, err
	}
	if !screening.EDDRequired {
		return screening, apperrors.NewBusinessRuleError("Enhanced due diligence is not required for this screening", "screening: "+screening.ID)
	}
	if screening.EDDCompleted {
		return screening, apperrors.NewBusinessRuleError("Enhanced due diligence has already been completed", "screening: "+screening.ID)
	}

	now := s.now()
	if err := s.store.CompleteEDD(ctx, screening.ID, in.Notes, now); err != nil {
		return screening, err
	}

	screening.EDDCompleted = true
	screening.EDDNotes = in.Notes
	screening.EDDCompletedAt = &now
	return screening, nil
}
