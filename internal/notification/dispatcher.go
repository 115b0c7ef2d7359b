package notification

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/mailer"
	"letting-compliance/internal/models"
	"letting-compliance/internal/repository"
)

type CertificateSource interface {
	ExpiringBetween(ctx context.Context, from, to time.Time) ([]repository.OwnedCertificate, error)
}

type LicenseSource interface {
	HMOLicensesExpiringBetween(ctx context.Context, from, to time.Time) ([]repository.OwnedHMOLicense, error)
	RegistrationsExpiringBetween(ctx context.Context, from, to time.Time) ([]repository.OwnedRegistration, error)
}

type AssessmentSource interface {
	OverdueCandidates(ctx context.Context, createdBefore time.Time) ([]repository.OverdueAssessment, error)
}

type NotificationStore interface {
	ExistsSince(ctx context.Context, userID string, typ models.NotificationType, metadataKey, entityID string, since time.Time) (bool, error)
	Create(ctx context.Context, n *models.Notification) error
}

type EmailLogStore interface {
	Create(ctx context.Context, l *models.EmailLog) error
}

type Options struct {
	EmailEnabled bool
	SMSEnabled   bool
	// BaseURL prefixes notification links in emails.
	BaseURL string
}

// Deps are the collaborators injected at process start. SMS and Indexer
// are optional.
type Deps struct {
	Certificates  CertificateSource
	Licenses      LicenseSource
	Assessments   AssessmentSource
	Notifications NotificationStore
	EmailLogs     EmailLogStore
	Contacts      ContactLookup
	Mailer        mailer.Mailer
	Renderer      *mailer.Renderer
	SMS           SMSSender
	Indexer       Indexer
}

type Dispatcher struct {
	certificates  CertificateSource
	licenses      LicenseSource
	assessments   AssessmentSource
	notifications NotificationStore
	emailLogs     EmailLogStore
	contacts      ContactLookup
	mailer        mailer.Mailer
	renderer      *mailer.Renderer
	sms           SMSSender
	indexer       Indexer
	opts          Options
	logger        logger.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

func NewDispatcher(deps Deps, opts Options, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		certificates:  deps.Certificates,
		licenses:      deps.Licenses,
		assessments:   deps.Assessments,
		notifications: deps.Notifications,
		emailLogs:     deps.EmailLogs,
		contacts:      deps.Contacts,
		mailer:        deps.Mailer,
		renderer:      deps.Renderer,
		sms:           deps.SMS,
		indexer:       deps.Indexer,
		opts:          Options{EmailEnabled: opts.EmailEnabled, SMSEnabled: opts.SMSEnabled, BaseURL: strings.TrimRight(opts.BaseURL, "/")},
		logger:        log.WithFields(map[string]interface{}{"component": "notification-dispatcher"}),
		tracer:        otel.Tracer("letting-compliance/notification"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type CategoryResult struct {
	Checked              int `json:"checked"`
	NotificationsCreated int `json:"notificationsCreated"`
}

type Details struct {
	Certificates  CategoryResult `json:"certificates"`
	HMOLicenses   CategoryResult `json:"hmoLicenses"`
	Registrations CategoryResult `json:"registrations"`
	Assessments   CategoryResult `json:"assessments"`
}

type Result struct {
	Success            bool      `json:"success"`
	Timestamp          time.Time `json:"timestamp"`
	TotalNotifications int       `json:"totalNotifications"`
	Details            Details   `json:"details"`
	// FailedCategories lists sweeps whose candidate query failed.
	FailedCategories []string `json:"failedCategories,omitempty"`
}

const (
	CategoryCertificates  = "certificates"
	CategoryHMOLicenses   = "hmoLicenses"
	CategoryRegistrations = "registrations"
	CategoryAssessments   = "assessments"
)

// RunNotificationChecks runs every sweep as of now.
func (d *Dispatcher) RunNotificationChecks(ctx context.Context) Result {
	return d.RunNotificationChecksAt(ctx, d.now())
}

// RunNotificationChecksAt runs the four sweeps concurrently. A sweep whose
// query fails contributes zero counts. The batch never returns an error and
// reports Success=false only when every sweep failed.
func (d *Dispatcher) RunNotificationChecksAt(ctx context.Context, now time.Time) Result {
	now = now.UTC()
	ctx, span := d.tracer.Start(ctx, "notification.run_checks")
	defer span.End()

	sweeps := []struct {
		category string
		run      func(context.Context, time.Time) (CategoryResult, error)
		into     *CategoryResult
	}{
		{CategoryCertificates, d.sweepCertificates, nil},
		{CategoryHMOLicenses, d.sweepHMOLicenses, nil},
		{CategoryRegistrations, d.sweepRegistrations, nil},
		{CategoryAssessments, d.sweepAssessments, nil},
	}

	result := Result{Timestamp: now}
	sweeps[0].into = &result.Details.Certificates
	sweeps[1].into = &result.Details.HMOLicenses
	sweeps[2].into = &result.Details.Registrations
	sweeps[3].into = &result.Details.Assessments

	failed := make([]bool, len(sweeps))
	var wg sync.WaitGroup
	for i := range sweeps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := sweeps[i]
			counts, err := d.runSweep(ctx, s.category, now, s.run)
			if err != nil {
				failed[i] = true
				return
			}
			*s.into = counts
		}(i)
	}
	wg.Wait()

	for i, s := range sweeps {
		if failed[i] {
			result.FailedCategories = append(result.FailedCategories, s.category)
			continue
		}
		result.TotalNotifications += s.into.NotificationsCreated
	}
	result.Success = len(result.FailedCategories) < len(sweeps)

	d.logger.Info("notification checks completed", map[string]interface{}{
		"asOf":               now.Format(time.RFC3339),
		"totalNotifications": result.TotalNotifications,
		"failedCategories":   result.FailedCategories,
	})
	return result
}
