package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/compliance"
	"letting-compliance/internal/models"
	"letting-compliance/internal/repository"
)

type CertificateLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Certificate, error)
}

type LicenseLister interface {
	ListHMOByOwner(ctx context.Context, ownerID string) ([]models.HMOLicense, error)
	ListRegistrationsByOwner(ctx context.Context, ownerID string) ([]models.LandlordRegistration, error)
}

type AssessmentLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.RepairingStandardAssessment, error)
}

type PortfolioReader interface {
	CountProperties(ctx context.Context, ownerID string) (int, error)
	CountActiveLeases(ctx context.Context, ownerID string) (int, error)
	OpenMaintenance(ctx context.Context, ownerID string) ([]models.MaintenanceRequest, error)
	TransactionTotals(ctx context.Context, ownerID string, from, to time.Time) (repository.TransactionTotals, error)
}

type UnreadCounter interface {
	CountUnread(ctx context.Context, userID string) (int, error)
}

type ReviewCounter interface {
	CountPendingReviews(ctx context.Context, userID string) (int, error)
}

type Deps struct {
	Certificates  CertificateLister
	Licenses      LicenseLister
	Assessments   AssessmentLister
	Portfolio     PortfolioReader
	Notifications UnreadCounter
	AML           ReviewCounter
}

type Counts struct {
	Properties          int `json:"properties"`
	Certificates        int `json:"certificates"`
	Registrations       int `json:"registrations"`
	HMOLicenses         int `json:"hmoLicenses"`
	Assessments         int `json:"assessments"`
	OpenMaintenance     int `json:"openMaintenance"`
	ActiveLeases        int `json:"activeLeases"`
	UnreadNotifications int `json:"unreadNotifications"`
	PendingAMLReviews   int `json:"pendingAmlReviews"`
}

type ExpiryBucket struct {
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiringSoon"`
	Valid        int `json:"valid"`
}

type ExpirySummary struct {
	Certificates  ExpiryBucket `json:"certificates"`
	Registrations ExpiryBucket `json:"registrations"`
	HMOLicenses   ExpiryBucket `json:"hmoLicenses"`
}

// FinancialSummary amounts are decimal strings so no precision is lost in JSON.
type FinancialSummary struct {
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Income      string    `json:"income"`
	Expense     string    `json:"expense"`
	Net         string    `json:"net"`
	LicenseFees string    `json:"licenseFees"`
}

type Overview struct {
	GeneratedAt     time.Time                 `json:"generatedAt"`
	Counts          Counts                    `json:"counts"`
	Expiry          ExpirySummary             `json:"expiry"`
	ComplianceScore int                       `json:"complianceScore"`
	CriticalIssues  []Issue                   `json:"criticalIssues"`
	Risk            compliance.RiskAssessment `json:"riskAssessment"`
	Financial       FinancialSummary          `json:"financialSummary"`
}

// Aggregator builds the per-user dashboard snapshot. Expiry state is always
// recomputed from dates, never read from the stored status columns.
type Aggregator struct {
	deps   Deps
	logger logger.Logger
	now    func() time.Time
}

func NewAggregator(deps Deps, log logger.Logger) *Aggregator {
	return &Aggregator{
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "dashboard"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type snapshot struct {
	properties    int
	activeLeases  int
	unread        int
	pendingAML    int
	certificates  []models.Certificate
	registrations []models.LandlordRegistration
	hmoLicenses   []models.HMOLicense
	assessments   []models.RepairingStandardAssessment
	maintenance   []models.MaintenanceRequest
	totals        repository.TransactionTotals
}

func (a *Aggregator) Overview(ctx context.Context, userID string) (Overview, error) {
	now := a.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	snap, err := a.load(ctx, userID, monthStart, monthEnd)
	if err != nil {
		a.logger.Error("failed to load dashboard", map[string]interface{}{"userId": userID, "error": err})
		return Overview{}, err
	}

	certificates := make([]models.Certificate, len(snap.certificates))
	for i, c := range snap.certificates {
		c.Status = compliance.CertificateStatusFor(c.ExpiryDate, now)
		certificates[i] = c
	}
	snap.certificates = certificates

	out := Overview{
		GeneratedAt: now,
		Counts: Counts{
			Properties:          snap.properties,
			Certificates:        len(snap.certificates),
			Registrations:       len(snap.registrations),
			HMOLicenses:         len(snap.hmoLicenses),
			Assessments:         len(snap.assessments),
			OpenMaintenance:     len(snap.maintenance),
			ActiveLeases:        snap.activeLeases,
			UnreadNotifications: snap.unread,
			PendingAMLReviews:   snap.pendingAML,
		},
		Risk: compliance.PortfolioRisk(compliance.PortfolioInputs{
			Certificates:  snap.certificates,
			Registrations: snap.registrations,
			HMOLicenses:   snap.hmoLicenses,
		}, now),
		Financial: financialSummary(snap, monthStart, monthEnd),
	}

	for _, c := range snap.certificates {
		out.Expiry.Certificates.addStatus(c.Status)
	}
	for _, r := range snap.registrations {
		out.Expiry.Registrations.add(r.ExpiryDate, now, compliance.KindRegistration)
	}
	for _, h := range snap.hmoLicenses {
		out.Expiry.HMOLicenses.add(h.ExpiryDate, now, compliance.KindHMOLicense)
	}

	out.ComplianceScore = complianceScore(snap, out.Expiry)
	out.CriticalIssues = collectIssues(snap, now)
	return out, nil
}

func (a *Aggregator) load(ctx context.Context, userID string, from, to time.Time) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.properties, err = a.deps.Portfolio.CountProperties(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.activeLeases, err = a.deps.Portfolio.CountActiveLeases(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.maintenance, err = a.deps.Portfolio.OpenMaintenance(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.totals, err = a.deps.Portfolio.TransactionTotals(gctx, userID, from, to)
		return err
	})
	g.Go(func() (err error) {
		snap.unread, err = a.deps.Notifications.CountUnread(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.pendingAML, err = a.deps.AML.CountPendingReviews(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.certificates, err = a.deps.Certificates.ListByOwner(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.registrations, err = a.deps.Licenses.ListRegistrationsByOwner(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.hmoLicenses, err = a.deps.Licenses.ListHMOByOwner(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.assessments, err = a.deps.Assessments.ListByOwner(gctx, userID)
		return err
	})

	return snap, g.Wait()
}

func (b *ExpiryBucket) add(expiry, now time.Time, kind compliance.EntityKind) {
	switch {
	case compliance.IsExpired(expiry, now):
		b.Expired++
	case compliance.WithinLookahead(expiry, now, kind):
		b.ExpiringSoon++
	default:
		b.Valid++
	}
}

func (b *ExpiryBucket) addStatus(status models.CertificateStatus) {
	switch status {
	case models.CertificateExpired:
		b.Expired++
	case models.CertificateExpiring:
		b.ExpiringSoon++
	default:
		b.Valid++
	}
}

// complianceScore is vacuously 100 for an empty portfolio.
func complianceScore(snap snapshot, expiry ExpirySummary) int {
	total := len(snap.certificates) + len(snap.registrations) + len(snap.hmoLicenses) + len(snap.assessments)
	if total == 0 {
		return 100
	}

	compliant := len(snap.certificates) - expiry.Certificates.Expired +
		len(snap.registrations) - expiry.Registrations.Expired +
		len(snap.hmoLicenses) - expiry.HMOLicenses.Expired
	for _, a := range snap.assessments {
		if compliance.RecomputeAssessment(a.Items).OverallStatus != models.AssessmentNonCompliant {
			compliant++
		}
	}

	return int(decimal.NewFromInt(int64(100 * compliant)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0).
		IntPart())
}

func financialSummary(snap snapshot, from, to time.Time) FinancialSummary {
	fees := decimal.Zero
	for _, r := range snap.registrations {
		fees = fees.Add(r.Fee)
	}
	for _, h := range snap.hmoLicenses {
		fees = fees.Add(h.Fee)
	}

	return FinancialSummary{
		PeriodStart: from,
		PeriodEnd:   to,
		Income:      snap.totals.Income.StringFixed(2),
		Expense:     snap.totals.Expense.StringFixed(2),
		Net:         snap.totals.Income.Sub(snap.totals.Expense).StringFixed(2),
		LicenseFees: fees.StringFixed(2),
	}
}
