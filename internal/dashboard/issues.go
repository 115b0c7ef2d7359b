package dashboard

import (
	"fmt"
	"sort"
	"time"

	"letting-compliance/internal/compliance"
	"letting-compliance/internal/models"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 0
	}
	return -1
}

type IssueKind string

const (
	IssueCertificate  IssueKind = "certificate"
	IssueRegistration IssueKind = "registration"
	IssueHMOLicense   IssueKind = "hmo_license"
	IssueAssessment   IssueKind = "assessment"
	IssueMaintenance  IssueKind = "maintenance"
)

type Issue struct {
	Severity      Severity   `json:"severity"`
	Kind          IssueKind  `json:"kind"`
	EntityID      string     `json:"entityId"`
	PropertyID    string     `json:"propertyId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	DaysRemaining *int       `json:"daysRemaining,omitempty"`
}

func severityFor(u compliance.Urgency) Severity {
	switch u {
	case compliance.UrgencyOverdue:
		return SeverityCritical
	case compliance.UrgencyCritical:
		return SeverityHigh
	case compliance.UrgencyWarning:
		return SeverityMedium
	}
	return SeverityLow
}

// expiryIssue returns false for dates outside the lookahead window.
func expiryIssue(kind IssueKind, entity compliance.EntityKind, id, propertyID, label string, expiry, now time.Time) (Issue, bool) {
	urgency := compliance.ClassifyUrgency(expiry, now, compliance.ThresholdsFor(entity))
	if urgency == compliance.UrgencyNormal && !compliance.WithinLookahead(expiry, now, entity) {
		return Issue{}, false
	}

	days := compliance.DaysRemaining(expiry, now)
	due := expiry
	issue := Issue{
		Severity:      severityFor(urgency),
		Kind:          kind,
		EntityID:      id,
		PropertyID:    propertyID,
		DueDate:       &due,
		DaysRemaining: &days,
		Title:         label + " expiring",
		Description:   fmt.Sprintf("%s expires in %d day(s)", label, days),
	}
	if urgency == compliance.UrgencyOverdue {
		issue.Title = label + " expired"
		issue.Description = fmt.Sprintf("%s expired %d day(s) ago", label, -days)
	}
	return issue, true
}

// collectIssues emits issues in entity order and then sorts by severity.
// The sort is stable so entity order is kept inside each tier.
func collectIssues(snap snapshot, now time.Time) []Issue {
	issues := []Issue{}
	appendExpiry := func(issue Issue, ok bool) {
		if ok {
			issues = append(issues, issue)
		}
	}

	for _, c := range snap.certificates {
		appendExpiry(expiryIssue(IssueCertificate, compliance.KindCertificate, c.ID, c.PropertyID,
			c.CertificateType.Label()+" certificate", c.ExpiryDate, now))
	}
	for _, r := range snap.registrations {
		appendExpiry(expiryIssue(IssueRegistration, compliance.KindRegistration, r.ID, r.PropertyID,
			"Landlord registration "+r.RegistrationNumber, r.ExpiryDate, now))
	}
	for _, h := range snap.hmoLicenses {
		label := "HMO license " + h.LicenseNumber
		appendExpiry(expiryIssue(IssueHMOLicense, compliance.KindHMOLicense, h.ID, h.PropertyID, label, h.ExpiryDate, now))
		if !h.FireSafetyCompliant {
			issues = append(issues, Issue{
				Severity:    SeverityCritical,
				Kind:        IssueHMOLicense,
				EntityID:    h.ID,
				PropertyID:  h.PropertyID,
				Title:       "Fire safety non-compliant",
				Description: label + " is not fire safety compliant",
			})
		}
	}
	for _, a := range snap.assessments {
		summary := compliance.RecomputeAssessment(a.Items)
		if summary.OverallStatus != models.AssessmentNonCompliant {
			continue
		}
		issues = append(issues, Issue{
			Severity:    SeverityHigh,
			Kind:        IssueAssessment,
			EntityID:    a.ID,
			PropertyID:  a.PropertyID,
			Title:       "Repairing standard not met",
			Description: fmt.Sprintf("%d of %d repair item(s) non-compliant, score %d%%", summary.NonCompliant, summary.Total, summary.Score),
		})
	}
	for _, m := range snap.maintenance {
		if m.Priority != models.MaintenanceUrgent {
			continue
		}
		issues = append(issues, Issue{
			Severity:    SeverityMedium,
			Kind:        IssueMaintenance,
			EntityID:    m.ID,
			PropertyID:  m.PropertyID,
			Title:       "Urgent maintenance",
			Description: m.Title,
		})
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity.rank() > issues[j].Severity.rank()
	})
	return issues
}
