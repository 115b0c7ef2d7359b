package compliance

import (
	"math"
	"time"

	"letting-compliance/internal/models"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

type EntityKind string

const (
	KindCertificate  EntityKind = "certificate"
	KindHMOLicense   EntityKind = "hmo_license"
	KindRegistration EntityKind = "registration"
)

// Thresholds are inclusive day limits, tightest first.
type Thresholds struct {
	Critical int
	High     int
	Normal   int
}

// Lookahead is the window an expiry sweep scans forward from now.
func (t Thresholds) Lookahead() time.Duration {
	return time.Duration(t.Normal) * 24 * time.Hour
}

func ThresholdsFor(kind EntityKind) Thresholds {
	switch kind {
	case KindCertificate:
		return Thresholds{Critical: 7, High: 14, Normal: 30}
	case KindHMOLicense, KindRegistration:
		return Thresholds{Critical: 14, High: 30, Normal: 60}
	}
	return Thresholds{Critical: 7, High: 14, Normal: 30}
}

type Urgency string

const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyCritical Urgency = "critical"
	UrgencyWarning  Urgency = "warning"
	UrgencyNormal   Urgency = "normal"
)

// DaysRemaining rounds partial days up, so anything still in the future
// counts as at least one day and anything in the past is negative or zero.
func DaysRemaining(expiry, now time.Time) int {
	diff := expiry.Sub(now).Milliseconds()
	return int(math.Ceil(float64(diff) / float64(dayMillis)))
}

func ClassifyUrgency(date, now time.Time, t Thresholds) Urgency {
	days := DaysRemaining(date, now)
	switch {
	case days < 0:
		return UrgencyOverdue
	case days <= t.Critical:
		return UrgencyCritical
	case days <= t.High:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

func PriorityForDaysRemaining(days int, t Thresholds) models.Priority {
	switch {
	case days < 0, days <= t.Critical:
		return models.PriorityCritical
	case days <= t.High:
		return models.PriorityHigh
	case days <= t.Normal:
		return models.PriorityNormal
	default:
		return models.PriorityLow
	}
}

// Assessment items are escalated by how long they have been outstanding.
const (
	OutstandingHighDays     = 60
	OutstandingCriticalDays = 90
	// OutstandingMinDays is the age before an assessment enters the overdue sweep.
	OutstandingMinDays = 30
)

// DaysOutstanding counts whole days elapsed since createdAt.
func DaysOutstanding(createdAt, now time.Time) int {
	if now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt).Milliseconds() / dayMillis)
}

func PriorityForDaysOutstanding(days int) models.Priority {
	switch {
	case days > OutstandingCriticalDays:
		return models.PriorityCritical
	case days > OutstandingHighDays:
		return models.PriorityHigh
	default:
		return models.PriorityNormal
	}
}

func CertificateStatusFor(expiry, now time.Time) models.CertificateStatus {
	days := DaysRemaining(expiry, now)
	switch {
	case days < 0:
		return models.CertificateExpired
	case days <= ThresholdsFor(KindCertificate).Normal:
		return models.CertificateExpiring
	default:
		return models.CertificateValid
	}
}

// IsExpired treats the expiry instant itself as still valid.
func IsExpired(expiry, now time.Time) bool {
	return DaysRemaining(expiry, now) < 0
}

// WithinLookahead reports a not yet expired date inside the kind's window.
func WithinLookahead(expiry, now time.Time, kind EntityKind) bool {
	days := DaysRemaining(expiry, now)
	return days >= 0 && days <= ThresholdsFor(kind).Normal
}
