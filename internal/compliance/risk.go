package compliance

import (
	"time"

	"letting-compliance/internal/models"
)

const (
	pointsExpired            = 30
	pointsFireSafetyNonCompl = 25
	pointsExpiringSoon       = 10
	maxRiskScore             = 100
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func RiskLevelFor(score int) RiskLevel {
	switch {
	case score <= 0:
		return RiskLow
	case score <= 25:
		return RiskMedium
	case score <= 50:
		return RiskHigh
	default:
		return RiskCritical
	}
}

type PortfolioInputs struct {
	Certificates  []models.Certificate
	Registrations []models.LandlordRegistration
	HMOLicenses   []models.HMOLicense
}

type RiskFactor struct {
	Kind        EntityKind `json:"kind"`
	EntityID    string     `json:"entityId"`
	Reason      string     `json:"reason"`
	Points      int        `json:"points"`
	Description string     `json:"description"`
}

type RiskAssessment struct {
	Score    int          `json:"score"`
	Level    RiskLevel    `json:"level"`
	RawScore int          `json:"rawScore"`
	Factors  []RiskFactor `json:"factors"`
}

const (
	ReasonExpired          = "expired"
	ReasonExpiringSoon     = "expiring_soon"
	ReasonFireSafetyFailed = "fire_safety_non_compliant"
)

// PortfolioRisk is additive and saturates at 100.
func PortfolioRisk(in PortfolioInputs, now time.Time) RiskAssessment {
	var r RiskAssessment
	r.Factors = []RiskFactor{}

	add := func(kind EntityKind, id, reason string, points int, desc string) {
		r.RawScore += points
		r.Factors = append(r.Factors, RiskFactor{Kind: kind, EntityID: id, Reason: reason, Points: points, Description: desc})
	}
	expiry := func(kind EntityKind, id string, date time.Time, label string) {
		switch {
		case IsExpired(date, now):
			add(kind, id, ReasonExpired, pointsExpired, label+" has expired")
		case WithinLookahead(date, now, kind):
			add(kind, id, ReasonExpiringSoon, pointsExpiringSoon, label+" expires soon")
		}
	}

	for _, c := range in.Certificates {
		expiry(KindCertificate, c.ID, c.ExpiryDate, c.CertificateType.Label()+" certificate")
	}
	for _, reg := range in.Registrations {
		expiry(KindRegistration, reg.ID, reg.ExpiryDate, "Landlord registration "+reg.RegistrationNumber)
	}
	for _, h := range in.HMOLicenses {
		expiry(KindHMOLicense, h.ID, h.ExpiryDate, "HMO license "+h.LicenseNumber)
		if !h.FireSafetyCompliant {
			add(KindHMOLicense, h.ID, ReasonFireSafetyFailed, pointsFireSafetyNonCompl, "HMO license "+h.LicenseNumber+" is not fire safety compliant")
		}
	}

	r.Score = r.RawScore
	if r.Score > maxRiskScore {
		r.Score = maxRiskScore
	}
	r.Level = RiskLevelFor(r.Score)
	return r
}
