package aml

import (
	"math"

	"letting-compliance/internal/models"
)

const (
	sanctionsWeight = 1.5
	pepWeight       = 1.2
	defaultWeight   = 1.0

	criticalScore     = 90
	highScore         = 70
	mediumScore       = 40
	sanctionsOverride = 85.0
	maxScore          = 100
)

// Assessment is the derived risk of a completed screening.
type Assessment struct {
	RiskScore   int              `json:"riskScore"`
	RiskLevel   models.RiskLevel `json:"riskLevel"`
	EDDRequired bool             `json:"eddRequired"`
}

func weightFor(t models.MatchType) float64 {
	switch t {
	case models.MatchSanctions:
		return sanctionsWeight
	case models.MatchPEP:
		return pepWeight
	case models.MatchAdverseMedia:
		return defaultWeight
	}
	return defaultWeight
}

// Score blends the mean and the maximum weighted match score. It depends
// only on the match set.
func Score(matches []models.AMLMatch) Assessment {
	if len(matches) == 0 {
		return Assessment{RiskScore: 0, RiskLevel: models.RiskLow}
	}

	var (
		sum         float64
		max         float64
		sanctionHit bool
	)
	for i, m := range matches {
		weighted := m.MatchScore * weightFor(m.MatchType)
		sum += weighted
		if i == 0 || weighted > max {
			max = weighted
		}
		if m.MatchType == models.MatchSanctions && m.MatchScore > sanctionsOverride {
			sanctionHit = true
		}
	}

	mean := sum / float64(len(matches))
	score := int(math.Round((mean + max) / 2))
	if score > maxScore {
		score = maxScore
	}

	level := levelFor(score, sanctionHit)
	return Assessment{
		RiskScore:   score,
		RiskLevel:   level,
		EDDRequired: level == models.RiskHigh || level == models.RiskCritical,
	}
}

func levelFor(score int, sanctionHit bool) models.RiskLevel {
	switch {
	case score >= criticalScore || sanctionHit:
		return models.RiskCritical
	case score >= highScore:
		return models.RiskHigh
	case score >= mediumScore:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
