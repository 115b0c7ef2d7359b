package compliance

import (
	"math"

	"letting-compliance/internal/models"
)

type AssessmentSummary struct {
	Score         int                     `json:"score"`
	OverallStatus models.AssessmentStatus `json:"overallStatus"`
	Total         int                     `json:"total"`
	Done          int                     `json:"done"`
	NonCompliant  int                     `json:"nonCompliant"`
	InProgress    int                     `json:"inProgress"`
}

// RecomputeAssessment derives score and overall status from the items. The
// stored values on the assessment are a cache of this result.
func RecomputeAssessment(items []models.RepairItem) AssessmentSummary {
	s := AssessmentSummary{Total: len(items), OverallStatus: models.AssessmentPending}
	if s.Total == 0 {
		return s
	}

	for _, item := range items {
		switch item.Status {
		case models.RepairItemCompliant, models.RepairItemCompleted:
			s.Done++
		case models.RepairItemNonCompliant:
			s.NonCompliant++
		case models.RepairItemInProgress:
			s.InProgress++
		case models.RepairItemPending:
		}
	}

	s.Score = int(math.Round(100 * float64(s.Done) / float64(s.Total)))

	switch {
	case s.NonCompliant > 0 && s.Score < 100:
		s.OverallStatus = models.AssessmentNonCompliant
	case s.Score == 100:
		s.OverallStatus = models.AssessmentCompliant
	case s.InProgress > 0 || s.Done > 0:
		s.OverallStatus = models.AssessmentInProgress
	default:
		s.OverallStatus = models.AssessmentPending
	}
	return s
}
