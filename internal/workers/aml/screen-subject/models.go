package screensubject

import "letting-compliance/internal/models"

type Input struct {
	UserID      string `json:"userId"`
	ScreeningID string `json:"screeningId"`
}

type Output struct {
	ScreeningID   string                 `json:"screeningId"`
	Status        models.ScreeningStatus `json:"screeningStatus"`
	RiskScore     int                    `json:"riskScore"`
	RiskLevel     models.RiskLevel       `json:"riskLevel"`
	EDDRequired   bool                   `json:"eddRequired"`
	ReviewStatus  models.ReviewStatus    `json:"reviewStatus"`
	MatchCount    int                    `json:"matchCount"`
	FailureReason string                 `json:"failureReason,omitempty"`
}
