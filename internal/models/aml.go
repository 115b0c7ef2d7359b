package models

import "time"

type MatchType string

const (
	MatchSanctions    MatchType = "SANCTIONS"
	MatchPEP          MatchType = "PEP"
	MatchAdverseMedia MatchType = "ADVERSE_MEDIA"
)

func (m MatchType) Valid() bool {
	switch m {
	case MatchSanctions, MatchPEP, MatchAdverseMedia:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

type ScreeningStatus string

const (
	ScreeningPending   ScreeningStatus = "PENDING"
	ScreeningCompleted ScreeningStatus = "COMPLETED"
	ScreeningFailed    ScreeningStatus = "FAILED"
)

// ReviewStatus is used by both screenings and matches.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewAccepted ReviewStatus = "ACCEPTED"
	ReviewRejected ReviewStatus = "REJECTED"
)

type MatchDecision string

const (
	DecisionAccept MatchDecision = "ACCEPT"
	DecisionReject MatchDecision = "REJECT"
)

// ReviewStatus maps a reviewer decision onto the match review state.
func (d MatchDecision) ReviewStatus() ReviewStatus {
	switch d {
	case DecisionAccept:
		return ReviewAccepted
	case DecisionReject:
		return ReviewRejected
	}
	return ReviewPending
}

type ScreeningSubject struct {
	FullName    string     `json:"fullName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
	Country     string     `json:"country,omitempty"`
}

type AMLScreening struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Subject        ScreeningSubject `json:"subject"`
	Status         ScreeningStatus  `json:"status"`
	RiskScore      int              `json:"riskScore"`
	RiskLevel      RiskLevel        `json:"riskLevel"`
	ReviewStatus   ReviewStatus     `json:"reviewStatus"`
	EDDRequired    bool             `json:"eddRequired"`
	EDDCompleted   bool             `json:"eddCompleted"`
	EDDNotes       string           `json:"eddNotes,omitempty"`
	EDDCompletedAt *time.Time       `json:"eddCompletedAt,omitempty"`
	FailureReason  string           `json:"failureReason,omitempty"`
	ScreenedAt     *time.Time       `json:"screenedAt,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	Matches        []AMLMatch       `json:"matches,omitempty"`
}

type AMLMatch struct {
	ID            string        `json:"id"`
	ScreeningID   string        `json:"screeningId"`
	MatchType     MatchType     `json:"matchType"`
	MatchedName   string        `json:"matchedName"`
	MatchScore    float64       `json:"matchScore"`
	Source        string        `json:"source,omitempty"`
	Details       string        `json:"details,omitempty"`
	ReviewStatus  ReviewStatus  `json:"reviewStatus"`
	Decision      MatchDecision `json:"decision,omitempty"`
	ReviewerNotes string        `json:"reviewerNotes,omitempty"`
	ReviewedAt    *time.Time    `json:"reviewedAt,omitempty"`
}
