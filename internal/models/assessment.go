package models

import "time"

type RepairItemStatus string

const (
	RepairItemPending      RepairItemStatus = "pending"
	RepairItemCompliant    RepairItemStatus = "compliant"
	RepairItemNonCompliant RepairItemStatus = "non_compliant"
	RepairItemInProgress   RepairItemStatus = "in_progress"
	RepairItemCompleted    RepairItemStatus = "completed"
)

func (s RepairItemStatus) Valid() bool {
	switch s {
	case RepairItemPending, RepairItemCompliant, RepairItemNonCompliant,
		RepairItemInProgress, RepairItemCompleted:
		return true
	}
	return false
}

// Done reports whether the item counts towards the assessment score.
func (s RepairItemStatus) Done() bool {
	switch s {
	case RepairItemCompliant, RepairItemCompleted:
		return true
	case RepairItemPending, RepairItemNonCompliant, RepairItemInProgress:
		return false
	}
	return false
}

type RepairItemPriority string

const (
	RepairPriorityLow    RepairItemPriority = "low"
	RepairPriorityMedium RepairItemPriority = "medium"
	RepairPriorityHigh   RepairItemPriority = "high"
	RepairPriorityUrgent RepairItemPriority = "urgent"
)

type RepairItem struct {
	ID            string             `json:"id"`
	AssessmentID  string             `json:"assessmentId"`
	Category      string             `json:"category"`
	Description   string             `json:"description"`
	Status        RepairItemStatus   `json:"status"`
	Priority      RepairItemPriority `json:"priority"`
	CompletedDate *time.Time         `json:"completedDate,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

type AssessmentStatus string

const (
	AssessmentPending      AssessmentStatus = "PENDING"
	AssessmentCompliant    AssessmentStatus = "COMPLIANT"
	AssessmentNonCompliant AssessmentStatus = "NON_COMPLIANT"
	AssessmentInProgress   AssessmentStatus = "IN_PROGRESS"
)

// RepairingStandardAssessment stores Score and OverallStatus as a cache of
// the values derived from Items.
type RepairingStandardAssessment struct {
	ID             string           `json:"id"`
	PropertyID     string           `json:"propertyId"`
	AssessmentDate time.Time        `json:"assessmentDate"`
	OverallStatus  AssessmentStatus `json:"overallStatus"`
	Score          int              `json:"score"`
	CreatedAt      time.Time        `json:"createdAt"`
	Items          []RepairItem     `json:"items,omitempty"`
}
