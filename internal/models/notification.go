package models

import "time"

type NotificationType string

const (
	NotificationCertificateExpiry  NotificationType = "CERTIFICATE_EXPIRY"
	NotificationHMOLicenseExpiry   NotificationType = "HMO_LICENSE_EXPIRY"
	NotificationRegistrationExpiry NotificationType = "REGISTRATION_EXPIRY"
	NotificationRepairingOverdue   NotificationType = "REPAIRING_STANDARD_OVERDUE"
	NotificationAMLReviewRequired  NotificationType = "AML_REVIEW_REQUIRED"
	NotificationSystem             NotificationType = "SYSTEM"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationCertificateExpiry, NotificationHMOLicenseExpiry, NotificationRegistrationExpiry,
		NotificationRepairingOverdue, NotificationAMLReviewRequired, NotificationSystem:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Escalated reports whether the priority warrants an outbound email.
func (p Priority) Escalated() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// Metadata keys holding the source entity id.
const (
	MetaCertificateID  = "certificateId"
	MetaHMOLicenseID   = "hmoLicenseId"
	MetaRegistrationID = "registrationId"
	MetaAssessmentID   = "assessmentId"
	MetaScreeningID    = "screeningId"
)

type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Priority  Priority               `json:"priority"`
	Read      bool                   `json:"read"`
	Link      string                 `json:"link,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type EmailStatus string

const (
	EmailSent   EmailStatus = "SENT"
	EmailFailed EmailStatus = "FAILED"
)

// EmailLog records every outbound notification email attempt.
type EmailLog struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	NotificationID    string      `json:"notificationId,omitempty"`
	ToAddress         string      `json:"toAddress"`
	Subject           string      `json:"subject"`
	Template          string      `json:"template"`
	HTMLBody          string      `json:"htmlBody"`
	Status            EmailStatus `json:"status"`
	ErrorMessage      string      `json:"errorMessage,omitempty"`
	ProviderMessageID string      `json:"providerMessageId,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}
