package runnotificationchecks

import "letting-compliance/internal/notification"

type Input struct {
	// AsOf replays the checks as of an RFC 3339 instant. Empty means now.
	AsOf string `json:"asOf,omitempty"`
}

type Output struct {
	Success            bool                 `json:"success"`
	Timestamp          string               `json:"timestamp"`
	TotalNotifications int                  `json:"totalNotifications"`
	Details            notification.Details `json:"details"`
	FailedCategories   []string             `json:"failedCategories,omitempty"`
}
