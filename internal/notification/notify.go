package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/common/metrics"
	"letting-compliance/internal/mailer"
	"letting-compliance/internal/models"
)

// Suppression windows per source entity.
const (
	ExpiryWindow     = 24 * time.Hour
	AssessmentWindow = 7 * 24 * time.Hour
)

// Alert describes a notification about one source entity.
type Alert struct {
	UserID      string
	Type        models.NotificationType
	Priority    models.Priority
	Title       string
	Message     string
	Link        string
	MetadataKey string
	EntityID    string
	Metadata    map[string]interface{}
	Window      time.Duration
	// Email carries template fields beyond title and message.
	Email mailer.TemplateData
	SMS   string
}

func (a Alert) validate() error {
	if a.UserID == "" || a.EntityID == "" || a.MetadataKey == "" {
		return apperrors.NewValidationError("alert is missing its source entity", fmt.Sprintf("user=%q key=%q entity=%q", a.UserID, a.MetadataKey, a.EntityID))
	}
	if !a.Type.Valid() || !a.Priority.Valid() {
		return apperrors.NewValidationError("alert has an unknown type or priority", fmt.Sprintf("type=%q priority=%q", a.Type, a.Priority))
	}
	if a.Window <= 0 {
		return apperrors.NewValidationError("alert suppression window must be positive", a.Window.String())
	}
	return nil
}

// Outcome reports what Notify did. Delivery is only set when a row was
// created.
type Outcome struct {
	Created      bool
	Notification *models.Notification
	Delivery     DeliveryResult
}

// Notify creates the notification unless one for the same user, type and
// source entity exists inside the alert's window. Outbound delivery runs
// after the row is written and never turns into an error.
func (d *Dispatcher) Notify(ctx context.Context, a Alert) (Outcome, error) {
	return d.notifyAt(ctx, a, d.now())
}

func (d *Dispatcher) notifyAt(ctx context.Context, a Alert, now time.Time) (Outcome, error) {
	if err := a.validate(); err != nil {
		return Outcome{}, err
	}

	exists, err := d.notifications.ExistsSince(ctx, a.UserID, a.Type, a.MetadataKey, a.EntityID, now.Add(-a.Window))
	if err != nil {
		return Outcome{}, err
	}
	if exists {
		metrics.NotificationsSuppressed.WithLabelValues(string(a.Type)).Inc()
		return Outcome{}, nil
	}

	metadata := make(map[string]interface{}, len(a.Metadata)+1)
	for k, v := range a.Metadata {
		metadata[k] = v
	}
	metadata[a.MetadataKey] = a.EntityID

	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    a.UserID,
		Type:      a.Type,
		Title:     a.Title,
		Message:   a.Message,
		Priority:  a.Priority,
		Link:      a.Link,
		Metadata:  metadata,
		CreatedAt: now,
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return Outcome{}, err
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Type), string(n.Priority)).Inc()

	return Outcome{Created: true, Notification: n, Delivery: d.deliver(ctx, n, a, now)}, nil
}
