package notification

import (
	"context"

	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/models"
)

// InboxStore is the persistent notification inbox.
type InboxStore interface {
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// ReadMarker mirrors read state into the search index.
type ReadMarker interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// Inbox serves the user's notifications from Postgres and keeps the search
// index's read flag in step. Index updates are best effort.
type Inbox struct {
	store  InboxStore
	index  ReadMarker
	logger logger.Logger
}

// NewInbox accepts a nil index when search is disabled.
func NewInbox(store InboxStore, index ReadMarker, log logger.Logger) *Inbox {
	return &Inbox{store: store, index: index, logger: log}
}

func (i *Inbox) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	return i.store.ListByUser(ctx, userID, unreadOnly, limit)
}

func (i *Inbox) CountUnread(ctx context.Context, userID string) (int, error) {
	return i.store.CountUnread(ctx, userID)
}

func (i *Inbox) MarkRead(ctx context.Context, userID, id string) error {
	if err := i.store.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	if i.index != nil {
		if err := i.index.MarkRead(ctx, id); err != nil {
			i.logger.Warn("failed to mark indexed notification read", map[string]interface{}{"notificationId": id, "error": err})
		}
	}
	return nil
}

func (i *Inbox) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := i.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if i.index != nil && n > 0 {
		if err := i.index.MarkAllRead(ctx, userID); err != nil {
			i.logger.Warn("failed to mark indexed notifications read", map[string]interface{}{"userId": userID, "error": err})
		}
	}
	return n, nil
}
