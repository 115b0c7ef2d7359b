package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/models"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ExistsSince reports whether a notification of this type for the source
// entity was created strictly after since. Matching is on metadata->>key.
func (r *NotificationRepository) ExistsSince(ctx context.Context, userID string, typ models.NotificationType, metadataKey, entityID string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND type = $2 AND metadata->>$3 = $4 AND created_at > $5
		)`, userID, string(typ), metadataKey, entityID, since).Scan(&exists)
	if err != nil {
		return false, apperrors.NewQueryExecutionFailedError("notifications.exists", err)
	}
	return exists, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return apperrors.NewValidationError("invalid notification metadata", err.Error())
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, priority, read, link, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, string(n.Priority), n.Read,
		stringOrNull(n.Link), metadata, n.CreatedAt)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError("notification", err)
	}
	return nil
}

func scanNotification(row rowScanner) (models.Notification, error) {
	var (
		n        models.Notification
		link     sql.NullString
		metadata []byte
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Priority, &n.Read, &link, &metadata, &n.CreatedAt); err != nil {
		return n, err
	}
	n.Link = link.String
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return n, err
		}
	}
	return n, nil
}

// ListByUser returns newest first. limit <= 0 means no limit.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, priority, read, link, metadata, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = false OR read = false)
		ORDER BY created_at DESC`
	args := []interface{}{userID, unreadOnly}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return queryList(ctx, r.db, "notifications.list", query, scanNotification, args...)
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`, userID).Scan(&n); err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("notifications.count_unread", err)
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("notifications.mark_read", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("Notification", id)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("notifications.mark_all_read", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type EmailLogRepository struct {
	db *sql.DB
}

func NewEmailLogRepository(db *sql.DB) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

func (r *EmailLogRepository) Create(ctx context.Context, l *models.EmailLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_logs (id, user_id, notification_id, to_address, subject, template, html_body, status, error_message, provider_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.UserID, stringOrNull(l.NotificationID), l.ToAddress, l.Subject, l.Template, l.HTMLBody,
		string(l.Status), stringOrNull(l.ErrorMessage), stringOrNull(l.ProviderMessageID), l.CreatedAt)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError("email_log", err)
	}
	return nil
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetContact(ctx context.Context, userID string) (models.UserContact, error) {
	var (
		u     models.UserContact
		name  sql.NullString
		phone sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, email_notifications, sms_notifications
		FROM users
		WHERE id = $1`, userID).Scan(&u.ID, &name, &u.Email, &phone, &u.EmailNotifications, &u.SMSNotifications)
	if err != nil {
		return u, notFoundOr(err, "User", userID, "users.get_contact")
	}
	u.Name = name.String
	u.Phone = phone.String
	return u, nil
}

func (r *UserRepository) UpdatePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET email_notifications = $1, sms_notifications = $2
		WHERE id = $3`, prefs.EmailNotifications, prefs.SMSNotifications, userID)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("users.update_preferences", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("User", userID)
	}
	return nil
}
