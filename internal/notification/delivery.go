package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"letting-compliance/internal/common/metrics"
	"letting-compliance/internal/mailer"
	"letting-compliance/internal/models"
)

// DeliveryResult is the best-effort outcome of outbound effects. Failures
// here never affect the persisted notification.
type DeliveryResult struct {
	EmailAttempted bool           `json:"emailAttempted"`
	Email          *mailer.Result `json:"email,omitempty"`
	SMSAttempted   bool           `json:"smsAttempted"`
	SMSMessageID   string         `json:"smsMessageId,omitempty"`
	Indexed        bool           `json:"indexed"`
	Errors         []string       `json:"errors,omitempty"`
}

func (d *Dispatcher) deliver(ctx context.Context, n *models.Notification, a Alert, now time.Time) DeliveryResult {
	var res DeliveryResult

	if d.indexer != nil {
		if err := d.indexer.Index(ctx, *n); err != nil {
			d.logger.Warn("failed to index notification", map[string]interface{}{"notificationId": n.ID, "error": err})
			res.Errors = append(res.Errors, "index: "+err.Error())
		} else {
			res.Indexed = true
		}
	}

	wantEmail := d.opts.EmailEnabled && n.Priority.Escalated()
	wantSMS := d.opts.SMSEnabled && d.sms != nil && n.Priority == models.PriorityCritical
	if !wantEmail && !wantSMS {
		return res
	}

	contact, err := d.contacts.GetContact(ctx, n.UserID)
	if err != nil {
		d.logger.Warn("cannot resolve contact for delivery", map[string]interface{}{"userId": n.UserID, "error": err})
		res.Errors = append(res.Errors, "contact: "+err.Error())
		return res
	}

	if wantEmail && contact.EmailNotifications && contact.Email != "" {
		res.EmailAttempted = true
		result := d.sendEmail(ctx, n, a, contact, now)
		res.Email = &result
		if !result.Success {
			res.Errors = append(res.Errors, "email: "+result.Error)
		}
	}

	if wantSMS && contact.SMSNotifications && contact.Phone != "" {
		res.SMSAttempted = true
		text := a.SMS
		if text == "" {
			text = n.Title + ": " + n.Message
		}
		id, err := d.sms.SendSMS(ctx, contact.Phone, text)
		if err != nil {
			d.logger.Warn("sms delivery failed", map[string]interface{}{"notificationId": n.ID, "error": err})
			res.Errors = append(res.Errors, "sms: "+err.Error())
		} else {
			res.SMSMessageID = id
		}
	}

	return res
}

// sendEmail renders, sends and logs. Every outcome is recorded as an
// EmailLog row with status SENT or FAILED.
func (d *Dispatcher) sendEmail(ctx context.Context, n *models.Notification, a Alert, contact models.UserContact, now time.Time) mailer.Result {
	data := a.Email
	data.RecipientName = contact.Name
	data.Title = n.Title
	data.Message = n.Message
	data.Priority = n.Priority
	if n.Link != "" && d.opts.BaseURL != "" {
		data.ActionURL = d.opts.BaseURL + n.Link
	}

	entry := &models.EmailLog{
		ID:             uuid.NewString(),
		UserID:         n.UserID,
		NotificationID: n.ID,
		ToAddress:      contact.Email,
		Subject:        n.Title,
		CreatedAt:      now,
	}

	template, html, err := d.renderer.Render(n.Type, data)
	entry.Template = template

	var result mailer.Result
	if err != nil {
		result = mailer.Result{Success: false, Error: err.Error()}
	} else {
		entry.HTMLBody = html
		result = d.mailer.Send(ctx, mailer.Message{To: []string{contact.Email}, Subject: n.Title, HTML: html})
	}

	if result.Success {
		entry.Status = models.EmailSent
		entry.ProviderMessageID = result.ID
	} else {
		entry.Status = models.EmailFailed
		entry.ErrorMessage = result.Error
		d.logger.Warn("notification email failed", map[string]interface{}{
			"notificationId": n.ID,
			"provider":       d.mailer.Provider(),
			"error":          result.Error,
		})
	}
	metrics.EmailsSent.WithLabelValues(d.mailer.Provider(), string(entry.Status)).Inc()

	if err := d.emailLogs.Create(ctx, entry); err != nil {
		d.logger.Error("failed to record email log", map[string]interface{}{"notificationId": n.ID, "error": err})
	}
	return result
}
