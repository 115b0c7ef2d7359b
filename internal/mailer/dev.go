package mailer

import (
	"context"

	"github.com/google/uuid"

	"letting-compliance/internal/common/logger"
)

// DevMailer logs messages instead of delivering them and reports success.
type DevMailer struct {
	logger logger.Logger
}

func NewDevMailer(log logger.Logger) *DevMailer {
	return &DevMailer{logger: log}
}

func (m *DevMailer) Provider() string { return ProviderDev }

func (m *DevMailer) Send(_ context.Context, msg Message) Result {
	if res, ok := validate(msg); !ok {
		return res
	}
	id := "dev-" + uuid.NewString()
	m.logger.Info("email not sent, no provider configured", map[string]interface{}{
		"id":      id,
		"to":      msg.To,
		"subject": msg.Subject,
		"bytes":   len(msg.HTML),
	})
	return Result{Success: true, ID: id}
}
