package mailer

import (
	"context"
	"strings"

	"letting-compliance/internal/common/config"
	"letting-compliance/internal/common/logger"
)

const (
	ProviderSES  = "ses"
	ProviderSMTP = "smtp"
	ProviderDev  = "dev"
)

type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Result is a structured outcome. Mailers never return a Go error.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) Result
	Provider() string
}

func failed(msg string) Result {
	return Result{Success: false, Error: msg}
}

func validate(msg Message) (Result, bool) {
	if len(msg.To) == 0 {
		return failed("no recipients"), false
	}
	for _, to := range msg.To {
		if strings.TrimSpace(to) == "" {
			return failed("empty recipient address"), false
		}
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return failed("subject is required"), false
	}
	return Result{}, true
}

// New picks a provider from config. An explicit provider that is not
// configured degrades to the development mailer.
func New(cfg *config.Config, sesClient SESClient, log logger.Logger) Mailer {
	aws := cfg.Integrations.AWS
	smtp := cfg.Integrations.SMTP

	sesReady := aws.SES.Enabled && aws.SES.FromEmail != "" && sesClient != nil
	smtpReady := smtp.Host != "" && smtp.DefaultFrom != ""

	switch cfg.Notifications.Email.Provider {
	case ProviderSES:
		if sesReady {
			return NewSESMailer(sesClient, aws.SES.FromEmail, log)
		}
	case ProviderSMTP:
		if smtpReady {
			return NewSMTPMailer(SMTPOptions{
				Host: smtp.Host, Port: smtp.Port, Username: smtp.Username, Password: smtp.Password,
				From: smtp.DefaultFrom, SkipTLSVerify: smtp.SkipTLSVerify,
			}, log)
		}
	default:
		if sesReady {
			return NewSESMailer(sesClient, aws.SES.FromEmail, log)
		}
		if smtpReady {
			return NewSMTPMailer(SMTPOptions{
				Host: smtp.Host, Port: smtp.Port, Username: smtp.Username, Password: smtp.Password,
				From: smtp.DefaultFrom, SkipTLSVerify: smtp.SkipTLSVerify,
			}, log)
		}
	}

	log.Warn("no email provider configured, using development mailer", map[string]interface{}{
		"provider": cfg.Notifications.Email.Provider,
	})
	return NewDevMailer(log)
}
