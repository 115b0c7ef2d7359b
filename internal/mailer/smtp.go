package mailer

import (
	"context"
	"crypto/tls"

	mail "github.com/go-mail/mail/v2"
	"github.com/google/uuid"

	"letting-compliance/internal/common/logger"
)

type SMTPOptions struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SkipTLSVerify bool
}

type smtpSender interface {
	DialAndSend(m ...*mail.Message) error
}

type SMTPMailer struct {
	sender smtpSender
	from   string
	logger logger.Logger
}

// NewSMTPMailer dials with mandatory STARTTLS, port 587 when unset.
func NewSMTPMailer(opts SMTPOptions, log logger.Logger) *SMTPMailer {
	if opts.Port == 0 {
		opts.Port = 587
	}

	d := mail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         opts.Host,
		InsecureSkipVerify: opts.SkipTLSVerify,
	}

	return &SMTPMailer{sender: d, from: opts.From, logger: log}
}

func (m *SMTPMailer) Provider() string { return ProviderSMTP }

func (m *SMTPMailer) Send(ctx context.Context, msg Message) Result {
	if res, ok := validate(msg); !ok {
		return res
	}
	if err := ctx.Err(); err != nil {
		return failed(err.Error())
	}

	id := "<" + uuid.NewString() + "@letting-compliance>"

	mm := mail.NewMessage()
	mm.SetHeader("From", m.from)
	mm.SetHeader("To", msg.To...)
	mm.SetHeader("Subject", msg.Subject)
	mm.SetHeader("Message-ID", id)
	mm.SetBody("text/html", msg.HTML)

	if err := m.sender.DialAndSend(mm); err != nil {
		m.logger.Error("smtp send failed", map[string]interface{}{"error": err, "subject": msg.Subject})
		return failed(err.Error())
	}
	return Result{Success: true, ID: id}
}
