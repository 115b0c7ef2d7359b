package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	mail "github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"letting-compliance/internal/common/config"
	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/models"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSender struct {
	err  error
	sent []*mail.Message
}

func (f *fakeSender) DialAndSend(m ...*mail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func testMessage() Message {
	return Message{To: []string{"owner@example.com"}, Subject: "Gas Safety certificate expiring", HTML: "<p>hi</p>"}
}

func TestSESMailer_Send(t *testing.T) {
	var captured *ses.SendEmailInput
	client := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
		},
	}

	m := NewSESMailer(client, "alerts@example.com", logger.NewTestLogger(t))
	res := m.Send(context.Background(), testMessage())

	assert.True(t, res.Success)
	assert.Equal(t, "ses-1", res.ID)
	require.NotNil(t, captured)
	assert.Equal(t, "alerts@example.com", aws.ToString(captured.Source))
	assert.Equal(t, []string{"owner@example.com"}, captured.Destination.ToAddresses)
	assert.Equal(t, "<p>hi</p>", aws.ToString(captured.Message.Body.Html.Data))
}

func TestSESMailer_FailureIsStructured(t *testing.T) {
	client := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected: Email address is not verified")
		},
	}

	res := NewSESMailer(client, "alerts@example.com", logger.NewTestLogger(t)).Send(context.Background(), testMessage())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not verified")
}

func TestMailers_RejectInvalidMessage(t *testing.T) {
	log := logger.NewTestLogger(t)
	mailers := []Mailer{
		NewSESMailer(&MockSESService{}, "alerts@example.com", log),
		&SMTPMailer{sender: &fakeSender{}, from: "alerts@example.com", logger: log},
		NewDevMailer(log),
	}

	for _, m := range mailers {
		t.Run(m.Provider(), func(t *testing.T) {
			res := m.Send(context.Background(), Message{Subject: "x"})
			assert.False(t, res.Success)
			assert.Equal(t, "no recipients", res.Error)

			res = m.Send(context.Background(), Message{To: []string{"a@example.com"}})
			assert.False(t, res.Success)
		})
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	sender := &fakeSender{}
	m := &SMTPMailer{sender: sender, from: "Letting Alerts <alerts@example.com>", logger: logger.NewTestLogger(t)}

	res := m.Send(context.Background(), testMessage())
	require.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.ID, "<"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"owner@example.com"}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{res.ID}, sender.sent[0].GetHeader("Message-ID"))
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	m := &SMTPMailer{sender: &fakeSender{err: errors.New("535 authentication failed")}, from: "a@example.com", logger: logger.NewTestLogger(t)}

	res := m.Send(context.Background(), testMessage())
	assert.False(t, res.Success)
	assert.Equal(t, "535 authentication failed", res.Error)
}

func TestDevMailer_ReportsSuccess(t *testing.T) {
	res := NewDevMailer(logger.NewTestLogger(t)).Send(context.Background(), testMessage())
	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.ID, "dev-"))
}

func TestNew_ProviderSelection(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(cfg *config.Config)
		ses      SESClient
		wantName string
	}{
		{
			name:     "nothing configured falls back to dev",
			setup:    func(cfg *config.Config) {},
			wantName: ProviderDev,
		},
		{
			name: "auto prefers ses",
			setup: func(cfg *config.Config) {
				cfg.Integrations.AWS.SES.Enabled = true
				cfg.Integrations.AWS.SES.FromEmail = "alerts@example.com"
				cfg.Integrations.SMTP.Host = "smtp.example.com"
				cfg.Integrations.SMTP.DefaultFrom = "alerts@example.com"
			},
			ses:      &MockSESService{},
			wantName: ProviderSES,
		},
		{
			name: "explicit smtp",
			setup: func(cfg *config.Config) {
				cfg.Notifications.Email.Provider = ProviderSMTP
				cfg.Integrations.SMTP.Host = "smtp.example.com"
				cfg.Integrations.SMTP.DefaultFrom = "alerts@example.com"
			},
			wantName: ProviderSMTP,
		},
		{
			name: "explicit ses without client degrades to dev",
			setup: func(cfg *config.Config) {
				cfg.Notifications.Email.Provider = ProviderSES
				cfg.Integrations.AWS.SES.Enabled = true
				cfg.Integrations.AWS.SES.FromEmail = "alerts@example.com"
			},
			wantName: ProviderDev,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			tt.setup(cfg)
			m := New(cfg, tt.ses, logger.NewTestLogger(t))
			assert.Equal(t, tt.wantName, m.Provider())
		})
	}
}

func TestRenderer_CertificateExpiry(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	name, html, err := r.Render(models.NotificationCertificateExpiry, TemplateData{
		RecipientName:   "Morag",
		Priority:        models.PriorityCritical,
		PropertyAddress: "12 <Leith> Walk",
		CertificateType: "Gas Safety",
		DaysRemaining:   5,
		ExpiryDate:      "2024-03-06",
		ActionURL:       "https://app.example.com/certificates/cert-1",
	})
	require.NoError(t, err)
	assert.Equal(t, TemplateCertificateExpiry, name)
	assert.Contains(t, html, "Hello Morag")
	assert.Contains(t, html, "in 5 days")
	assert.Contains(t, html, "12 &lt;Leith&gt; Walk")
	assert.Contains(t, html, "https://app.example.com/certificates/cert-1")
}

func TestRenderer_GenericFallback(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	name, html, err := r.Render(models.NotificationHMOLicenseExpiry, TemplateData{
		Title:   "HMO license expiring",
		Message: "HMO license HMO-1 expires in 20 days",
	})
	require.NoError(t, err)
	assert.Equal(t, TemplateGeneric, name)
	assert.Contains(t, html, "HMO license HMO-1 expires in 20 days")
	assert.Contains(t, html, "Hello,")
}
