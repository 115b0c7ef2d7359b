package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"letting-compliance/internal/models"
)

const (
	TemplateCertificateExpiry = "certificate-expiry"
	TemplateGeneric           = "generic-notification"
)

// TemplateData is the view model shared by every notification email.
type TemplateData struct {
	RecipientName   string
	Title           string
	Message         string
	Priority        models.Priority
	PropertyAddress string
	CertificateType string
	DaysRemaining   int
	ExpiryDate      string
	ActionURL       string
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933; background: #f5f7fa; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto; background: #ffffff; padding: 24px; border-radius: 6px;">
    {{if .RecipientName}}<p>Hello {{.RecipientName}},</p>{{else}}<p>Hello,</p>{{end}}
    {{template "content" .}}
    {{if .ActionURL}}<p><a href="{{.ActionURL}}" style="background: #2563eb; color: #ffffff; padding: 10px 16px; text-decoration: none; border-radius: 4px;">View details</a></p>{{end}}
    <p style="font-size: 12px; color: #7b8794;">You are receiving this because email notifications are enabled on your account.</p>
  </div>
</body>
</html>{{end}}`

const certificateExpiryHTML = `{{define "content"}}
    <h2 style="color: {{if eq .Priority "critical"}}#b91c1c{{else}}#b45309{{end}};">{{.CertificateType}} certificate {{if lt .DaysRemaining 0}}has expired{{else}}expires soon{{end}}</h2>
    <p>The {{.CertificateType}} certificate for <strong>{{.PropertyAddress}}</strong>
    {{if lt .DaysRemaining 0}}expired on {{.ExpiryDate}}.{{else}}expires on {{.ExpiryDate}}, in {{.DaysRemaining}} day{{if ne .DaysRemaining 1}}s{{end}}.{{end}}</p>
    <p>Letting a property without a valid certificate can breach your legal obligations. Arrange a renewal as soon as possible.</p>
{{end}}`

const genericHTML = `{{define "content"}}
    <h2>{{.Title}}</h2>
    <p>{{.Message}}</p>
{{end}}`

// Renderer holds one parsed template set per email template.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	sources := map[string]string{
		TemplateCertificateExpiry: certificateExpiryHTML,
		TemplateGeneric:           genericHTML,
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(sources))}
	for name, content := range sources {
		t, err := template.New(name).Parse(layoutHTML)
		if err != nil {
			return nil, fmt.Errorf("parse layout for %s: %w", name, err)
		}
		if _, err := t.Parse(content); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// TemplateFor maps a notification type to its template. Only certificate
// expiry has a dedicated layout.
func TemplateFor(typ models.NotificationType) string {
	switch typ {
	case models.NotificationCertificateExpiry:
		return TemplateCertificateExpiry
	case models.NotificationHMOLicenseExpiry, models.NotificationRegistrationExpiry,
		models.NotificationRepairingOverdue, models.NotificationAMLReviewRequired, models.NotificationSystem:
		return TemplateGeneric
	}
	return TemplateGeneric
}

// Render returns the template name used and the rendered HTML.
func (r *Renderer) Render(typ models.NotificationType, data TemplateData) (string, string, error) {
	name := TemplateFor(typ)
	t, ok := r.templates[name]
	if !ok {
		return name, "", fmt.Errorf("template %s not registered", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return name, "", fmt.Errorf("render %s: %w", name, err)
	}
	return name, buf.String(), nil
}
