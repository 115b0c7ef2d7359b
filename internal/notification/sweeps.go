package notification

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"letting-compliance/internal/common/metrics"
	"letting-compliance/internal/compliance"
	"letting-compliance/internal/mailer"
	"letting-compliance/internal/models"
	"letting-compliance/internal/repository"
)

const dateLayout = "2 January 2006"

func (d *Dispatcher) runSweep(ctx context.Context, category string, now time.Time, run func(context.Context, time.Time) (CategoryResult, error)) (CategoryResult, error) {
	ctx, span := d.tracer.Start(ctx, "notification.sweep")
	span.SetAttributes(attribute.String("category", category))
	defer span.End()

	start := time.Now()
	counts, err := run(ctx, now)
	metrics.SweepDuration.WithLabelValues(category).Observe(time.Since(start).Seconds())

	span.SetAttributes(
		attribute.Int("checked", counts.Checked),
		attribute.Int("created", counts.NotificationsCreated),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate query failed")
		d.logger.Error("notification sweep failed", map[string]interface{}{"category": category, "error": err})
		return CategoryResult{}, err
	}
	return counts, nil
}

// process notifies for one entity; failures are logged and skipped.
func (d *Dispatcher) process(ctx context.Context, category string, now time.Time, a Alert, counts *CategoryResult) {
	counts.Checked++
	out, err := d.notifyAt(ctx, a, now)
	if err != nil {
		metrics.SweepEntityErrors.WithLabelValues(category).Inc()
		d.logger.Warn("skipping entity after notification failure", map[string]interface{}{
			"category": category,
			"entityId": a.EntityID,
			"userId":   a.UserID,
			"error":    err,
		})
		return
	}
	if out.Created {
		counts.NotificationsCreated++
	}
}

func daysPhrase(days int) string {
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "in 1 day"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

func (d *Dispatcher) sweepCertificates(ctx context.Context, now time.Time) (CategoryResult, error) {
	var counts CategoryResult
	th := compliance.ThresholdsFor(compliance.KindCertificate)

	certs, err := d.certificates.ExpiringBetween(ctx, now, now.Add(th.Lookahead()))
	if err != nil {
		return counts, err
	}

	for _, c := range certs {
		d.process(ctx, CategoryCertificates, now, certificateAlert(c, now, th), &counts)
	}
	return counts, nil
}

func certificateAlert(c repository.OwnedCertificate, now time.Time, th compliance.Thresholds) Alert {
	days := compliance.DaysRemaining(c.ExpiryDate, now)
	label := c.CertificateType.Label()
	when := daysPhrase(days)
	expiry := c.ExpiryDate.UTC().Format(dateLayout)

	return Alert{
		UserID:      c.OwnerID,
		Type:        models.NotificationCertificateExpiry,
		Priority:    compliance.PriorityForDaysRemaining(days, th),
		Title:       fmt.Sprintf("%s certificate expiring %s", label, when),
		Message:     fmt.Sprintf("The %s certificate for %s expires %s (%s).", label, c.PropertyAddress, when, expiry),
		Link:        "/certificates/" + c.ID,
		MetadataKey: models.MetaCertificateID,
		EntityID:    c.ID,
		Metadata: map[string]interface{}{
			"propertyId":      c.PropertyID,
			"certificateType": string(c.CertificateType),
			"daysRemaining":   days,
			"expiryDate":      c.ExpiryDate.UTC().Format(time.RFC3339),
		},
		Window: ExpiryWindow,
		Email: mailer.TemplateData{
			PropertyAddress: c.PropertyAddress,
			CertificateType: label,
			DaysRemaining:   days,
			ExpiryDate:      expiry,
		},
		SMS: fmt.Sprintf("%s certificate for %s expires %s.", label, c.PropertyAddress, when),
	}
}

func (d *Dispatcher) sweepHMOLicenses(ctx context.Context, now time.Time) (CategoryResult, error) {
	var counts CategoryResult
	th := compliance.ThresholdsFor(compliance.KindHMOLicense)

	licenses, err := d.licenses.HMOLicensesExpiringBetween(ctx, now, now.Add(th.Lookahead()))
	if err != nil {
		return counts, err
	}

	for _, h := range licenses {
		days := compliance.DaysRemaining(h.ExpiryDate, now)
		when := daysPhrase(days)
		expiry := h.ExpiryDate.UTC().Format(dateLayout)
		d.process(ctx, CategoryHMOLicenses, now, Alert{
			UserID:      h.OwnerID,
			Type:        models.NotificationHMOLicenseExpiry,
			Priority:    compliance.PriorityForDaysRemaining(days, th),
			Title:       "HMO license expiring " + when,
			Message:     fmt.Sprintf("HMO license %s for %s expires %s (%s). Renewals with %s council can take several weeks.", h.LicenseNumber, h.PropertyAddress, when, expiry, h.CouncilArea),
			Link:        "/hmo-licenses/" + h.ID,
			MetadataKey: models.MetaHMOLicenseID,
			EntityID:    h.ID,
			Metadata: map[string]interface{}{
				"propertyId":    h.PropertyID,
				"licenseNumber": h.LicenseNumber,
				"daysRemaining": days,
				"expiryDate":    h.ExpiryDate.UTC().Format(time.RFC3339),
			},
			Window: ExpiryWindow,
			Email:  mailer.TemplateData{PropertyAddress: h.PropertyAddress, DaysRemaining: days, ExpiryDate: expiry},
		}, &counts)
	}
	return counts, nil
}

func (d *Dispatcher) sweepRegistrations(ctx context.Context, now time.Time) (CategoryResult, error) {
	var counts CategoryResult
	th := compliance.ThresholdsFor(compliance.KindRegistration)

	regs, err := d.licenses.RegistrationsExpiringBetween(ctx, now, now.Add(th.Lookahead()))
	if err != nil {
		return counts, err
	}

	for _, r := range regs {
		days := compliance.DaysRemaining(r.ExpiryDate, now)
		when := daysPhrase(days)
		expiry := r.ExpiryDate.UTC().Format(dateLayout)
		d.process(ctx, CategoryRegistrations, now, Alert{
			UserID:      r.OwnerID,
			Type:        models.NotificationRegistrationExpiry,
			Priority:    compliance.PriorityForDaysRemaining(days, th),
			Title:       "Landlord registration expiring " + when,
			Message:     fmt.Sprintf("Landlord registration %s with %s council for %s expires %s (%s).", r.RegistrationNumber, r.CouncilArea, r.PropertyAddress, when, expiry),
			Link:        "/registrations/" + r.ID,
			MetadataKey: models.MetaRegistrationID,
			EntityID:    r.ID,
			Metadata: map[string]interface{}{
				"propertyId":         r.PropertyID,
				"registrationNumber": r.RegistrationNumber,
				"daysRemaining":      days,
				"expiryDate":         r.ExpiryDate.UTC().Format(time.RFC3339),
			},
			Window: ExpiryWindow,
			Email:  mailer.TemplateData{PropertyAddress: r.PropertyAddress, DaysRemaining: days, ExpiryDate: expiry},
		}, &counts)
	}
	return counts, nil
}

func (d *Dispatcher) sweepAssessments(ctx context.Context, now time.Time) (CategoryResult, error) {
	var counts CategoryResult

	overdue, err := d.assessments.OverdueCandidates(ctx, now.AddDate(0, 0, -compliance.OutstandingMinDays))
	if err != nil {
		return counts, err
	}

	for _, a := range overdue {
		days := compliance.DaysOutstanding(a.CreatedAt, now)
		d.process(ctx, CategoryAssessments, now, Alert{
			UserID:   a.OwnerID,
			Type:     models.NotificationRepairingOverdue,
			Priority: compliance.PriorityForDaysOutstanding(days),
			Title:    "Repairing standard items outstanding",
			Message: fmt.Sprintf("%d repair item(s) at %s have been outstanding for %d days since the assessment on %s.",
				a.OutstandingItems, a.PropertyAddress, days, a.CreatedAt.UTC().Format(dateLayout)),
			Link:        "/assessments/" + a.AssessmentID,
			MetadataKey: models.MetaAssessmentID,
			EntityID:    a.AssessmentID,
			Metadata: map[string]interface{}{
				"propertyId":       a.PropertyID,
				"outstandingItems": a.OutstandingItems,
				"daysOutstanding":  days,
			},
			Window: AssessmentWindow,
			Email:  mailer.TemplateData{PropertyAddress: a.PropertyAddress},
		}, &counts)
	}
	return counts, nil
}
