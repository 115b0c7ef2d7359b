package repository

import (
	"context"
	"database/sql"
	"time"

	"letting-compliance/internal/models"
)

type OwnedHMOLicense struct {
	models.HMOLicense
	OwnerID         string
	PropertyAddress string
}

type OwnedRegistration struct {
	models.LandlordRegistration
	OwnerID         string
	PropertyAddress string
}

// LicenseRepository covers council registrations and HMO licenses.
type LicenseRepository struct {
	db *sql.DB
}

func NewLicenseRepository(db *sql.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

const hmoColumns = `h.id, h.property_id, h.license_number, h.council_area, h.status,
	h.issue_date, h.expiry_date, h.max_occupants, h.fire_safety_compliant, h.fee, h.created_at`

const registrationColumns = `r.id, r.property_id, r.registration_number, r.council_area, r.status,
	r.registration_date, r.expiry_date, r.fee, r.created_at`

func scanHMO(row rowScanner, extra ...interface{}) (models.HMOLicense, error) {
	var h models.HMOLicense
	dest := append([]interface{}{
		&h.ID, &h.PropertyID, &h.LicenseNumber, &h.CouncilArea, &h.Status,
		&h.IssueDate, &h.ExpiryDate, &h.MaxOccupants, &h.FireSafetyCompliant, &h.Fee, &h.CreatedAt,
	}, extra...)
	err := row.Scan(dest...)
	return h, err
}

func scanRegistration(row rowScanner, extra ...interface{}) (models.LandlordRegistration, error) {
	var reg models.LandlordRegistration
	dest := append([]interface{}{
		&reg.ID, &reg.PropertyID, &reg.RegistrationNumber, &reg.CouncilArea, &reg.Status,
		&reg.RegistrationDate, &reg.ExpiryDate, &reg.Fee, &reg.CreatedAt,
	}, extra...)
	err := row.Scan(dest...)
	return reg, err
}

func (r *LicenseRepository) HMOLicensesExpiringBetween(ctx context.Context, from, to time.Time) ([]OwnedHMOLicense, error) {
	return queryList(ctx, r.db, "hmo_licenses.expiring", `
		SELECT `+hmoColumns+`, p.owner_id, p.address
		FROM hmo_licenses h
		JOIN properties p ON p.id = h.property_id
		WHERE h.expiry_date >= $1 AND h.expiry_date <= $2
		ORDER BY h.expiry_date ASC`,
		func(row rowScanner) (OwnedHMOLicense, error) {
			var o OwnedHMOLicense
			h, err := scanHMO(row, &o.OwnerID, &o.PropertyAddress)
			o.HMOLicense = h
			return o, err
		}, from, to)
}

func (r *LicenseRepository) RegistrationsExpiringBetween(ctx context.Context, from, to time.Time) ([]OwnedRegistration, error) {
	return queryList(ctx, r.db, "landlord_registrations.expiring", `
		SELECT `+registrationColumns+`, p.owner_id, p.address
		FROM landlord_registrations r
		JOIN properties p ON p.id = r.property_id
		WHERE r.expiry_date >= $1 AND r.expiry_date <= $2
		ORDER BY r.expiry_date ASC`,
		func(row rowScanner) (OwnedRegistration, error) {
			var o OwnedRegistration
			reg, err := scanRegistration(row, &o.OwnerID, &o.PropertyAddress)
			o.LandlordRegistration = reg
			return o, err
		}, from, to)
}

func (r *LicenseRepository) ListHMOByOwner(ctx context.Context, ownerID string) ([]models.HMOLicense, error) {
	return queryList(ctx, r.db, "hmo_licenses.list", `
		SELECT `+hmoColumns+`
		FROM hmo_licenses h
		JOIN properties p ON p.id = h.property_id
		WHERE p.owner_id = $1
		ORDER BY h.expiry_date ASC`,
		func(row rowScanner) (models.HMOLicense, error) { return scanHMO(row) }, ownerID)
}

func (r *LicenseRepository) ListRegistrationsByOwner(ctx context.Context, ownerID string) ([]models.LandlordRegistration, error) {
	return queryList(ctx, r.db, "landlord_registrations.list", `
		SELECT `+registrationColumns+`
		FROM landlord_registrations r
		JOIN properties p ON p.id = r.property_id
		WHERE p.owner_id = $1
		ORDER BY r.expiry_date ASC`,
		func(row rowScanner) (models.LandlordRegistration, error) { return scanRegistration(row) }, ownerID)
}
