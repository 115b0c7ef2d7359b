package repository

import (
	"context"
	"database/sql"
	"time"

	"letting-compliance/internal/models"
)

// OwnedCertificate carries the owner context the dispatcher needs.
type OwnedCertificate struct {
	models.Certificate
	OwnerID         string
	PropertyAddress string
}

type CertificateRepository struct {
	db *sql.DB
}

func NewCertificateRepository(db *sql.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

const certificateColumns = `c.id, c.property_id, c.certificate_type, COALESCE(c.certificate_number, ''),
	c.issue_date, c.expiry_date, c.status, c.created_at`

func scanCertificate(row rowScanner, extra ...interface{}) (models.Certificate, error) {
	var c models.Certificate
	dest := append([]interface{}{
		&c.ID, &c.PropertyID, &c.CertificateType, &c.CertificateNumber,
		&c.IssueDate, &c.ExpiryDate, &c.Status, &c.CreatedAt,
	}, extra...)
	err := row.Scan(dest...)
	return c, err
}

// ExpiringBetween returns certificates whose expiry falls in [from, to].
func (r *CertificateRepository) ExpiringBetween(ctx context.Context, from, to time.Time) ([]OwnedCertificate, error) {
	return queryList(ctx, r.db, "certificates.expiring", `
		SELECT `+certificateColumns+`, p.owner_id, p.address
		FROM certificates c
		JOIN properties p ON p.id = c.property_id
		WHERE c.expiry_date >= $1 AND c.expiry_date <= $2
		ORDER BY c.expiry_date ASC`,
		func(row rowScanner) (OwnedCertificate, error) {
			var oc OwnedCertificate
			c, err := scanCertificate(row, &oc.OwnerID, &oc.PropertyAddress)
			oc.Certificate = c
			return oc, err
		}, from, to)
}

func (r *CertificateRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Certificate, error) {
	return queryList(ctx, r.db, "certificates.list", `
		SELECT `+certificateColumns+`
		FROM certificates c
		JOIN properties p ON p.id = c.property_id
		WHERE p.owner_id = $1
		ORDER BY c.expiry_date ASC`,
		func(row rowScanner) (models.Certificate, error) { return scanCertificate(row) }, ownerID)
}
