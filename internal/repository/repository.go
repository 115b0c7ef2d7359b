package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "letting-compliance/internal/common/errors"
)

// Repositories bundles every store constructed at process start.
type Repositories struct {
	Certificates  *CertificateRepository
	Licenses      *LicenseRepository
	Assessments   *AssessmentRepository
	Notifications *NotificationRepository
	EmailLogs     *EmailLogRepository
	Users         *UserRepository
	AML           *AMLRepository
	Portfolio     *PortfolioRepository
}

func New(db *sql.DB) *Repositories {
	return &Repositories{
		Certificates:  NewCertificateRepository(db),
		Licenses:      NewLicenseRepository(db),
		Assessments:   NewAssessmentRepository(db),
		Notifications: NewNotificationRepository(db),
		EmailLogs:     NewEmailLogRepository(db),
		Users:         NewUserRepository(db),
		AML:           NewAMLRepository(db),
		Portfolio:     NewPortfolioRepository(db),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func notFoundOr(err error, resource, id, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError(resource, id)
	}
	return apperrors.NewQueryExecutionFailedError(op, err)
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func timeOrNull(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func stringOrNull(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// queryList runs a query and scans every row with scan.
func queryList[T any](ctx context.Context, db *sql.DB, op, query string, scan func(rowScanner) (T, error), args ...interface{}) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(op, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(op, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(op, err)
	}
	return out, nil
}
