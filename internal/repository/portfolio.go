package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/models"
)

var openMaintenanceStatuses = []string{
	string(models.MaintenanceOpen),
	string(models.MaintenanceInProgress),
}

// PortfolioRepository serves the dashboard's peripheral counts.
type PortfolioRepository struct {
	db *sql.DB
}

func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func (r *PortfolioRepository) count(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.NewQueryExecutionFailedError(op, err)
	}
	return n, nil
}

func (r *PortfolioRepository) CountProperties(ctx context.Context, ownerID string) (int, error) {
	return r.count(ctx, "properties.count", `SELECT COUNT(*) FROM properties WHERE owner_id = $1`, ownerID)
}

func (r *PortfolioRepository) CountActiveLeases(ctx context.Context, ownerID string) (int, error) {
	return r.count(ctx, "leases.count_active", `
		SELECT COUNT(*) FROM leases l
		JOIN properties p ON p.id = l.property_id
		WHERE p.owner_id = $1 AND l.status = $2`, ownerID, string(models.LeaseActive))
}

// OpenMaintenance lists requests that are open or in progress.
func (r *PortfolioRepository) OpenMaintenance(ctx context.Context, ownerID string) ([]models.MaintenanceRequest, error) {
	return queryList(ctx, r.db, "maintenance_requests.open", `
		SELECT m.id, m.property_id, m.title, m.status, m.priority, m.created_at
		FROM maintenance_requests m
		JOIN properties p ON p.id = m.property_id
		WHERE p.owner_id = $1 AND m.status = ANY($2)
		ORDER BY m.created_at ASC`,
		func(row rowScanner) (models.MaintenanceRequest, error) {
			var m models.MaintenanceRequest
			err := row.Scan(&m.ID, &m.PropertyID, &m.Title, &m.Status, &m.Priority, &m.CreatedAt)
			return m, err
		}, ownerID, pq.Array(openMaintenanceStatuses))
}

type TransactionTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// TransactionTotals sums amounts by type for dates in [from, to).
func (r *PortfolioRepository) TransactionTotals(ctx context.Context, ownerID string, from, to time.Time) (TransactionTotals, error) {
	totals := TransactionTotals{Income: decimal.Zero, Expense: decimal.Zero}

	rows, err := r.db.QueryContext(ctx, `
		SELECT t.type, COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN properties p ON p.id = t.property_id
		WHERE p.owner_id = $1 AND t.date >= $2 AND t.date < $3
		GROUP BY t.type`, ownerID, from, to)
	if err != nil {
		return totals, apperrors.NewQueryExecutionFailedError("transactions.totals", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			typ models.TransactionType
			sum decimal.Decimal
		)
		if err := rows.Scan(&typ, &sum); err != nil {
			return totals, apperrors.NewQueryExecutionFailedError("transactions.totals", err)
		}
		switch typ {
		case models.TransactionIncome:
			totals.Income = sum
		case models.TransactionExpense:
			totals.Expense = sum
		}
	}
	if err := rows.Err(); err != nil {
		return totals, apperrors.NewQueryExecutionFailedError("transactions.totals", err)
	}
	return totals, nil
}
