package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"letting-compliance/internal/common/database"
	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/compliance"
	"letting-compliance/internal/models"
)

// OverdueAssessment is an assessment with items still outstanding.
type OverdueAssessment struct {
	AssessmentID     string
	PropertyID       string
	OwnerID          string
	PropertyAddress  string
	CreatedAt        time.Time
	OutstandingItems int
}

type AssessmentRepository struct {
	db *sql.DB
}

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// OverdueCandidates groups unresolved items (not compliant, no completed
// date) by assessment, for assessments created on or before createdBefore.
func (r *AssessmentRepository) OverdueCandidates(ctx context.Context, createdBefore time.Time) ([]OverdueAssessment, error) {
	return queryList(ctx, r.db, "assessments.overdue", `
		SELECT a.id, a.property_id, p.owner_id, p.address, a.created_at, COUNT(i.id)
		FROM repairing_standard_assessments a
		JOIN properties p ON p.id = a.property_id
		JOIN repair_items i ON i.assessment_id = a.id
		WHERE i.status <> $1 AND i.completed_date IS NULL AND a.created_at <= $2
		GROUP BY a.id, a.property_id, p.owner_id, p.address, a.created_at
		ORDER BY a.created_at ASC`,
		func(row rowScanner) (OverdueAssessment, error) {
			var o OverdueAssessment
			err := row.Scan(&o.AssessmentID, &o.PropertyID, &o.OwnerID, &o.PropertyAddress, &o.CreatedAt, &o.OutstandingItems)
			return o, err
		}, string(models.RepairItemCompliant), createdBefore)
}

const assessmentColumns = `a.id, a.property_id, a.assessment_date, a.overall_status, a.score, a.created_at`

func scanAssessment(row rowScanner) (models.RepairingStandardAssessment, error) {
	var a models.RepairingStandardAssessment
	err := row.Scan(&a.ID, &a.PropertyID, &a.AssessmentDate, &a.OverallStatus, &a.Score, &a.CreatedAt)
	return a, err
}

const itemColumns = `id, assessment_id, category, COALESCE(description, ''), status, priority, completed_date, created_at`

func scanItem(row rowScanner) (models.RepairItem, error) {
	var (
		it        models.RepairItem
		completed sql.NullTime
	)
	err := row.Scan(&it.ID, &it.AssessmentID, &it.Category, &it.Description, &it.Status, &it.Priority, &completed, &it.CreatedAt)
	it.CompletedDate = nullTimePtr(completed)
	return it, err
}

// ListByOwner returns the owner's assessments with their items attached.
func (r *AssessmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.RepairingStandardAssessment, error) {
	assessments, err := queryList(ctx, r.db, "assessments.list", `
		SELECT `+assessmentColumns+`
		FROM repairing_standard_assessments a
		JOIN properties p ON p.id = a.property_id
		WHERE p.owner_id = $1
		ORDER BY a.assessment_date DESC`, scanAssessment, ownerID)
	if err != nil || len(assessments) == 0 {
		return assessments, err
	}

	ids := make([]string, len(assessments))
	index := make(map[string]int, len(assessments))
	for i, a := range assessments {
		ids[i] = a.ID
		index[a.ID] = i
	}

	items, err := queryList(ctx, r.db, "repair_items.list", `
		SELECT `+itemColumns+`
		FROM repair_items
		WHERE assessment_id = ANY($1)
		ORDER BY created_at ASC`, scanItem, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if i, ok := index[it.AssessmentID]; ok {
			assessments[i].Items = append(assessments[i].Items, it)
		}
	}
	return assessments, nil
}

// UpdateItemStatus changes one item and rewrites the assessment's cached
// score and overall status from the full item set, in one transaction.
func (r *AssessmentRepository) UpdateItemStatus(ctx context.Context, ownerID, assessmentID, itemID string, status models.RepairItemStatus, now time.Time) (models.RepairingStandardAssessment, error) {
	var result models.RepairingStandardAssessment
	if !status.Valid() {
		return result, apperrors.NewValidationError("Unknown repair item status", string(status))
	}

	err := database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		a, err := scanAssessment(tx.QueryRowContext(ctx, `
			SELECT `+assessmentColumns+`
			FROM repairing_standard_assessments a
			JOIN properties p ON p.id = a.property_id
			WHERE a.id = $1 AND p.owner_id = $2
			FOR UPDATE OF a`, assessmentID, ownerID))
		if err != nil {
			return notFoundOr(err, "Assessment", assessmentID, "assessments.get")
		}

		var completed interface{}
		if status.Done() {
			completed = now.UTC()
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE repair_items
			SET status = $1, completed_date = $2
			WHERE id = $3 AND assessment_id = $4`, string(status), completed, itemID, assessmentID)
		if err != nil {
			return apperrors.NewQueryExecutionFailedError("repair_items.update", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.NewNotFoundError("RepairItem", itemID)
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT `+itemColumns+`
			FROM repair_items
			WHERE assessment_id = $1
			ORDER BY created_at ASC`, assessmentID)
		if err != nil {
			return apperrors.NewQueryExecutionFailedError("repair_items.list", err)
		}
		defer rows.Close()
		for rows.Next() {
			it, err := scanItem(rows)
			if err != nil {
				return apperrors.NewQueryExecutionFailedError("repair_items.list", err)
			}
			a.Items = append(a.Items, it)
		}
		if err := rows.Err(); err != nil {
			return apperrors.NewQueryExecutionFailedError("repair_items.list", err)
		}

		summary := compliance.RecomputeAssessment(a.Items)
		if _, err := tx.ExecContext(ctx, `
			UPDATE repairing_standard_assessments
			SET score = $1, overall_status = $2
			WHERE id = $3`, summary.Score, string(summary.OverallStatus), assessmentID); err != nil {
			return apperrors.NewQueryExecutionFailedError("assessments.update", err)
		}

		a.Score = summary.Score
		a.OverallStatus = summary.OverallStatus
		result = a
		return nil
	})
	return result, err
}
