package repository

import (
	"context"
	"database/sql"
	"time"

	"letting-compliance/internal/common/database"
	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/models"
)

type AMLRepository struct {
	db *sql.DB
}

func NewAMLRepository(db *sql.DB) *AMLRepository {
	return &AMLRepository{db: db}
}

const screeningColumns = `s.id, s.user_id, s.full_name, s.date_of_birth, COALESCE(s.nationality, ''), COALESCE(s.country, ''),
	s.status, s.risk_score, s.risk_level, s.review_status, s.edd_required, s.edd_completed,
	COALESCE(s.edd_notes, ''), s.edd_completed_at, COALESCE(s.failure_reason, ''), s.screened_at, s.created_at`

func scanScreening(row rowScanner) (models.AMLScreening, error) {
	var s models.AMLScreening
	var dob, eddAt, screened sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.Subject.FullName, &dob, &s.Subject.Nationality, &s.Subject.Country,
		&s.Status, &s.RiskScore, &s.RiskLevel, &s.ReviewStatus, &s.EDDRequired, &s.EDDCompleted,
		&s.EDDNotes, &eddAt, &s.FailureReason, &screened, &s.CreatedAt)
	s.Subject.DateOfBirth = nullTimePtr(dob)
	s.EDDCompletedAt = nullTimePtr(eddAt)
	s.ScreenedAt = nullTimePtr(screened)
	return s, err
}

const matchColumns = `m.id, m.screening_id, m.match_type, m.matched_name, m.match_score, COALESCE(m.source, ''),
	COALESCE(m.details, ''), m.review_status, COALESCE(m.decision, ''), COALESCE(m.reviewer_notes, ''), m.reviewed_at`

func scanMatch(row rowScanner) (models.AMLMatch, error) {
	var (
		m        models.AMLMatch
		reviewed sql.NullTime
	)
	err := row.Scan(&m.ID, &m.ScreeningID, &m.MatchType, &m.MatchedName, &m.MatchScore, &m.Source,
		&m.Details, &m.ReviewStatus, &m.Decision, &m.ReviewerNotes, &reviewed)
	m.ReviewedAt = nullTimePtr(reviewed)
	return m, err
}

// GetScreening loads a screening owned by userID together with its matches.
func (r *AMLRepository) GetScreening(ctx context.Context, userID, screeningID string) (models.AMLScreening, error) {
	s, err := scanScreening(r.db.QueryRowContext(ctx, `
		SELECT `+screeningColumns+`
		FROM aml_screenings s
		WHERE s.id = $1 AND s.user_id = $2`, screeningID, userID))
	if err != nil {
		return s, notFoundOr(err, "Screening", screeningID, "aml_screenings.get")
	}

	s.Matches, err = queryList(ctx, r.db, "aml_matches.list", `
		SELECT `+matchColumns+`
		FROM aml_matches m
		WHERE m.screening_id = $1
		ORDER BY m.match_score DESC, m.id ASC`, scanMatch, screeningID)
	if err != nil {
		return s, err
	}
	return s, nil
}

// SaveResult replaces the screening's matches and writes the derived risk
// fields in one transaction.
func (r *AMLRepository) SaveResult(ctx context.Context, s models.AMLScreening) error {
	return database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM aml_matches WHERE screening_id = $1`, s.ID); err != nil {
			return apperrors.NewQueryExecutionFailedError("aml_matches.delete", err)
		}

		for _, m := range s.Matches {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO aml_matches (id, screening_id, match_type, matched_name, match_score, source, details, review_status)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				m.ID, s.ID, string(m.MatchType), m.MatchedName, m.MatchScore,
				stringOrNull(m.Source), stringOrNull(m.Details), string(m.ReviewStatus)); err != nil {
				return apperrors.NewDatabaseInsertFailedError("aml_match", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE aml_screenings
			SET status = $1, risk_score = $2, risk_level = $3, review_status = $4,
			    edd_required = $5, failure_reason = NULL, screened_at = $6
			WHERE id = $7`,
			string(s.Status), s.RiskScore, string(s.RiskLevel), string(s.ReviewStatus),
			s.EDDRequired, timeOrNull(s.ScreenedAt), s.ID); err != nil {
			return apperrors.NewQueryExecutionFailedError("aml_screenings.update", err)
		}
		return nil
	})
}

func (r *AMLRepository) MarkFailed(ctx context.Context, screeningID, reason string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE aml_screenings
		SET status = $1, failure_reason = $2, screened_at = $3
		WHERE id = $4`, string(models.ScreeningFailed), reason, at, screeningID)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("aml_screenings.mark_failed", err)
	}
	return nil
}

// GetMatch loads a match whose screening belongs to userID.
func (r *AMLRepository) GetMatch(ctx context.Context, userID, matchID string) (models.AMLMatch, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, `
		SELECT `+matchColumns+`
		FROM aml_matches m
		JOIN aml_screenings s ON s.id = m.screening_id
		WHERE m.id = $1 AND s.user_id = $2`, matchID, userID))
	if err != nil {
		return m, notFoundOr(err, "Match", matchID, "aml_matches.get")
	}
	return m, nil
}

// ReviewMatch records the decision and, once no match on the screening is
// left PENDING, approves the screening. It returns whether that happened.
func (r *AMLRepository) ReviewMatch(ctx context.Context, m models.AMLMatch) (bool, error) {
	var approved bool
	err := database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE aml_matches
			SET review_status = $1, decision = $2, reviewer_notes = $3, reviewed_at = $4
			WHERE id = $5`,
			string(m.ReviewStatus), string(m.Decision), stringOrNull(m.ReviewerNotes), timeOrNull(m.ReviewedAt), m.ID); err != nil {
			return apperrors.NewQueryExecutionFailedError("aml_matches.review", err)
		}

		var pending int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM aml_matches
			WHERE screening_id = $1 AND review_status = $2`,
			m.ScreeningID, string(models.ReviewPending)).Scan(&pending); err != nil {
			return apperrors.NewQueryExecutionFailedError("aml_matches.count_pending", err)
		}
		if pending > 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE aml_screenings SET review_status = $1 WHERE id = $2`,
			string(models.ReviewApproved), m.ScreeningID); err != nil {
			return apperrors.NewQueryExecutionFailedError("aml_screenings.approve", err)
		}
		approved = true
		return nil
	})
	return approved, err
}

// CompleteEDD only flips edd_completed from false to true.
func (r *AMLRepository) CompleteEDD(ctx context.Context, screeningID, notes string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE aml_screenings
		SET edd_completed = true, edd_notes = $1, edd_completed_at = $2
		WHERE id = $3 AND edd_required = true AND edd_completed = false`, notes, at, screeningID)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("aml_screenings.complete_edd", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewBusinessRuleError("EDD cannot be completed", "screening "+screeningID+" is not awaiting EDD")
	}
	return nil
}

func (r *AMLRepository) CountPendingReviews(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM aml_screenings
		WHERE user_id = $1 AND status = $2 AND review_status = $3`,
		userID, string(models.ScreeningCompleted), string(models.ReviewPending)).Scan(&n)
	if err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("aml_screenings.count_pending", err)
	}
	return n, nil
}
