package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/models"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCertificateRepository_ExpiringBetween(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCertificateRepository(db)
	to := testNow.AddDate(0, 0, 30)

	rows := sqlmock.NewRows([]string{
		"id", "property_id", "certificate_type", "certificate_number", "issue_date", "expiry_date", "status", "created_at", "owner_id", "address",
	}).AddRow("cert-1", "prop-1", "GAS_SAFETY", "GS-1", testNow.AddDate(-1, 0, 5), testNow.AddDate(0, 0, 5), "VALID", testNow.AddDate(-1, 0, 0), "user-1", "1 High St")

	mock.ExpectQuery(`FROM certificates c JOIN properties p ON p.id = c.property_id WHERE c.expiry_date >= \$1 AND c.expiry_date <= \$2`).
		WithArgs(testNow, to).
		WillReturnRows(rows)

	got, err := repo.ExpiringBetween(context.Background(), testNow, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.CertificateGasSafety, got[0].CertificateType)
	assert.Equal(t, "user-1", got[0].OwnerID)
	assert.Equal(t, "1 High St", got[0].PropertyAddress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepository_QueryFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCertificateRepository(db)

	mock.ExpectQuery(`FROM certificates`).WillReturnError(errors.New("connection reset"))

	_, err := repo.ListByOwner(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, apperrors.CodeOf(err))
}

func TestNotificationRepository_ExistsSince(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)
	since := testNow.Add(-24 * time.Hour)

	mock.ExpectQuery(`SELECT EXISTS \( SELECT 1 FROM notifications WHERE user_id = \$1 AND type = \$2 AND metadata->>\$3 = \$4 AND created_at > \$5 \)`).
		WithArgs("user-1", "CERTIFICATE_EXPIRY", models.MetaCertificateID, "cert-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsSince(context.Background(), "user-1", models.NotificationCertificateExpiry, models.MetaCertificateID, "cert-1", since)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	n := &models.Notification{
		ID: "n-1", UserID: "user-1", Type: models.NotificationCertificateExpiry,
		Title: "Gas Safety certificate expiring", Message: "expires in 5 days",
		Priority: models.PriorityCritical, Link: "/certificates/cert-1",
		Metadata:  map[string]interface{}{models.MetaCertificateID: "cert-1"},
		CreatedAt: testNow,
	}

	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs("n-1", "user-1", "CERTIFICATE_EXPIRY", n.Title, n.Message, "critical", false, "/certificates/cert-1", []byte(`{"certificateId":"cert-1"}`), testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "type", "title", "message", "priority", "read", "link", "metadata", "created_at"}).
		AddRow("n-1", "user-1", "HMO_LICENSE_EXPIRY", "HMO license expiring", "msg", "high", false, "/hmo-licenses/h-1", []byte(`{"hmoLicenseId":"h-1"}`), testNow).
		AddRow("n-2", "user-1", "SYSTEM", "Welcome", "msg", "low", false, nil, nil, testNow.Add(-time.Hour))

	mock.ExpectQuery(`FROM notifications WHERE user_id = \$1 AND \(\$2 = false OR read = false\) ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("user-1", true, 20).
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "user-1", true, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "h-1", got[0].Metadata[models.MetaHMOLicenseID])
	assert.Equal(t, "", got[1].Link)
	assert.Nil(t, got[1].Metadata)
}

func TestNotificationRepository_MarkRead_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec(`UPDATE notifications SET read = true WHERE id = \$1 AND user_id = \$2`).
		WithArgs("n-9", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), "user-1", "n-9")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserRepository_GetContact(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "email_notifications", "sms_notifications"}).
			AddRow("user-1", "Morag", "morag@example.com", nil, true, false))

	u, err := repo.GetContact(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "morag@example.com", u.Email)
	assert.Empty(t, u.Phone)
	assert.True(t, u.EmailNotifications)

	mock.ExpectQuery(`FROM users`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetContact(context.Background(), "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserRepository_UpdatePreferences(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	prefs := models.NotificationPreferences{EmailNotifications: false, SMSNotifications: true}

	mock.ExpectExec(`UPDATE users SET email_notifications = \$1, sms_notifications = \$2 WHERE id = \$3`).
		WithArgs(false, true, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePreferences(context.Background(), "user-1", prefs))

	mock.ExpectExec(`UPDATE users`).
		WithArgs(false, true, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdatePreferences(context.Background(), "ghost", prefs)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepository_UpdateItemStatus_Recomputes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM repairing_standard_assessments a JOIN properties p ON p.id = a.property_id WHERE a.id = \$1 AND p.owner_id = \$2 FOR UPDATE OF a`).
		WithArgs("a-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "property_id", "assessment_date", "overall_status", "score", "created_at"}).
			AddRow("a-1", "prop-1", testNow.AddDate(0, -2, 0), "IN_PROGRESS", 60, testNow.AddDate(0, -2, 0)))
	mock.ExpectExec(`UPDATE repair_items SET status = \$1, completed_date = \$2 WHERE id = \$3 AND assessment_id = \$4`).
		WithArgs("completed", testNow, "item-7", "a-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	itemRows := sqlmock.NewRows([]string{"id", "assessment_id", "category", "description", "status", "priority", "completed_date", "created_at"})
	statuses := []string{"compliant", "compliant", "compliant", "compliant", "completed", "completed", "completed", "non_compliant", "non_compliant", "non_compliant"}
	for i, s := range statuses {
		itemRows.AddRow("item-"+string(rune('0'+i)), "a-1", "structure", "", s, "medium", nil, testNow.AddDate(0, -2, 0))
	}
	mock.ExpectQuery(`FROM repair_items WHERE assessment_id = \$1`).WithArgs("a-1").WillReturnRows(itemRows)
	mock.ExpectExec(`UPDATE repairing_standard_assessments SET score = \$1, overall_status = \$2 WHERE id = \$3`).
		WithArgs(70, "NON_COMPLIANT", "a-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.UpdateItemStatus(context.Background(), "user-1", "a-1", "item-7", models.RepairItemCompleted, testNow)
	require.NoError(t, err)
	assert.Equal(t, 70, got.Score)
	assert.Equal(t, models.AssessmentNonCompliant, got.OverallStatus)
	assert.Len(t, got.Items, 10)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepository_UpdateItemStatus_NotOwned(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM repairing_standard_assessments`).WithArgs("a-1", "intruder").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.UpdateItemStatus(context.Background(), "intruder", "a-1", "item-1", models.RepairItemCompliant, testNow)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepository_UpdateItemStatus_UnknownStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssessmentRepository(db)

	_, err := repo.UpdateItemStatus(context.Background(), "user-1", "a-1", "item-1", models.RepairItemStatus("fixed"), testNow)
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAMLRepository_ReviewMatch(t *testing.T) {
	reviewedAt := testNow
	match := models.AMLMatch{
		ID: "m-1", ScreeningID: "scr-1", ReviewStatus: models.ReviewAccepted,
		Decision: models.DecisionAccept, ReviewerNotes: "false positive", ReviewedAt: &reviewedAt,
	}

	tests := []struct {
		name         string
		pending      int
		wantApproved bool
	}{
		{"last pending match approves screening", 0, true},
		{"other matches still pending", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewAMLRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE aml_matches SET review_status = \$1, decision = \$2, reviewer_notes = \$3, reviewed_at = \$4 WHERE id = \$5`).
				WithArgs("ACCEPTED", "ACCEPT", "false positive", testNow, "m-1").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery(`SELECT COUNT\(\*\) FROM aml_matches WHERE screening_id = \$1 AND review_status = \$2`).
				WithArgs("scr-1", "PENDING").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.pending))
			if tt.wantApproved {
				mock.ExpectExec(`UPDATE aml_screenings SET review_status = \$1 WHERE id = \$2`).
					WithArgs("APPROVED", "scr-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			}
			mock.ExpectCommit()

			approved, err := repo.ReviewMatch(context.Background(), match)
			require.NoError(t, err)
			assert.Equal(t, tt.wantApproved, approved)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAMLRepository_CompleteEDD_OneWay(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAMLRepository(db)

	mock.ExpectExec(`UPDATE aml_screenings SET edd_completed = true, edd_notes = \$1, edd_completed_at = \$2 WHERE id = \$3 AND edd_required = true AND edd_completed = false`).
		WithArgs("source of funds verified", testNow, "scr-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CompleteEDD(context.Background(), "scr-1", "source of funds verified", testNow)
	assert.True(t, apperrors.IsBusinessRule(err))
}

func TestPortfolioRepository_TransactionTotals(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPortfolioRepository(db)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	mock.ExpectQuery(`FROM transactions t JOIN properties p ON p.id = t.property_id WHERE p.owner_id = \$1 AND t.date >= \$2 AND t.date < \$3 GROUP BY t.type`).
		WithArgs("user-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"type", "sum"}).
			AddRow("INCOME", "2450.00").
			AddRow("EXPENSE", "310.55"))

	got, err := repo.TransactionTotals(context.Background(), "user-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, "2450", got.Income.String())
	assert.Equal(t, "310.55", got.Expense.String())
}

func TestPortfolioRepository_OpenMaintenance(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPortfolioRepository(db)

	mock.ExpectQuery(`FROM maintenance_requests m JOIN properties p ON p.id = m.property_id WHERE p.owner_id = \$1 AND m.status = ANY\(\$2\)`).
		WithArgs("user-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "property_id", "title", "status", "priority", "created_at"}).
			AddRow("mr-1", "prop-1", "Boiler leak", "OPEN", "URGENT", testNow))

	got, err := repo.OpenMaintenance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.MaintenanceUrgent, got[0].Priority)
}
