package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxi-labs/presale/app/models"
	"github.com/mxi-labs/presale/internal/pkg/database"
)

func TestUpdateStatusIfCurrent(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "row matched", affected: 1, want: true},
		{name: "status changed underneath", affected: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := database.NewMockDB(t)
			repo := NewPaymentRepository(db)
			now := time.Now()

			mock.ExpectExec("UPDATE `payments` SET .*`confirmed_at`=.*`status`=.* WHERE .*payment_id = \\? AND status = \\?").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.UpdateStatusIfCurrent("MXI-1", models.PaymentStatusPending, PaymentUpdate{
				Status:      models.PaymentStatusConfirmed,
				ConfirmedAt: &now,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateStatusIfCurrentIncrementsAttempts(t *testing.T) {
	db, mock := database.NewMockDB(t)
	repo := NewPaymentRepository(db)
	tx := "0xabc"
	now := time.Now()

	mock.ExpectExec("UPDATE `payments` SET .*`okx_transaction_id`=.*`verification_attempts`=verification_attempts \\+ \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateStatusIfCurrent("MXI-1", models.PaymentStatusPending, PaymentUpdate{
		Status:             models.PaymentStatusConfirming,
		OkxTransactionID:   &tx,
		IncrementAttempts:  true,
		LastVerificationAt: &now,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusIfCurrentPropagatesErrors(t *testing.T) {
	db, mock := database.NewMockDB(t)
	repo := NewPaymentRepository(db)
	boom := errors.New("deadlock found")

	mock.ExpectExec("UPDATE `payments`").WillReturnError(boom)

	ok, err := repo.UpdateStatusIfCurrent("MXI-1", models.PaymentStatusConfirmed, PaymentUpdate{
		Status:           models.PaymentStatusPending,
		ClearConfirmedAt: true,
	})
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}

func TestExpireOverdue(t *testing.T) {
	db, mock := database.NewMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectExec("UPDATE `payments` SET `status`=.* WHERE .*status IN \\(\\?,\\?\\) AND expires_at < \\?").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpireOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDForUpdateLocksRow(t *testing.T) {
	db, mock := database.NewMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "mxi_balance", "usdt_contributed"}).AddRow("user-1", "10.5", "499")
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE id = \\? .*FOR UPDATE").WillReturnRows(rows)

	u, err := repo.GetByIDForUpdate("user-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.5").Equal(u.MxiBalance))
	assert.True(t, decimal.NewFromInt(499).Equal(u.UsdtContributed))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReferrerID(t *testing.T) {
	db, mock := database.NewMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT `id`,`referred_by` FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "referred_by"}).AddRow("A", "B"))
	mock.ExpectQuery("SELECT `id`,`referred_by` FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "referred_by"}).AddRow("B", nil))

	ref, err := repo.GetReferrerID("A")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "B", *ref)

	ref, err = repo.GetReferrerID("B")
	require.NoError(t, err)
	assert.Nil(t, ref)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementMetricsUpserts(t *testing.T) {
	db, mock := database.NewMockDB(t)
	repo := NewPresaleMetricsRepository(db)

	mock.ExpectExec("INSERT INTO `presale_metrics` .* ON DUPLICATE KEY UPDATE .*total_tokens_sold.*total_tokens_sold \\+ \\?").
		WillReturnResult(sqlmock.NewResult(1, 2))

	err := repo.Increment(MetricsDelta{
		TokensSold:        decimal.NewFromInt(250),
		UsdtContributed:   decimal.NewFromInt(100),
		TokensDistributed: decimal.NewFromInt(250),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommissionAndAuditInserts(t *testing.T) {
	db, mock := database.NewMockDB(t)
	repos := NewRepositories(db)

	mock.ExpectExec("INSERT INTO `commissions`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `audit_logs`").WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repos.Commission.Create(&models.Commission{
		UserID:     "B",
		FromUserID: "A",
		Level:      1,
		Amount:     decimal.NewFromInt(50),
		Percentage: decimal.NewFromInt(5),
		Status:     models.CommissionStatusPending,
	}))
	require.NoError(t, repos.AuditLog.Create(&models.AuditLog{
		Action:    models.AuditActionConfirm,
		PaymentID: "MXI-1",
		UserID:    "A",
		Status:    models.AuditStatusSuccess,
	}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGlobalFactory(t *testing.T) {
	db, _ := database.NewMockDB(t)
	InitializeFactory(db)

	f := GetGlobalFactory()
	assert.Same(t, db, f.DB())
	assert.Same(t, f.GetRepositories(), GetGlobalRepositories())
	assert.NotNil(t, f.GetRepositories().Payment)
	assert.NotNil(t, f.GetRepositories().AuditLog)
}

func TestListAuditLogsByPaymentID(t *testing.T) {
	db, mock := database.NewMockDB(t)
	repo := NewAuditLogRepository(db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "action", "payment_id", "user_id", "admin_id", "status", "details", "created_at"}).
		AddRow(1, "verify", "MXI-1", "user-1", nil, "failed", []byte(`{"error":"Transaction not found"}`), at).
		AddRow(2, "confirm", "MXI-1", "user-1", "admin-42", "success", []byte(`{}`), at.Add(time.Minute))
	mock.ExpectQuery("SELECT \\* FROM `audit_logs` WHERE payment_id = \\? ORDER BY created_at ASC, id ASC").
		WithArgs("MXI-1").
		WillReturnRows(rows)

	entries, err := repo.ListByPaymentID("MXI-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionVerify, entries[0].Action)
	assert.Nil(t, entries[0].AdminID)
	require.NotNil(t, entries[1].AdminID)
	assert.Equal(t, "admin-42", *entries[1].AdminID)
	require.NoError(t, mock.ExpectationsWereMet())
}
