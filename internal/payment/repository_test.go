package payment

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentCols = []string{
	"id", "order_id", "transaction_id", "method", "status", "amount", "paid_at", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewRepository(conn), mock
}

func TestRepository_GetByOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()

		mock.ExpectQuery(`SELECT .* FROM payments WHERE order_id = \$1`).
			WithArgs(uint(101)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(1, 101, "A1B2C3D4E5F6", "Pix", "Pending", "45.50", nil, now, now))

		p, err := repo.GetByOrder(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, "A1B2C3D4E5F6", p.TransactionID)
		assert.Equal(t, MethodPix, p.Method)
		assert.Equal(t, "45.5", p.Amount.String())
		assert.Nil(t, p.PaidAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT .* FROM payments`).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByOrder(ctx, 101)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestRepository_GetByTransactionID_Uppercases(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM payments WHERE transaction_id = \$1`).
		WithArgs("ABCDEF012345").
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(2, 7, "ABCDEF012345", "Credit Card", "Completed", "10.00", now, now, now))

	p, err := repo.GetByTransactionID(context.Background(), "abcdef012345")
	require.NoError(t, err)
	assert.Equal(t, MethodCreditCard, p.Method)
	assert.NotNil(t, p.PaidAt)
}

func TestRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	method := MethodPix
	status := StatusFailed

	mock.ExpectQuery(`SELECT .* FROM payments WHERE 1=1 AND method = \$1 AND status = \$2 ORDER BY id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(method, status, int32(10), int32(10)).
		WillReturnRows(sqlmock.NewRows(paymentCols))

	payments, err := repo.List(context.Background(), ListFilter{Method: &method, Status: &status, Limit: 10, Page: 2})
	assert.NoError(t, err)
	assert.Empty(t, payments)
}

func TestRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("CompletedStampsPaidAt", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()

		mock.ExpectQuery(`UPDATE payments SET status = \$1, paid_at = CASE WHEN \$2 AND paid_at IS NULL`).
			WithArgs(StatusCompleted, true, uint(1)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(1, 9, "ABCDEF012345", "Pix", "Completed", "10.00", now, now, now))

		p, err := repo.UpdateStatus(ctx, 1, StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, p.Status)
		assert.NotNil(t, p.PaidAt)
	})

	t.Run("OtherStatusLeavesPaidAt", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`UPDATE payments`).
			WithArgs(StatusRefunded, false, uint(1)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.UpdateStatus(ctx, 1, StatusRefunded)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`UPDATE payments`).WillReturnError(errors.New("db down"))

		_, err := repo.UpdateStatus(ctx, 1, StatusFailed)
		assert.EqualError(t, err, "db down")
	})
}
