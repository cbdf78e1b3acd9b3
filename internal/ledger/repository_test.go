package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"ecommerce-be/internal/payment"
	"ecommerce-be/internal/shipping"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lineItemCols = []string{"id", "order_id", "product_id", "name", "quantity", "unit_price", "created_at"}

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewRepository(conn), mock
}

func TestRepository_AddLineItemFlow(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	svc := NewService(store, nil)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, user_id, status, total, created_at, updated_at FROM orders WHERE id = \$1 FOR UPDATE`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "total", "created_at", "updated_at"}).
			AddRow(1, 7, "P", "0.00", now, now))
	mock.ExpectQuery(`SELECT id, name, price, stock FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs(uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock"}).AddRow(2, "Mug", "10.00", 5))
	mock.ExpectExec(`UPDATE products SET stock = stock - \$1, updated_at = NOW\(\) WHERE id = \$2 AND stock >= \$1`).
		WithArgs(3, uint(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO order_line_items \(order_id, product_id, quantity, unit_price\)`).
		WithArgs(uint(1), uint(2), 3, decimal.RequireFromString("10.00")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))
	mock.ExpectQuery(`FROM order_line_items li JOIN products p ON p.id = li.product_id WHERE li.order_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows(lineItemCols).AddRow(11, 1, 2, "Mug", 3, "10.00", now))
	mock.ExpectExec(`UPDATE orders SET total = \$1`).
		WithArgs(decimal.RequireFromString("30"), uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item, err := svc.AddLineItem(ctx, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint(11), item.ID)
	assert.Equal(t, "30.00", item.Subtotal().StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DecrementStock_GuardRejects(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE products SET stock = stock - \$1`).
		WithArgs(4, uint(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE products SET stock = stock - \$1`).
		WithArgs(4, uint(2)).
		WillReturnError(&pq.Error{Code: "23514"})
	mock.ExpectCommit()

	err := store.WithinTx(ctx, func(tx Tx) error {
		ok, err := tx.DecrementStock(ctx, 2, 4)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = tx.DecrementStock(ctx, 2, 4)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_WithinTx_ClassifiesConflicts(t *testing.T) {
	ctx := context.Background()

	for _, code := range []pq.ErrorCode{"40001", "40P01"} {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WillReturnError(&pq.Error{Code: code})
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(tx Tx) error {
			_, err := tx.LockOrder(ctx, 1)
			return err
		})
		assert.ErrorIs(t, err, ErrConcurrencyConflict, "code %s", code)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestRepository_LockNotFound(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM products`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM order_line_items li`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := store.WithinTx(ctx, func(tx Tx) error {
		_, err := tx.LockOrder(ctx, 1)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		_, err = tx.LockProduct(ctx, 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
		_, err = tx.LockLineItem(ctx, 1)
		assert.ErrorIs(t, err, ErrLineItemNotFound)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RemoveLineItemFlow(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	svc := NewService(store, nil)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM order_line_items li JOIN products p ON p.id = li.product_id WHERE li.id = \$1`).
		WithArgs(uint(11)).
		WillReturnRows(sqlmock.NewRows(lineItemCols).AddRow(11, 1, 2, "Mug", 3, "10.00", now))
	mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "total", "created_at", "updated_at"}).
			AddRow(1, 7, "P", "30.00", now, now))
	mock.ExpectQuery(`WHERE li.id = \$1 FOR UPDATE OF li`).
		WithArgs(uint(11)).
		WillReturnRows(sqlmock.NewRows(lineItemCols).AddRow(11, 1, 2, "Mug", 3, "10.00", now))
	mock.ExpectQuery(`FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs(uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock"}).AddRow(2, "Mug", "10.00", 2))
	mock.ExpectExec(`UPDATE products SET stock = stock \+ \$1`).
		WithArgs(3, uint(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM order_line_items WHERE id = \$1`).
		WithArgs(uint(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`WHERE li.order_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows(lineItemCols))
	mock.ExpectExec(`UPDATE orders SET total = \$1`).
		WithArgs(decimal.Zero, uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.RemoveLineItem(ctx, 11))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertShipment(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"TrackingTaken", &pq.Error{Code: "23505", Constraint: constraintTrackingNumber}, errIDTaken},
		{"OrderHasShipment", &pq.Error{Code: "23505", Constraint: constraintShipmentOrder}, ErrAlreadyExists},
		{"UnknownAddress", &pq.Error{Code: "23503"}, ErrAddressNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectBegin()
			mock.ExpectQuery(`INSERT INTO shipments`).WillReturnError(tc.err)
			mock.ExpectRollback()

			err := store.WithinTx(ctx, func(tx Tx) error {
				return tx.InsertShipment(ctx, &shipping.Shipment{OrderID: 1, AddressID: 2, TrackingNumber: "EC123456789BR"})
			})
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("Success", func(t *testing.T) {
		store, mock := newMockStore(t)
		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO shipments \(order_id, address_id, tracking_number, status\)`).
			WithArgs(uint(1), uint(2), "EC123456789BR", shipping.StatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(5, now, now))
		mock.ExpectCommit()

		sh := &shipping.Shipment{OrderID: 1, AddressID: 2, TrackingNumber: "EC123456789BR", Status: shipping.StatusPending}
		err := store.WithinTx(ctx, func(tx Tx) error { return tx.InsertShipment(ctx, sh) })
		require.NoError(t, err)
		assert.Equal(t, uint(5), sh.ID)
	})
}

func TestRepository_InsertPayment(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO payments \(order_id, transaction_id, method, status, amount\)`).
		WithArgs(uint(1), "ABCDEF123456", payment.MethodPix, payment.StatusPending, decimal.RequireFromString("12.50")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: constraintTransactionID})
	mock.ExpectRollback()

	err := store.WithinTx(ctx, func(tx Tx) error {
		return tx.InsertPayment(ctx, &payment.Payment{
			OrderID: 1, TransactionID: "ABCDEF123456", Method: payment.MethodPix,
			Status: payment.StatusPending, Amount: decimal.RequireFromString("12.50"),
		})
	})
	assert.ErrorIs(t, err, errIDTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ExistenceChecks(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM shipments WHERE tracking_number = \$1\)`).
		WithArgs("EC123456789BR").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM payments WHERE transaction_id = \$1\)`).
		WithArgs("ABCDEF123456").
		WillReturnError(errors.New("conn reset"))

	taken, err := store.TrackingNumberExists(ctx, "EC123456789BR")
	require.NoError(t, err)
	assert.True(t, taken)

	_, err = store.TransactionIDExists(ctx, "ABCDEF123456")
	assert.Error(t, err)
}

func TestRepository_SetOrderTotal_MissingOrder(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE orders SET total`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.WithinTx(ctx, func(tx Tx) error {
		return tx.SetOrderTotal(ctx, 9, decimal.Zero)
	})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

