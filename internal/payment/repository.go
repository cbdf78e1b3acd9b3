package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

// Payments are opened by the ledger, which owns transaction id generation;
// this repository only reads them and moves their status.
type Repository interface {
	GetByOrder(ctx context.Context, orderID uint) (*Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	List(ctx context.Context, filter ListFilter) ([]*Payment, error)
	UpdateStatus(ctx context.Context, id uint, status Status) (*Payment, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, order_id, transaction_id, method, status, amount, paid_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (*Payment, error) {
	var p Payment
	if err := s.Scan(
		&p.ID, &p.OrderID, &p.TransactionID, &p.Method, &p.Status,
		&p.Amount, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByOrder(ctx context.Context, orderID uint) (*Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID)

	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		logger.ForMethod(ctx, "repository", "GetPaymentByOrder").
			Error("failed to query payment", zap.Uint("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *repository) GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`,
		strings.ToUpper(transactionID))

	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	limit, offset := paginate(filter.Limit, filter.Page)
	log := logger.ForMethod(ctx, "repository", "ListPayments")

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.OrderID != nil {
		query += fmt.Sprintf(" AND order_id = $%d", argIndex)
		args = append(args, *filter.OrderID)
		argIndex++
	}
	if filter.Method != nil {
		query += fmt.Sprintf(" AND method = $%d", argIndex)
		args = append(args, *filter.Method)
		argIndex++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query payments", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// UpdateStatus stamps paid_at the first time a payment reaches Completed.
func (r *repository) UpdateStatus(ctx context.Context, id uint, status Status) (*Payment, error) {
	log := logger.ForMethod(ctx, "repository", "UpdatePaymentStatus",
		zap.Uint("payment_id", id),
		zap.String("status", string(status)),
	)

	row := r.db.QueryRowContext(ctx, `
		UPDATE payments
		SET status = $1,
			paid_at = CASE WHEN $2 AND paid_at IS NULL THEN NOW() ELSE paid_at END,
			updated_at = NOW()
		WHERE id = $3
		RETURNING `+paymentColumns,
		status, status == StatusCompleted, id,
	)

	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		log.Error("failed to update payment status", zap.Error(err))
		return nil, err
	}

	log.Info("payment status updated")
	return p, nil
}

func paginate(limit, page int32) (int32, int32) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
