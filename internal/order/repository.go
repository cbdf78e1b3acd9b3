package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-be/internal/db"
	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, userID uint) (*Order, error)
	GetOrderDetail(ctx context.Context, orderID uint) (*Order, error)
	FetchOrders(ctx context.Context, filter ListFilter) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status OrderStatus) error
	Delete(ctx context.Context, orderID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, userID uint) (*Order, error) {
	log := logger.ForMethod(ctx, "repository", "CreateOrder",
		zap.Uint("user_id", userID),
	)

	o := Order{UserID: userID, Status: StatusPending}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, status, total)
		VALUES ($1, $2, 0)
		RETURNING id, total, created_at, updated_at
	`, userID, StatusPending).Scan(&o.ID, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		log.Warn("order owner does not exist")
		return nil, ErrUserNotFound
	}
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return nil, err
	}

	log.Info("order created", zap.Uint("order_id", o.ID))
	return &o, nil
}

func (r *repository) GetOrderDetail(ctx context.Context, orderID uint) (*Order, error) {
	log := logger.ForMethod(ctx, "repository", "GetOrderDetail",
		zap.Uint("order_id", orderID),
	)

	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to query order", zap.Error(err))
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT li.id, li.order_id, li.product_id, p.name, li.quantity, li.unit_price, li.created_at
		FROM order_line_items li
		JOIN products p ON p.id = li.product_id
		WHERE li.order_id = $1
		ORDER BY li.id
	`, orderID)
	if err != nil {
		log.Error("failed to query line items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item LineItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.CreatedAt,
		); err != nil {
			log.Error("failed to scan line item", zap.Error(err))
			return nil, err
		}
		o.Items = append(o.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) FetchOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	limit, offset := paginate(filter.Limit, filter.Page)

	log := logger.ForMethod(ctx, "repository", "FetchOrders",
		zap.Int32("limit", limit),
		zap.Int32("offset", offset),
	)

	query := `
		SELECT o.id, o.user_id, o.status, o.total, o.created_at, o.updated_at
		FROM orders o
		WHERE 1=1
	`
	args := []any{}
	argIndex := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND o.user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND o.status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	log.Debug("executing fetch orders query",
		zap.String("query", query),
		zap.Any("args", args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	log.Info("fetch orders success", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uint, status OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, orderID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete hands the stock of every remaining line item back to its product and
// then removes the order; its items, shipment and payment cascade.
func (r *repository) Delete(ctx context.Context, orderID uint) error {
	log := logger.ForMethod(ctx, "repository", "DeleteOrder",
		zap.Uint("order_id", orderID),
	)

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var id uint
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		restored, err := tx.ExecContext(ctx, `
			UPDATE products p
			SET stock = p.stock + li.quantity, updated_at = NOW()
			FROM (
				SELECT product_id, SUM(quantity) AS quantity
				FROM order_line_items
				WHERE order_id = $1
				GROUP BY product_id
			) li
			WHERE p.id = li.product_id
		`, orderID)
		if err != nil {
			return err
		}
		n, _ := restored.RowsAffected()
		log.Debug("stock restored", zap.Int64("products", n))

		_, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			log.Error("failed to delete order", zap.Error(err))
		}
		return err
	}

	log.Info("order deleted")
	return nil
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
