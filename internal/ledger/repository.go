package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-be/internal/db"
	"ecommerce-be/internal/order"
	"ecommerce-be/internal/payment"
	"ecommerce-be/internal/shipping"

	"github.com/shopspring/decimal"
)

const (
	constraintTrackingNumber = "shipments_tracking_number_key"
	constraintShipmentOrder  = "shipments_order_id_key"
	constraintTransactionID  = "payments_transaction_id_key"
	constraintPaymentOrder   = "payments_order_id_key"
)

type repository struct {
	db *sql.DB
}

// NewRepository returns the PostgreSQL ledger store. Row locks are taken with
// SELECT ... FOR UPDATE and the stock decrement is guarded in its WHERE clause.
func NewRepository(conn *sql.DB) Store {
	return &repository{db: conn}
}

func (r *repository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		return fn(&pgTx{tx: tx})
	})
	return classify(err)
}

func (r *repository) TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM shipments WHERE tracking_number = $1)`,
		trackingNumber,
	).Scan(&exists)
	return exists, err
}

func (r *repository) TransactionIDExists(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE transaction_id = $1)`,
		transactionID,
	).Scan(&exists)
	return exists, err
}

// classify turns serialization failures and deadlocks into ErrConcurrencyConflict.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrConcurrencyConflict) {
		return err
	}
	if db.IsConflict(err) {
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	}
	return err
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockOrder(ctx context.Context, orderID uint) (*order.Order, error) {
	var o order.Order
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM orders WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *pgTx) LockProduct(ctx context.Context, productID uint) (*ProductRow, error) {
	var p ProductRow
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, price, stock
		FROM products WHERE id = $1
		FOR UPDATE
	`, productID).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const lineItemSelect = `
	SELECT li.id, li.order_id, li.product_id, p.name, li.quantity, li.unit_price, li.created_at
	FROM order_line_items li
	JOIN products p ON p.id = li.product_id
`

func (t *pgTx) scanLineItem(ctx context.Context, query string, arg any) (*order.LineItem, error) {
	var li order.LineItem
	err := t.tx.QueryRowContext(ctx, query, arg).Scan(
		&li.ID, &li.OrderID, &li.ProductID, &li.ProductName,
		&li.Quantity, &li.UnitPrice, &li.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLineItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &li, nil
}

func (t *pgTx) GetLineItem(ctx context.Context, lineItemID uint) (*order.LineItem, error) {
	return t.scanLineItem(ctx, lineItemSelect+` WHERE li.id = $1`, lineItemID)
}

func (t *pgTx) LockLineItem(ctx context.Context, lineItemID uint) (*order.LineItem, error) {
	return t.scanLineItem(ctx, lineItemSelect+` WHERE li.id = $1 FOR UPDATE OF li`, lineItemID)
}

func (t *pgTx) DecrementStock(ctx context.Context, productID uint, qty int) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`, qty, productID)
	if db.IsCheckViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *pgTx) IncrementStock(ctx context.Context, productID uint, qty int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2
	`, qty, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (t *pgTx) InsertLineItem(ctx context.Context, item *order.LineItem) error {
	return t.tx.QueryRowContext(ctx, `
		INSERT INTO order_line_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&item.ID, &item.CreatedAt)
}

func (t *pgTx) DeleteLineItem(ctx context.Context, lineItemID uint) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM order_line_items WHERE id = $1`, lineItemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLineItemNotFound
	}
	return nil
}

func (t *pgTx) ListLineItems(ctx context.Context, orderID uint) ([]order.LineItem, error) {
	rows, err := t.tx.QueryContext(ctx, lineItemSelect+` WHERE li.order_id = $1 ORDER BY li.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []order.LineItem
	for rows.Next() {
		var li order.LineItem
		if err := rows.Scan(
			&li.ID, &li.OrderID, &li.ProductID, &li.ProductName,
			&li.Quantity, &li.UnitPrice, &li.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func (t *pgTx) SetOrderTotal(ctx context.Context, orderID uint, total decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE orders SET total = $1, updated_at = NOW() WHERE id = $2`,
		total, orderID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (t *pgTx) InsertShipment(ctx context.Context, s *shipping.Shipment) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO shipments (order_id, address_id, tracking_number, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, s.OrderID, s.AddressID, s.TrackingNumber, s.Status).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	switch {
	case err == nil:
		return nil
	case db.IsConstraint(err, constraintTrackingNumber):
		return errIDTaken
	case db.IsConstraint(err, constraintShipmentOrder):
		return ErrAlreadyExists
	case db.IsForeignKeyViolation(err):
		return ErrAddressNotFound
	}
	return err
}

func (t *pgTx) InsertPayment(ctx context.Context, p *payment.Payment) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO payments (order_id, transaction_id, method, status, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, p.OrderID, p.TransactionID, p.Method, p.Status, p.Amount).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	switch {
	case err == nil:
		return nil
	case db.IsConstraint(err, constraintTransactionID):
		return errIDTaken
	case db.IsConstraint(err, constraintPaymentOrder):
		return ErrAlreadyExists
	}
	return err
}
