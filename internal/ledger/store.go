package ledger

import (
	"context"

	"ecommerce-be/internal/order"
	"ecommerce-be/internal/payment"
	"ecommerce-be/internal/shipping"

	"github.com/shopspring/decimal"
)

// ProductRow is the slice of a product the ledger reads under lock.
type ProductRow struct {
	ID    uint
	Name  string
	Price decimal.Decimal
	Stock int
}

// Store opens ledger transactions and answers the identifier pre-checks.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error)
	TransactionIDExists(ctx context.Context, transactionID string) (bool, error)
}

// Tx is a single atomic unit of ledger work. Lock* methods hold the row
// until the transaction ends. Callers lock the order before any product.
type Tx interface {
	LockOrder(ctx context.Context, orderID uint) (*order.Order, error)
	LockProduct(ctx context.Context, productID uint) (*ProductRow, error)

	// GetLineItem reads without locking; LockLineItem re-reads under lock.
	GetLineItem(ctx context.Context, lineItemID uint) (*order.LineItem, error)
	LockLineItem(ctx context.Context, lineItemID uint) (*order.LineItem, error)

	// DecrementStock reports false when the row holds less than qty.
	DecrementStock(ctx context.Context, productID uint, qty int) (bool, error)
	IncrementStock(ctx context.Context, productID uint, qty int) error

	InsertLineItem(ctx context.Context, item *order.LineItem) error
	DeleteLineItem(ctx context.Context, lineItemID uint) error
	ListLineItems(ctx context.Context, orderID uint) ([]order.LineItem, error)
	SetOrderTotal(ctx context.Context, orderID uint, total decimal.Decimal) error

	// InsertShipment and InsertPayment return errIDTaken when the generated
	// identifier collides and ErrAlreadyExists when the order already has one.
	InsertShipment(ctx context.Context, s *shipping.Shipment) error
	InsertPayment(ctx context.Context, p *payment.Payment) error
}
