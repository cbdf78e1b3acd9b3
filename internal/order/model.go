package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "P"
	StatusShipped   OrderStatus = "S"
	StatusDelivered OrderStatus = "D"
	StatusCanceled  OrderStatus = "C"
)

var statusLabels = map[OrderStatus]string{
	StatusPending:   "Pending",
	StatusShipped:   "Shipped",
	StatusDelivered: "Delivered",
	StatusCanceled:  "Canceled",
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s OrderStatus) Label() string {
	return statusLabels[s]
}

// ParseStatus accepts either the stored code ("P") or the label ("pending").
func ParseStatus(raw string) (OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if s := OrderStatus(strings.ToUpper(raw)); s.Valid() {
		return s, nil
	}
	for code, label := range statusLabels {
		if strings.EqualFold(label, raw) {
			return code, nil
		}
	}
	return "", ErrInvalidStatus
}

type Order struct {
	ID        uint
	UserID    uint
	Status    OrderStatus
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []LineItem
}

// LineItem keeps the unit price captured when it was added, so later product
// price changes never reach historical orders.
type LineItem struct {
	ID          uint
	OrderID     uint
	ProductID   uint
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	CreatedAt   time.Time
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumLineItems is the exact order total for items; zero when empty.
func SumLineItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

type ListFilter struct {
	UserID *uint
	Status *OrderStatus
	Limit  int32
	Page   int32
}
