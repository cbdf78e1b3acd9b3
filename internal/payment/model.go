package payment

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodPix        Method = "Pix"
	MethodCreditCard Method = "Credit Card"
)

func (m Method) Valid() bool {
	return m == MethodPix || m == MethodCreditCard
}

// ParseMethod matches case-insensitively and tolerates "credit_card".
func ParseMethod(raw string) (Method, error) {
	norm := strings.ReplaceAll(strings.TrimSpace(raw), "_", " ")
	for _, m := range []Method{MethodPix, MethodCreditCard} {
		if strings.EqualFold(string(m), norm) {
			return m, nil
		}
	}
	return "", ErrInvalidMethod
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusRefunded  Status = "Refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// Payment is the payment record of an order. Amount is the order total at
// the moment the record was opened.
type Payment struct {
	ID            uint
	OrderID       uint
	TransactionID string
	Method        Method
	Status        Status
	Amount        decimal.Decimal
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ListFilter struct {
	OrderID *uint
	Method  *Method
	Status  *Status
	Limit   int32
	Page    int32
}
