package product

import (
	"time"

	"github.com/shopspring/decimal"
)

const MaxNameLength = 45

type Product struct {
	ID          uint
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryIDs []int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InStock is derived from the stock counter rather than stored.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryIDs []int64
}

// UpdateProductInput leaves nil fields untouched. Stock is not editable here:
// it moves through the ledger or Restock only.
type UpdateProductInput struct {
	ID          uint
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryIDs []int64
}

type ListFilter struct {
	Name       string
	CategoryID *uint
	InStock    *bool
	Limit      int32
	Page       int32
}
