package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrLineItemNotFound = fmt.Errorf("line item %w", ErrNotFound)
	ErrAddressNotFound  = fmt.Errorf("address %w", ErrNotFound)

	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrExhaustedIDSpace    = errors.New("could not draw an unused identifier")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrAlreadyExists       = errors.New("record already exists for order")

	// errIDTaken is returned by stores when an insert hits the unique
	// constraint on a generated identifier.
	errIDTaken = errors.New("generated identifier already taken")
)

// InsufficientStockError carries the stock seen under lock. It matches
// ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID uint
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
