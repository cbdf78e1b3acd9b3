package product

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductNameTaken = errors.New("product name already exists")
	ErrProductInUse     = errors.New("product is referenced by orders")
	ErrInvalidName      = errors.New("product name must be 1-45 characters")
	ErrInvalidPrice     = errors.New("price must be a non-negative amount with at most 2 decimal places")
	ErrInvalidStock     = errors.New("stock cannot be negative")
	ErrInvalidRestock   = errors.New("restock quantity must be greater than zero")
	ErrNothingToUpdate  = errors.New("no product field to update")
	ErrUnknownCategory  = errors.New("category does not exist")
)

const constraintProductName = "products_name_key"
