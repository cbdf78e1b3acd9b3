package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidStatus = errors.New("invalid order status")
)
