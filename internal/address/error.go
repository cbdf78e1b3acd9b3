package address

import "errors"

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrAddressInUse    = errors.New("address is referenced by a shipment")
	ErrUserNotFound    = errors.New("user not found")
	ErrMissingField    = errors.New("missing required address field")
	ErrFieldTooLong    = errors.New("address field too long")
)
