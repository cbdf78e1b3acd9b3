package shipping

import "errors"

var (
	ErrShipmentNotFound = errors.New("shipment not found")
	ErrInvalidStatus    = errors.New("invalid shipment status")
)
