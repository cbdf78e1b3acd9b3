package shipping

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCanceled  Status = "Canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	for _, s := range []Status{StatusPending, StatusShipped, StatusDelivered, StatusCanceled} {
		if strings.EqualFold(string(s), raw) {
			return s, nil
		}
	}
	return "", ErrInvalidStatus
}

type Shipment struct {
	ID             uint
	OrderID        uint
	AddressID      uint
	TrackingNumber string
	Status         Status
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ListFilter struct {
	OrderID   *uint
	AddressID *uint
	Status    *Status
	Limit     int32
	Page      int32
}
