package address

import "time"

const DefaultCountry = "Brazil"

type Address struct {
	ID            uint
	UserID        uint
	RecipientName string
	Street        string
	Number        string
	Complement    *string
	City          string
	State         string
	Country       string
	IsDefault     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateAddressInput struct {
	UserID        uint
	RecipientName string
	Street        string
	Number        string
	Complement    *string
	City          string
	State         string
	Country       string
	IsDefault     bool
}

type UpdateAddressInput struct {
	ID            uint
	RecipientName string
	Street        string
	Number        string
	Complement    *string
	City          string
	State         string
	Country       string
	IsDefault     bool
}

// ListFilter matches city, state and country case-insensitively.
type ListFilter struct {
	City    string
	State   string
	Country string
}
