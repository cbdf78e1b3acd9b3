package user

import "time"

type User struct {
	ID           uint
	Username     string
	Email        string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	IsStaff  bool
}

// ListFilter: Username matches as a substring, Email exactly; both
// case-insensitively.
type ListFilter struct {
	Username string
	Email    string
	Limit    int32
	Page     int32
}
