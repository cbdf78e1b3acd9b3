package db

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the services react to.
const (
	PgUniqueViolation      = "23505"
	PgForeignKeyViolation  = "23503"
	PgCheckViolation       = "23514"
	PgSerializationFailure = "40001"
	PgDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == PgUniqueViolation
}

// IsConstraint reports whether err is a unique violation on the named constraint.
func IsConstraint(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == PgUniqueViolation && pqErr.Constraint == constraint
	}
	return false
}

func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == PgForeignKeyViolation
}

func IsCheckViolation(err error) bool {
	return pgCode(err) == PgCheckViolation
}

// IsConflict reports write conflicts that are safe to retry as a whole transaction.
func IsConflict(err error) bool {
	switch pgCode(err) {
	case PgSerializationFailure, PgDeadlockDetected:
		return true
	}
	return false
}
