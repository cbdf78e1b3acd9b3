package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-be/internal/db"
	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, addr *Address) error
	Update(ctx context.Context, addr *Address) error
	GetByID(ctx context.Context, id uint) (*Address, error)
	ListByUser(ctx context.Context, userID uint, filter ListFilter) ([]*Address, error)
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const addressColumns = `
	id, user_id, recipient_name, street, number, complement,
	city, state, country, is_default, created_at, updated_at
`

type scanner interface {
	Scan(dest ...any) error
}

func scanAddress(s scanner) (*Address, error) {
	var a Address
	if err := s.Scan(
		&a.ID, &a.UserID, &a.RecipientName, &a.Street, &a.Number, &a.Complement,
		&a.City, &a.State, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

// clearDefault drops the default flag from the user's other addresses.
func clearDefault(ctx context.Context, tx *sql.Tx, userID, keepID uint) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE addresses
		SET is_default = false, updated_at = NOW()
		WHERE user_id = $1 AND is_default = true AND id <> $2
	`, userID, keepID)
	return err
}

func (r *repository) Create(ctx context.Context, addr *Address) error {
	log := logger.ForMethod(ctx, "repository", "CreateAddress",
		zap.Uint("user_id", addr.UserID),
		zap.Bool("is_default", addr.IsDefault),
	)

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		if addr.IsDefault {
			if err := clearDefault(ctx, tx, addr.UserID, 0); err != nil {
				return err
			}
		}
		return tx.QueryRowContext(ctx, `
			INSERT INTO addresses (
				user_id, recipient_name, street, number, complement,
				city, state, country, is_default
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`,
			addr.UserID, addr.RecipientName, addr.Street, addr.Number, addr.Complement,
			addr.City, addr.State, addr.Country, addr.IsDefault,
		).Scan(&addr.ID, &addr.CreatedAt, &addr.UpdatedAt)
	})
	if db.IsForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	if err != nil {
		log.Error("failed to create address", zap.Error(err))
		return err
	}

	log.Info("address created", zap.Uint("address_id", addr.ID))
	return nil
}

func (r *repository) Update(ctx context.Context, addr *Address) error {
	log := logger.ForMethod(ctx, "repository", "UpdateAddress",
		zap.Uint("address_id", addr.ID),
	)

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		if addr.IsDefault {
			if err := clearDefault(ctx, tx, addr.UserID, addr.ID); err != nil {
				return err
			}
		}
		err := tx.QueryRowContext(ctx, `
			UPDATE addresses
			SET recipient_name = $1, street = $2, number = $3, complement = $4,
				city = $5, state = $6, country = $7, is_default = $8, updated_at = NOW()
			WHERE id = $9
			RETURNING updated_at
		`,
			addr.RecipientName, addr.Street, addr.Number, addr.Complement,
			addr.City, addr.State, addr.Country, addr.IsDefault, addr.ID,
		).Scan(&addr.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAddressNotFound
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrAddressNotFound) {
			log.Error("failed to update address", zap.Error(err))
		}
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		logger.ForMethod(ctx, "repository", "GetAddressByID").
			Error("query failed", zap.Uint("address_id", id), zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint, filter ListFilter) ([]*Address, error) {
	log := logger.ForMethod(ctx, "repository", "ListAddresses", zap.Uint("user_id", userID))

	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1`
	args := []any{userID}
	argIndex := 2

	for _, f := range []struct{ column, value string }{
		{"city", filter.City},
		{"state", filter.State},
		{"country", filter.Country},
	} {
		if f.value == "" {
			continue
		}
		query += fmt.Sprintf(" AND %s ILIKE $%d", f.column, argIndex)
		args = append(args, f.value)
		argIndex++
	}
	query += " ORDER BY is_default DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var res []*Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return ErrAddressInUse
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAddressNotFound
	}
	return nil
}
