package user

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
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, username, email, password_hash, is_staff, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, u *User) error {
	log := logger.ForMethod(ctx, "repository", "CreateUser", zap.String("username", u.Username))

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, is_staff)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, u.Username, u.Email, u.PasswordHash, u.IsStaff).Scan(&u.ID, &u.CreatedAt)

	switch {
	case err == nil:
		log.Info("user created", zap.Uint("user_id", u.ID))
		return nil
	case db.IsConstraint(err, constraintEmail):
		return ErrEmailExists
	case db.IsConstraint(err, constraintUsername):
		return ErrUsernameExists
	}

	log.Error("db: failed to insert user", zap.Error(err))
	return err
}

func (r *repository) GetByID(ctx context.Context, id uint) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*User, error) {
	limit, offset := paginate(filter.Limit, filter.Page)
	log := logger.ForMethod(ctx, "repository", "ListUsers")

	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.Username != "" {
		query += fmt.Sprintf(" AND username ILIKE $%d", argIndex)
		args = append(args, "%"+filter.Username+"%")
		argIndex++
	}
	if filter.Email != "" {
		query += fmt.Sprintf(" AND LOWER(email) = LOWER($%d)", argIndex)
		args = append(args, filter.Email)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func paginate(limit, page int32) (int32, int32) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
