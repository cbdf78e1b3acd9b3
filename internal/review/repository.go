package review

import (
	"context"
	"database/sql"
	"fmt"

	"ecommerce-be/internal/db"
	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	List(ctx context.Context, filter ListFilter) ([]*Review, error)
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rv *Review) error {
	log := logger.ForMethod(ctx, "repository", "CreateReview",
		zap.Uint("product_id", rv.ProductID),
		zap.Uint("user_id", rv.UserID),
	)

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (product_id, user_id, rating, review_text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, rv.ProductID, rv.UserID, rv.Rating, rv.Text).Scan(&rv.ID, &rv.CreatedAt)

	switch {
	case err == nil:
		log.Info("review created", zap.Uint("review_id", rv.ID))
		return nil
	case db.IsConstraint(err, constraintUserProduct):
		return ErrAlreadyReviewed
	case db.IsForeignKeyViolation(err):
		return ErrUnknownReference
	case db.IsCheckViolation(err):
		return ErrInvalidRating
	}

	log.Error("failed to insert review", zap.Error(err))
	return err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Review, error) {
	limit, offset := paginate(filter.Limit, filter.Page)
	log := logger.ForMethod(ctx, "repository", "ListReviews")

	query := `
		SELECT id, product_id, user_id, rating, review_text, created_at
		FROM reviews
		WHERE 1=1
	`
	args := []any{}
	argIndex := 1

	add := func(clause string, v any) {
		query += fmt.Sprintf(clause, argIndex)
		args = append(args, v)
		argIndex++
	}
	if filter.ProductID != nil {
		add(" AND product_id = $%d", *filter.ProductID)
	}
	if filter.UserID != nil {
		add(" AND user_id = $%d", *filter.UserID)
	}
	if filter.MinRating != nil {
		add(" AND rating >= $%d", *filter.MinRating)
	}
	if filter.MaxRating != nil {
		add(" AND rating <= $%d", *filter.MaxRating)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query reviews", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Text, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, &rv)
	}
	return reviews, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewNotFound
	}
	return nil
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
