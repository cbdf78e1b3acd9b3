package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-be/internal/db"
	"ecommerce-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uint) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	Update(ctx context.Context, p *Product, replaceCategories bool) error
	Restock(ctx context.Context, id uint, quantity int) (int, error)
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const selectProduct = `
	SELECT
		p.id, p.name, p.description, p.price, p.stock,
		COALESCE(
			array_agg(pc.category_id ORDER BY pc.category_id)
				FILTER (WHERE pc.category_id IS NOT NULL),
			'{}'
		) AS category_ids,
		p.created_at, p.updated_at
	FROM products p
	LEFT JOIN product_categories pc ON pc.product_id = p.id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		pq.Array(&p.CategoryIDs),
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	log := logger.ForMethod(ctx, "repository", "CreateProduct",
		zap.String("name", p.Name),
	)

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO products (name, description, price, stock)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`, p.Name, p.Description, p.Price, p.Stock).
			Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return err
		}

		return linkCategories(ctx, tx, p.ID, p.CategoryIDs)
	})
	if err != nil {
		return r.translate(log, "failed to create product", err)
	}

	log.Info("product created", zap.Uint("product_id", p.ID))
	return nil
}

func linkCategories(ctx context.Context, tx *sql.Tx, productID uint, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO product_categories (product_id, category_id)
		SELECT $1, UNNEST($2::bigint[])
		ON CONFLICT DO NOTHING
	`, productID, pq.Array(categoryIDs))
	return err
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		selectProduct+` WHERE p.id = $1 GROUP BY p.id`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.ForMethod(ctx, "repository", "GetProductByID",
			zap.Uint("product_id", id),
		).Error("query failed", zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	limit, offset := paginate(filter.Limit, filter.Page)

	log := logger.ForMethod(ctx, "repository", "ListProducts",
		zap.Int32("limit", limit),
		zap.Int32("offset", offset),
	)

	query := selectProduct + ` WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.Name != "" {
		query += fmt.Sprintf(" AND p.name ILIKE $%d", argIndex)
		args = append(args, "%"+filter.Name+"%")
		argIndex++
	}

	if filter.CategoryID != nil {
		query += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM product_categories f WHERE f.product_id = p.id AND f.category_id = $%d)",
			argIndex,
		)
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.InStock != nil {
		if *filter.InStock {
			query += " AND p.stock > 0"
		} else {
			query += " AND p.stock = 0"
		}
	}

	query += fmt.Sprintf(" GROUP BY p.id ORDER BY p.id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	log.Debug("executing list products query", zap.String("query", query))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return products, nil
}

func (r *repository) Update(ctx context.Context, p *Product, replaceCategories bool) error {
	log := logger.ForMethod(ctx, "repository", "UpdateProduct",
		zap.Uint("product_id", p.ID),
	)

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE products
			SET name = $1, description = $2, price = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING updated_at
		`, p.Name, p.Description, p.Price, p.ID).Scan(&p.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}

		if !replaceCategories {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM product_categories WHERE product_id = $1`, p.ID,
		); err != nil {
			return err
		}
		return linkCategories(ctx, tx, p.ID, p.CategoryIDs)
	})
	if err != nil {
		return r.translate(log, "failed to update product", err)
	}

	return nil
}

func (r *repository) Restock(ctx context.Context, id uint, quantity int) (int, error) {
	var stock int
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING stock
	`, quantity, id).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		logger.ForMethod(ctx, "repository", "Restock",
			zap.Uint("product_id", id),
		).Error("failed to restock", zap.Error(err))
		return 0, err
	}
	return stock, nil
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	log := logger.ForMethod(ctx, "repository", "DeleteProduct",
		zap.Uint("product_id", id),
	)

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return r.translate(log, "failed to delete product", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// translate maps constraint violations to package errors and logs the rest.
func (r *repository) translate(log *zap.Logger, msg string, err error) error {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return err
	case db.IsConstraint(err, constraintProductName):
		log.Warn("duplicate product name")
		return ErrProductNameTaken
	case db.IsForeignKeyViolation(err):
		log.Warn("foreign key violation", zap.Error(err))
		if isCategoryFK(err) {
			return ErrUnknownCategory
		}
		return ErrProductInUse
	}
	log.Error(msg, zap.Error(err))
	return err
}

func isCategoryFK(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Table == "product_categories"
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
