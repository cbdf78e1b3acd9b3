package cart

import (
	"context"
	"database/sql"
	"errors"

	"ecommerce-be/internal/db"
	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetOrCreateCart(ctx context.Context, userID uint) (*Cart, error)
	GetItems(ctx context.Context, cartID uint) ([]CartItem, error)
	GetItem(ctx context.Context, cartID, productID uint) (*CartItem, error)
	CreateItem(ctx context.Context, cartID, productID uint, quantity int) (*CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) (*CartItem, error)
	RemoveItem(ctx context.Context, cartID, productID uint) error
	Clear(ctx context.Context, cartID uint) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetOrCreateCart relies on the unique user_id to make concurrent first
// calls converge on the same row.
func (r *repository) GetOrCreateCart(ctx context.Context, userID uint) (*Cart, error) {
	log := logger.ForMethod(ctx, "repository", "GetOrCreateCart", zap.Uint("user_id", userID))

	var c Cart
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at, updated_at
	`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		log.Error("failed to get or create cart", zap.Error(err))
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetItems(ctx context.Context, cartID uint) ([]CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.price, ci.quantity, ci.created_at, ci.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		logger.ForMethod(ctx, "repository", "GetCartItems").
			Error("failed to query cart items", zap.Uint("cart_id", cartID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(
			&it.ID, &it.CartID, &it.ProductID, &it.ProductName, &it.UnitPrice,
			&it.Quantity, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetItem returns nil, nil when the product is not in the cart.
func (r *repository) GetItem(ctx context.Context, cartID, productID uint) (*CartItem, error) {
	var it CartItem
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cart_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`, cartID, productID).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repository) CreateItem(ctx context.Context, cartID, productID uint, quantity int) (*CartItem, error) {
	it := CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, quantity, created_at, updated_at
	`, cartID, productID, quantity).Scan(&it.ID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		logger.ForMethod(ctx, "repository", "CreateCartItem").
			Error("failed to insert cart item", zap.Error(err))
		return nil, err
	}
	return &it, nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) (*CartItem, error) {
	var it CartItem
	err := r.db.QueryRowContext(ctx, `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, cart_id, product_id, quantity, created_at, updated_at
	`, quantity, itemID).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repository) RemoveItem(ctx context.Context, cartID, productID uint) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) Clear(ctx context.Context, cartID uint) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
