package cart

import (
	"context"
	"fmt"

	"ecommerce-be/internal/logger"
	"ecommerce-be/internal/product"

	"go.uber.org/zap"
)

// Service manages the per-user cart. Stock is checked but never reserved:
// only the ledger moves stock.
type Service interface {
	AddItem(ctx context.Context, userID, productID uint, quantity int) (*CartItem, error)
	UpdateQuantity(ctx context.Context, userID, productID uint, quantity int) (*CartItem, error)
	RemoveItem(ctx context.Context, userID, productID uint) error
	GetCart(ctx context.Context, userID uint) (*Cart, error)
	Clear(ctx context.Context, userID uint) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

// AddItem merges into an existing line for the same product.
func (s *service) AddItem(ctx context.Context, userID, productID uint, quantity int) (*CartItem, error) {
	log := logger.ForMethod(ctx, "service", "AddToCart",
		zap.Uint("user_id", userID),
		zap.Uint("product_id", productID),
		zap.Int("quantity", quantity),
	)

	if quantity <= 0 {
		log.Warn("rejected non-positive quantity")
		return nil, ErrInvalidQuantity
	}

	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetItem(ctx, c.ID, productID)
	if err != nil {
		return nil, err
	}

	finalQty := quantity
	if existing != nil {
		finalQty += existing.Quantity
	}
	if err := checkStock(p, finalQty); err != nil {
		log.Warn("cart quantity above stock", zap.Int("stock", p.Stock))
		return nil, err
	}

	var item *CartItem
	if existing == nil {
		item, err = s.repo.CreateItem(ctx, c.ID, productID, quantity)
	} else {
		item, err = s.repo.UpdateItemQuantity(ctx, existing.ID, finalQty)
	}
	if err != nil {
		return nil, err
	}

	item.ProductName = p.Name
	item.UnitPrice = p.Price
	log.Info("cart item saved", zap.Int("cart_quantity", item.Quantity))
	return item, nil
}

// UpdateQuantity sets an absolute quantity; zero or less removes the line.
func (s *service) UpdateQuantity(ctx context.Context, userID, productID uint, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, s.RemoveItem(ctx, userID, productID)
	}

	c, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetItem(ctx, c.ID, productID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCartItemNotFound
	}

	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(p, quantity); err != nil {
		return nil, err
	}

	item, err := s.repo.UpdateItemQuantity(ctx, existing.ID, quantity)
	if err != nil {
		return nil, err
	}
	item.ProductName = p.Name
	item.UnitPrice = p.Price
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uint) error {
	c, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.RemoveItem(ctx, c.ID, productID)
}

func (s *service) GetCart(ctx context.Context, userID uint) (*Cart, error) {
	c, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []CartItem{}
	}
	c.Items = items
	return c, nil
}

func (s *service) Clear(ctx context.Context, userID uint) error {
	c, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	n, err := s.repo.Clear(ctx, c.ID)
	if err != nil {
		return err
	}
	logger.ForMethod(ctx, "service", "ClearCart").
		Info("cart cleared", zap.Uint("user_id", userID), zap.Int64("removed", n))
	return nil
}

func checkStock(p *product.Product, quantity int) error {
	if quantity > p.Stock {
		return fmt.Errorf("%w: cannot add %d units of %s, only %d left in stock",
			ErrInsufficientStock, quantity, p.Name, p.Stock)
	}
	return nil
}
