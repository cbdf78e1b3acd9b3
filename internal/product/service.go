package product

import (
	"context"
	"strings"
	"time"

	"ecommerce-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxPrice is the first value that no longer fits numeric(10,2).
var maxPrice = decimal.New(1, 8)

type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*Product, error)
	GetByID(ctx context.Context, id uint) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	Update(ctx context.Context, input UpdateProductInput) (*Product, error)
	Restock(ctx context.Context, id uint, quantity int) (int, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*Product, error) {
	log := logger.ForMethod(ctx, "service", "CreateProduct")

	name := strings.TrimSpace(input.Name)
	if err := validateName(name); err != nil {
		log.Warn("invalid product name", zap.String("name", input.Name))
		return nil, err
	}
	if err := ValidatePrice(input.Price); err != nil {
		log.Warn("invalid product price", zap.String("price", input.Price.String()))
		return nil, err
	}
	if input.Stock < 0 {
		log.Warn("negative stock", zap.Int("stock", input.Stock))
		return nil, ErrInvalidStock
	}

	p := &Product{
		Name:        name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryIDs: input.CategoryIDs,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	log.Info("create product success", zap.Uint("product_id", p.ID))
	return p, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	log := logger.ForMethod(ctx, "service", "ListProducts")
	start := time.Now()

	filter.Name = strings.TrimSpace(filter.Name)

	products, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error("failed to fetch product list",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, err
	}

	log.Info("get product list success",
		zap.Int("count", len(products)),
		zap.Duration("duration", time.Since(start)),
	)
	return products, nil
}

func (s *service) Update(ctx context.Context, input UpdateProductInput) (*Product, error) {
	log := logger.ForMethod(ctx, "service", "UpdateProduct",
		zap.Uint("product_id", input.ID),
	)

	if input.Name == nil && input.Description == nil && input.Price == nil && input.CategoryIDs == nil {
		return nil, ErrNothingToUpdate
	}

	p, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := validateName(name); err != nil {
			log.Warn("invalid product name")
			return nil, err
		}
		p.Name = name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		if err := ValidatePrice(*input.Price); err != nil {
			log.Warn("invalid product price")
			return nil, err
		}
		// Only the product moves; captured line item prices stay as they were.
		p.Price = *input.Price
	}

	replaceCategories := input.CategoryIDs != nil
	if replaceCategories {
		p.CategoryIDs = input.CategoryIDs
	}

	if err := s.repo.Update(ctx, p, replaceCategories); err != nil {
		return nil, err
	}

	log.Info("update product success")
	return p, nil
}

func (s *service) Restock(ctx context.Context, id uint, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidRestock
	}

	stock, err := s.repo.Restock(ctx, id, quantity)
	if err != nil {
		return 0, err
	}

	logger.ForMethod(ctx, "service", "Restock",
		zap.Uint("product_id", id),
		zap.Int("quantity", quantity),
		zap.Int("stock", stock),
	).Info("product restocked")
	return stock, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func validateName(name string) error {
	if name == "" || len([]rune(name)) > MaxNameLength {
		return ErrInvalidName
	}
	return nil
}

// ValidatePrice accepts amounts representable as numeric(10,2).
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() || price.GreaterThanOrEqual(maxPrice) {
		return ErrInvalidPrice
	}
	if !price.Equal(price.Round(2)) {
		return ErrInvalidPrice
	}
	return nil
}
