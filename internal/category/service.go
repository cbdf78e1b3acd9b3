package category

import (
	"context"
	"strings"

	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, name string) (*Category, error)
	GetByID(ctx context.Context, id uint) (*Category, error)
	List(ctx context.Context, search string) ([]*Category, error)
	Rename(ctx context.Context, id uint, name string) error
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, name string) (*Category, error) {
	log := logger.ForMethod(ctx, "service", "CreateCategory")

	name, err := normalizeName(name)
	if err != nil {
		log.Warn("invalid category name")
		return nil, err
	}

	c, err := s.repo.Create(ctx, name)
	if err != nil {
		log.Warn("create category failed", zap.Error(err))
		return nil, err
	}

	log.Info("category created", zap.Uint("category_id", c.ID))
	return c, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, search string) ([]*Category, error) {
	categories, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	if categories == nil {
		return []*Category{}, nil
	}
	return categories, nil
}

func (s *service) Rename(ctx context.Context, id uint, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	return s.repo.Rename(ctx, id, name)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
