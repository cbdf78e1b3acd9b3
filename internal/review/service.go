package review

import (
	"context"
	"strings"

	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, input CreateReviewInput) (*Review, error)
	List(ctx context.Context, filter ListFilter) ([]*Review, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

func (s *service) Create(ctx context.Context, input CreateReviewInput) (*Review, error) {
	if !validRating(input.Rating) {
		logger.ForMethod(ctx, "service", "CreateReview").
			Warn("rating out of range", zap.Int("rating", input.Rating))
		return nil, ErrInvalidRating
	}

	rv := &Review{
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Text:      strings.TrimSpace(input.Text),
	}
	if err := s.repo.Create(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]*Review, error) {
	if filter.MinRating != nil && !validRating(*filter.MinRating) {
		return nil, ErrInvalidRating
	}
	if filter.MaxRating != nil && !validRating(*filter.MaxRating) {
		return nil, ErrInvalidRating
	}

	reviews, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []*Review{}
	}
	return reviews, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
