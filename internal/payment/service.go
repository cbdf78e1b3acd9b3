package payment

import (
	"context"

	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	GetByOrder(ctx context.Context, orderID uint) (*Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	List(ctx context.Context, filter ListFilter) ([]*Payment, error)
	UpdateStatus(ctx context.Context, id uint, status Status) (*Payment, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByOrder(ctx context.Context, orderID uint) (*Payment, error) {
	return s.repo.GetByOrder(ctx, orderID)
}

func (s *service) GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	return s.repo.GetByTransactionID(ctx, transactionID)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	if filter.Method != nil && !filter.Method.Valid() {
		return nil, ErrInvalidMethod
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	payments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*Payment{}
	}
	return payments, nil
}

// UpdateStatus accepts any known status; which transitions make business
// sense is left to the caller.
func (s *service) UpdateStatus(ctx context.Context, id uint, status Status) (*Payment, error) {
	if !status.Valid() {
		logger.ForMethod(ctx, "service", "UpdatePaymentStatus").
			Warn("rejected unknown payment status", zap.String("status", string(status)))
		return nil, ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
