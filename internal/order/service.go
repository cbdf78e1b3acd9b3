package order

import (
	"context"

	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, userID uint) (*Order, error)
	GetOrderDetail(ctx context.Context, orderID uint) (*Order, error)
	GetOrders(ctx context.Context, filter ListFilter) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status OrderStatus) error
	DeleteOrder(ctx context.Context, orderID uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CreateOrder opens an empty Pending order; items are added via the ledger.
func (s *service) CreateOrder(ctx context.Context, userID uint) (*Order, error) {
	return s.repo.Create(ctx, userID)
}

func (s *service) GetOrderDetail(ctx context.Context, orderID uint) (*Order, error) {
	return s.repo.GetOrderDetail(ctx, orderID)
}

func (s *service) GetOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	orders, err := s.repo.FetchOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*Order{}
	}
	return orders, nil
}

// UpdateOrderStatus only checks that status is a known value. Any status may
// move to any other; no transition rules are enforced.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uint, status OrderStatus) error {
	log := logger.ForMethod(ctx, "service", "UpdateOrderStatus",
		zap.Uint("order_id", orderID),
		zap.String("status", string(status)),
	)

	if !status.Valid() {
		log.Warn("rejected unknown status")
		return ErrInvalidStatus
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		log.Warn("update status failed", zap.Error(err))
		return err
	}

	log.Info("order status updated")
	return nil
}

func (s *service) DeleteOrder(ctx context.Context, orderID uint) error {
	return s.repo.Delete(ctx, orderID)
}
