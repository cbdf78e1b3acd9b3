package shipping

import (
	"context"

	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	GetByOrder(ctx context.Context, orderID uint) (*Shipment, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]*Shipment, error)
	UpdateStatus(ctx context.Context, id uint, status Status) (*Shipment, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByOrder(ctx context.Context, orderID uint) (*Shipment, error) {
	return s.repo.GetByOrder(ctx, orderID)
}

func (s *service) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error) {
	return s.repo.GetByTrackingNumber(ctx, trackingNumber)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]*Shipment, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	shipments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if shipments == nil {
		shipments = []*Shipment{}
	}
	return shipments, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uint, status Status) (*Shipment, error) {
	if !status.Valid() {
		logger.ForMethod(ctx, "service", "UpdateShipmentStatus").
			Warn("rejected unknown shipment status", zap.String("status", string(status)))
		return nil, ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
