package shipping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetByOrder(ctx context.Context, orderID uint) (*Shipment, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]*Shipment, error)
	UpdateStatus(ctx context.Context, id uint, status Status) (*Shipment, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const shipmentColumns = `id, order_id, address_id, tracking_number, status, shipped_at, delivered_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanShipment(s scanner) (*Shipment, error) {
	var sh Shipment
	if err := s.Scan(
		&sh.ID, &sh.OrderID, &sh.AddressID, &sh.TrackingNumber, &sh.Status,
		&sh.ShippedAt, &sh.DeliveredAt, &sh.CreatedAt, &sh.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (r *repository) GetByOrder(ctx context.Context, orderID uint) (*Shipment, error) {
	sh, err := scanShipment(r.db.QueryRowContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE order_id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShipmentNotFound
	}
	if err != nil {
		logger.ForMethod(ctx, "repository", "GetShipmentByOrder").
			Error("failed to query shipment", zap.Uint("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return sh, nil
}

// GetByTrackingNumber matches case-insensitively; stored numbers are upper case.
func (r *repository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error) {
	sh, err := scanShipment(r.db.QueryRowContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE tracking_number = $1`,
		strings.ToUpper(strings.TrimSpace(trackingNumber))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShipmentNotFound
	}
	return sh, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Shipment, error) {
	limit, offset := paginate(filter.Limit, filter.Page)
	log := logger.ForMethod(ctx, "repository", "ListShipments")

	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.OrderID != nil {
		query += fmt.Sprintf(" AND order_id = $%d", argIndex)
		args = append(args, *filter.OrderID)
		argIndex++
	}
	if filter.AddressID != nil {
		query += fmt.Sprintf(" AND address_id = $%d", argIndex)
		args = append(args, *filter.AddressID)
		argIndex++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	log.Debug("executing list shipments query", zap.String("query", query))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query shipments", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var shipments []*Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, sh)
	}
	return shipments, rows.Err()
}

// UpdateStatus records shipped_at and delivered_at the first time the
// shipment enters the matching status; later updates keep the original stamp.
func (r *repository) UpdateStatus(ctx context.Context, id uint, status Status) (*Shipment, error) {
	log := logger.ForMethod(ctx, "repository", "UpdateShipmentStatus",
		zap.Uint("shipment_id", id),
		zap.String("status", string(status)),
	)

	sh, err := scanShipment(r.db.QueryRowContext(ctx, `
		UPDATE shipments
		SET status = $1,
			shipped_at = CASE WHEN $2 AND shipped_at IS NULL THEN NOW() ELSE shipped_at END,
			delivered_at = CASE WHEN $3 AND delivered_at IS NULL THEN NOW() ELSE delivered_at END,
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+shipmentColumns,
		status, status == StatusShipped, status == StatusDelivered, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShipmentNotFound
	}
	if err != nil {
		log.Error("failed to update shipment status", zap.Error(err))
		return nil, err
	}

	log.Info("shipment status updated")
	return sh, nil
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
