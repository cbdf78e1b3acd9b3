package ledger

import (
	"context"
	"errors"
	"time"

	"ecommerce-be/internal/config"
	"ecommerce-be/internal/logger"
	"ecommerce-be/internal/metrics"
	"ecommerce-be/internal/order"
	"ecommerce-be/internal/payment"
	"ecommerce-be/internal/shipping"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMaxIDAttempts = 1000

	kindTrackingNumber = "tracking_number"
	kindTransactionID  = "transaction_id"
)

// Service is the only path that mutates line items, product stock and order
// totals. Every mutation commits fully or not at all.
type Service interface {
	AddLineItem(ctx context.Context, orderID, productID uint, quantity int) (*order.LineItem, error)
	RemoveLineItem(ctx context.Context, lineItemID uint) error
	RecomputeTotal(ctx context.Context, orderID uint) (decimal.Decimal, error)

	GenerateTrackingNumber(ctx context.Context) (string, error)
	GenerateTransactionID(ctx context.Context) (string, error)

	CreateShipment(ctx context.Context, orderID, addressID uint) (*shipping.Shipment, error)
	CreatePayment(ctx context.Context, orderID uint, method payment.Method) (*payment.Payment, error)
}

type service struct {
	store   Store
	metrics *metrics.Ledger
	tracer  trace.Tracer
	limiter *rate.Limiter

	maxIDAttempts   int
	conflictRetries int

	trackingNumbers IDGenerator
	transactionIDs  IDGenerator
}

type Option func(*service)

func WithMetrics(m *metrics.Ledger) Option {
	return func(s *service) { s.metrics = m }
}

func WithTrackingNumbers(gen IDGenerator) Option {
	return func(s *service) { s.trackingNumbers = gen }
}

func WithTransactionIDs(gen IDGenerator) Option {
	return func(s *service) { s.transactionIDs = gen }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *service) { s.tracer = t }
}

// NewService builds the ledger on top of store. cfg supplies the identifier
// draw bound and the conflict retry policy; a nil cfg uses the defaults.
func NewService(store Store, cfg *config.Config, opts ...Option) Service {
	s := &service{
		store:           store,
		maxIDAttempts:   defaultMaxIDAttempts,
		trackingNumbers: RandomTrackingNumber,
		transactionIDs:  RandomTransactionID,
		tracer:          otel.Tracer("ecommerce-be/internal/ledger"),
	}

	interval := time.Duration(0)
	if cfg != nil {
		if cfg.MaxIDAttempts > 0 {
			s.maxIDAttempts = cfg.MaxIDAttempts
		}
		if cfg.ConflictRetries > 0 {
			s.conflictRetries = cfg.ConflictRetries
		}
		interval = cfg.RetryInterval
	}

	if interval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(interval), 1)
	} else {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewLedger(nil)
	}

	return s
}

func (s *service) AddLineItem(ctx context.Context, orderID, productID uint, quantity int) (item *order.LineItem, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.AddLineItem", trace.WithAttributes(
		attribute.Int64("order.id", int64(orderID)),
		attribute.Int64("product.id", int64(productID)),
		attribute.Int("quantity", quantity),
	))
	timer := metrics.StartTimer()
	defer func() { s.finish(span, "add_line_item", timer, err) }()

	log := logger.ForMethod(ctx, "ledger", "AddLineItem",
		zap.Uint("order_id", orderID),
		zap.Uint("product_id", productID),
		zap.Int("quantity", quantity),
	)
	log.Debug("adding line item")

	if quantity <= 0 {
		log.Warn("rejected non-positive quantity")
		return nil, ErrInvalidQuantity
	}

	err = s.withRetry(ctx, log, func(tx Tx) error {
		if _, err := tx.LockOrder(ctx, orderID); err != nil {
			return err
		}
		p, err := tx.LockProduct(ctx, productID)
		if err != nil {
			return err
		}

		shortage := &InsufficientStockError{ProductID: productID, Available: p.Stock, Requested: quantity}
		if p.Stock < quantity {
			return shortage
		}
		ok, err := tx.DecrementStock(ctx, productID, quantity)
		if err != nil {
			return err
		}
		if !ok {
			return shortage
		}

		li := &order.LineItem{
			OrderID:     orderID,
			ProductID:   productID,
			ProductName: p.Name,
			Quantity:    quantity,
			UnitPrice:   p.Price,
		}
		if err := tx.InsertLineItem(ctx, li); err != nil {
			return err
		}
		if _, err := s.recompute(ctx, tx, orderID); err != nil {
			return err
		}

		item = li
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.metrics.StockRejections.Inc()
		}
		s.logFailure(log, "add line item", err)
		return nil, err
	}

	s.metrics.LineItemsAdded.Inc()
	log.Info("line item added",
		zap.Uint("line_item_id", item.ID),
		zap.String("unit_price", item.UnitPrice.StringFixed(2)),
	)
	return item, nil
}

func (s *service) RemoveLineItem(ctx context.Context, lineItemID uint) (err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.RemoveLineItem", trace.WithAttributes(
		attribute.Int64("line_item.id", int64(lineItemID)),
	))
	timer := metrics.StartTimer()
	defer func() { s.finish(span, "remove_line_item", timer, err) }()

	log := logger.ForMethod(ctx, "ledger", "RemoveLineItem",
		zap.Uint("line_item_id", lineItemID),
	)
	log.Debug("removing line item")

	err = s.withRetry(ctx, log, func(tx Tx) error {
		peek, err := tx.GetLineItem(ctx, lineItemID)
		if err != nil {
			return err
		}
		if _, err := tx.LockOrder(ctx, peek.OrderID); err != nil {
			return err
		}
		// Re-read under the order lock; a concurrent removal may have won.
		li, err := tx.LockLineItem(ctx, lineItemID)
		if err != nil {
			return err
		}
		if _, err := tx.LockProduct(ctx, li.ProductID); err != nil {
			return err
		}

		if err := tx.IncrementStock(ctx, li.ProductID, li.Quantity); err != nil {
			return err
		}
		if err := tx.DeleteLineItem(ctx, lineItemID); err != nil {
			return err
		}
		_, err = s.recompute(ctx, tx, li.OrderID)
		return err
	})
	if err != nil {
		s.logFailure(log, "remove line item", err)
		return err
	}

	s.metrics.LineItemsRemoved.Inc()
	log.Info("line item removed")
	return nil
}

func (s *service) RecomputeTotal(ctx context.Context, orderID uint) (total decimal.Decimal, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.RecomputeTotal", trace.WithAttributes(
		attribute.Int64("order.id", int64(orderID)),
	))
	timer := metrics.StartTimer()
	defer func() { s.finish(span, "recompute_total", timer, err) }()

	log := logger.ForMethod(ctx, "ledger", "RecomputeTotal", zap.Uint("order_id", orderID))

	err = s.withRetry(ctx, log, func(tx Tx) error {
		if _, err := tx.LockOrder(ctx, orderID); err != nil {
			return err
		}
		sum, err := s.recompute(ctx, tx, orderID)
		if err != nil {
			return err
		}
		total = sum
		return nil
	})
	if err != nil {
		s.logFailure(log, "recompute total", err)
		return decimal.Zero, err
	}

	log.Info("order total recomputed", zap.String("total", total.StringFixed(2)))
	return total, nil
}

// recompute sums the surviving items of an order the caller has locked.
func (s *service) recompute(ctx context.Context, tx Tx, orderID uint) (decimal.Decimal, error) {
	items, err := tx.ListLineItems(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	total := order.SumLineItems(items)
	if err := tx.SetOrderTotal(ctx, orderID, total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *service) GenerateTrackingNumber(ctx context.Context) (string, error) {
	budget := s.maxIDAttempts
	return s.drawUnique(ctx, kindTrackingNumber, s.trackingNumbers, s.store.TrackingNumberExists, &budget)
}

func (s *service) GenerateTransactionID(ctx context.Context) (string, error) {
	budget := s.maxIDAttempts
	return s.drawUnique(ctx, kindTransactionID, s.transactionIDs, s.store.TransactionIDExists, &budget)
}

// drawUnique draws candidates until one is not taken, spending one unit of
// budget per draw.
func (s *service) drawUnique(
	ctx context.Context,
	kind string,
	gen IDGenerator,
	exists func(context.Context, string) (bool, error),
	budget *int,
) (string, error) {
	for *budget > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		*budget--

		candidate, err := gen()
		if err != nil {
			return "", err
		}
		s.metrics.IDDraws.WithLabelValues(kind).Inc()

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		s.metrics.IDCollisions.WithLabelValues(kind).Inc()
	}

	logger.ForMethod(ctx, "ledger", "drawUnique").
		Error("identifier space exhausted",
			zap.String("kind", kind),
			zap.Int("max_attempts", s.maxIDAttempts),
		)
	return "", ErrExhaustedIDSpace
}

func (s *service) CreateShipment(ctx context.Context, orderID, addressID uint) (shipment *shipping.Shipment, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.CreateShipment", trace.WithAttributes(
		attribute.Int64("order.id", int64(orderID)),
		attribute.Int64("address.id", int64(addressID)),
	))
	timer := metrics.StartTimer()
	defer func() { s.finish(span, "create_shipment", timer, err) }()

	log := logger.ForMethod(ctx, "ledger", "CreateShipment",
		zap.Uint("order_id", orderID),
		zap.Uint("address_id", addressID),
	)

	budget := s.maxIDAttempts
	for {
		tn, err := s.drawUnique(ctx, kindTrackingNumber, s.trackingNumbers, s.store.TrackingNumberExists, &budget)
		if err != nil {
			s.logFailure(log, "create shipment", err)
			return nil, err
		}

		sh := &shipping.Shipment{
			OrderID:        orderID,
			AddressID:      addressID,
			TrackingNumber: tn,
			Status:         shipping.StatusPending,
		}
		err = s.withRetry(ctx, log, func(tx Tx) error {
			if _, err := tx.LockOrder(ctx, orderID); err != nil {
				return err
			}
			return tx.InsertShipment(ctx, sh)
		})
		if errors.Is(err, errIDTaken) {
			// Lost the race between the pre-check and the insert.
			s.metrics.IDCollisions.WithLabelValues(kindTrackingNumber).Inc()
			log.Warn("tracking number taken at insert, redrawing", zap.String("tracking_number", tn))
			continue
		}
		if err != nil {
			s.logFailure(log, "create shipment", err)
			return nil, err
		}

		log.Info("shipment created", zap.String("tracking_number", tn))
		return sh, nil
	}
}

func (s *service) CreatePayment(ctx context.Context, orderID uint, method payment.Method) (record *payment.Payment, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.CreatePayment", trace.WithAttributes(
		attribute.Int64("order.id", int64(orderID)),
		attribute.String("payment.method", string(method)),
	))
	timer := metrics.StartTimer()
	defer func() { s.finish(span, "create_payment", timer, err) }()

	log := logger.ForMethod(ctx, "ledger", "CreatePayment",
		zap.Uint("order_id", orderID),
		zap.String("method", string(method)),
	)

	if !method.Valid() {
		log.Warn("rejected unknown payment method")
		return nil, payment.ErrInvalidMethod
	}

	budget := s.maxIDAttempts
	for {
		txID, err := s.drawUnique(ctx, kindTransactionID, s.transactionIDs, s.store.TransactionIDExists, &budget)
		if err != nil {
			s.logFailure(log, "create payment", err)
			return nil, err
		}

		p := &payment.Payment{
			OrderID:       orderID,
			TransactionID: txID,
			Method:        method,
			Status:        payment.StatusPending,
		}
		err = s.withRetry(ctx, log, func(tx Tx) error {
			o, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			p.Amount = o.Total
			return tx.InsertPayment(ctx, p)
		})
		if errors.Is(err, errIDTaken) {
			s.metrics.IDCollisions.WithLabelValues(kindTransactionID).Inc()
			log.Warn("transaction id taken at insert, redrawing", zap.String("transaction_id", txID))
			continue
		}
		if err != nil {
			s.logFailure(log, "create payment", err)
			return nil, err
		}

		log.Info("payment created",
			zap.String("transaction_id", txID),
			zap.String("amount", p.Amount.StringFixed(2)),
		)
		return p, nil
	}
}

// withRetry runs fn in a store transaction, re-running the whole transaction
// on ErrConcurrencyConflict up to conflictRetries times. Retries are paced by
// a limiter shared across calls.
func (s *service) withRetry(ctx context.Context, log *zap.Logger, fn func(tx Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := s.store.WithinTx(ctx, fn)
		if !errors.Is(err, ErrConcurrencyConflict) || attempt >= s.conflictRetries {
			return err
		}

		s.metrics.ConflictRetries.Inc()
		log.Warn("transaction conflict, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if werr := s.limiter.Wait(ctx); werr != nil {
			return err
		}
	}
}

func (s *service) finish(span trace.Span, operation string, t *metrics.Timer, err error) {
	s.metrics.Observe(operation, t, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// logFailure keeps caller mistakes at Warn and everything else at Error.
func (s *service) logFailure(log *zap.Logger, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, payment.ErrInvalidMethod):
		log.Warn("failed to "+action, zap.Error(err))
	default:
		log.Error("failed to "+action, zap.Error(err))
	}
}
