package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ecommerce-be/internal/order"
	"ecommerce-be/internal/payment"
	"ecommerce-be/internal/shipping"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store with per-row locks held until the end of
// the transaction and an undo log replayed on rollback.
type memStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	nextID    uint
	orders    map[uint]*order.Order
	products  map[uint]*ProductRow
	items     map[uint]*order.LineItem
	addresses map[uint]bool
	shipments map[uint]*shipping.Shipment
	payments  map[uint]*payment.Payment

	// conflicts makes the next N commits fail as serialization failures.
	conflicts int
	// hidden identifiers exist but are invisible to the pre-check.
	hidden map[string]bool
	// failSetTotal makes SetOrderTotal fail, to exercise rollback.
	failSetTotal error

	txCount int
}

func newMemStore() *memStore {
	return &memStore{
		locks:     map[string]*sync.Mutex{},
		nextID:    1,
		orders:    map[uint]*order.Order{},
		products:  map[uint]*ProductRow{},
		items:     map[uint]*order.LineItem{},
		addresses: map[uint]bool{},
		shipments: map[uint]*shipping.Shipment{},
		payments:  map[uint]*payment.Payment{},
		hidden:    map[string]bool{},
	}
}

func (s *memStore) id() uint {
	id := s.nextID
	s.nextID++
	return id
}

func (s *memStore) addProduct(name, price string, stock int) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.products[id] = &ProductRow{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	return id
}

func (s *memStore) addOrder() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.orders[id] = &order.Order{ID: id, UserID: 1, Status: order.StatusPending, Total: decimal.Zero}
	return id
}

func (s *memStore) addAddress() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.addresses[id] = true
	return id
}

func (s *memStore) setPrice(productID uint, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productID].Price = decimal.RequireFromString(price)
}

func (s *memStore) stock(productID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

func (s *memStore) total(orderID uint) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[orderID].Total
}

func (s *memStore) itemsOf(orderID uint) []order.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsOfLocked(orderID)
}

func (s *memStore) itemsOfLocked(orderID uint) []order.LineItem {
	var out []order.LineItem
	for _, li := range s.items {
		if li.OrderID == orderID {
			out = append(out, *li)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	s.txCount++
	s.mu.Unlock()

	tx := &memTx{s: s, held: map[string]*sync.Mutex{}}
	defer tx.release()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}

	s.mu.Lock()
	conflict := s.conflicts > 0
	if conflict {
		s.conflicts--
	}
	s.mu.Unlock()

	if conflict {
		tx.rollback()
		return fmt.Errorf("%w: injected serialization failure", ErrConcurrencyConflict)
	}
	return nil
}

func (s *memStore) TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hidden[trackingNumber] {
		return false, nil
	}
	for _, sh := range s.shipments {
		if sh.TrackingNumber == trackingNumber {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) TransactionIDExists(ctx context.Context, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hidden[transactionID] {
		return false, nil
	}
	for _, p := range s.payments {
		if p.TransactionID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

type memTx struct {
	s    *memStore
	held map[string]*sync.Mutex
	undo []func()
}

func (t *memTx) lock(key string) {
	if _, ok := t.held[key]; ok {
		return
	}
	t.s.mu.Lock()
	m, ok := t.s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		t.s.locks[key] = m
	}
	t.s.mu.Unlock()

	m.Lock()
	t.held[key] = m
}

func (t *memTx) release() {
	for _, m := range t.held {
		m.Unlock()
	}
}

func (t *memTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) LockOrder(ctx context.Context, orderID uint) (*order.Order, error) {
	t.lock(fmt.Sprintf("order:%d", orderID))
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	o, ok := t.s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (t *memTx) LockProduct(ctx context.Context, productID uint) (*ProductRow, error) {
	t.lock(fmt.Sprintf("product:%d", productID))
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) GetLineItem(ctx context.Context, lineItemID uint) (*order.LineItem, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	li, ok := t.s.items[lineItemID]
	if !ok {
		return nil, ErrLineItemNotFound
	}
	cp := *li
	return &cp, nil
}

func (t *memTx) LockLineItem(ctx context.Context, lineItemID uint) (*order.LineItem, error) {
	t.lock(fmt.Sprintf("item:%d", lineItemID))
	return t.GetLineItem(ctx, lineItemID)
}

func (t *memTx) DecrementStock(ctx context.Context, productID uint, qty int) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	t.undo = append(t.undo, func() { p.Stock += qty })
	return true, nil
}

func (t *memTx) IncrementStock(ctx context.Context, productID uint, qty int) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock += qty
	t.undo = append(t.undo, func() { p.Stock -= qty })
	return nil
}

func (t *memTx) InsertLineItem(ctx context.Context, item *order.LineItem) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	item.ID = t.s.id()
	item.CreatedAt = time.Now()
	cp := *item
	t.s.items[cp.ID] = &cp
	t.undo = append(t.undo, func() { delete(t.s.items, cp.ID) })
	return nil
}

func (t *memTx) DeleteLineItem(ctx context.Context, lineItemID uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	li, ok := t.s.items[lineItemID]
	if !ok {
		return ErrLineItemNotFound
	}
	delete(t.s.items, lineItemID)
	t.undo = append(t.undo, func() { t.s.items[lineItemID] = li })
	return nil
}

func (t *memTx) ListLineItems(ctx context.Context, orderID uint) ([]order.LineItem, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.itemsOfLocked(orderID), nil
}

func (t *memTx) SetOrderTotal(ctx context.Context, orderID uint, total decimal.Decimal) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.failSetTotal != nil {
		return t.s.failSetTotal
	}
	o, ok := t.s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	prev := o.Total
	o.Total = total
	t.undo = append(t.undo, func() { o.Total = prev })
	return nil
}

func (t *memTx) InsertShipment(ctx context.Context, sh *shipping.Shipment) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, existing := range t.s.shipments {
		if existing.TrackingNumber == sh.TrackingNumber {
			return errIDTaken
		}
		if existing.OrderID == sh.OrderID {
			return ErrAlreadyExists
		}
	}
	if !t.s.addresses[sh.AddressID] {
		return ErrAddressNotFound
	}
	sh.ID = t.s.id()
	sh.CreatedAt = time.Now()
	sh.UpdatedAt = sh.CreatedAt
	cp := *sh
	t.s.shipments[cp.ID] = &cp
	t.undo = append(t.undo, func() { delete(t.s.shipments, cp.ID) })
	return nil
}

func (t *memTx) InsertPayment(ctx context.Context, p *payment.Payment) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, existing := range t.s.payments {
		if existing.TransactionID == p.TransactionID {
			return errIDTaken
		}
		if existing.OrderID == p.OrderID {
			return ErrAlreadyExists
		}
	}
	p.ID = t.s.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	t.s.payments[cp.ID] = &cp
	t.undo = append(t.undo, func() { delete(t.s.payments, cp.ID) })
	return nil
}
