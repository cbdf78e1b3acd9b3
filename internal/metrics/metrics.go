package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ecommerce"

// Ledger holds the collectors for the order fulfillment ledger.
type Ledger struct {
	LineItemsAdded     prometheus.Counter
	LineItemsRemoved   prometheus.Counter
	StockRejections    prometheus.Counter
	ConflictRetries    prometheus.Counter
	IDDraws            *prometheus.CounterVec
	IDCollisions       *prometheus.CounterVec
	OperationDurations *prometheus.HistogramVec
}

// NewLedger creates the ledger collectors and registers them on reg.
// A nil reg leaves them unregistered, which is what tests usually want.
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		LineItemsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger",
			Name: "line_items_added_total",
			Help: "Line items committed by AddLineItem.",
		}),
		LineItemsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger",
			Name: "line_items_removed_total",
			Help: "Line items deleted by RemoveLineItem.",
		}),
		StockRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger",
			Name: "insufficient_stock_total",
			Help: "AddLineItem calls rejected for insufficient stock.",
		}),
		ConflictRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger",
			Name: "conflict_retries_total",
			Help: "Transactions retried after a serialization failure or deadlock.",
		}),
		IDDraws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger",
			Name: "id_draws_total",
			Help: "Random identifier candidates drawn, by kind.",
		}, []string{"kind"}),
		IDCollisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger",
			Name: "id_collisions_total",
			Help: "Identifier candidates rejected because they already existed, by kind.",
		}, []string{"kind"}),
		OperationDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ledger",
			Name:    "operation_duration_seconds",
			Help:    "Ledger operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.LineItemsAdded,
			m.LineItemsRemoved,
			m.StockRejections,
			m.ConflictRetries,
			m.IDDraws,
			m.IDCollisions,
			m.OperationDurations,
		)
	}

	return m
}

// Observe records the duration of operation since t started.
func (m *Ledger) Observe(operation string, t *Timer, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.OperationDurations.WithLabelValues(operation, outcome).Observe(t.Duration().Seconds())
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
