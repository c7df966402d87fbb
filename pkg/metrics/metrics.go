package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reconciliation outcomes, one label value per ReconcileResult counter.
const (
	OutcomePaid      = "paid"
	OutcomeExpired   = "expired"
	OutcomeFailed    = "failed"
	OutcomeUnchanged = "unchanged"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

// Metrics groups the business counters exported on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reconcileOrders   *prometheus.CounterVec
	reconcileRuns     *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	flashSaleUnits    *prometheus.CounterVec
	priceQuotes       *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide metrics registered on prometheus.DefaultRegisterer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		reconcileOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrifarm_reconcile_orders_total",
			Help: "Orders processed by payment reconciliation, by outcome.",
		}, []string{"outcome"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrifarm_reconcile_runs_total",
			Help: "Reconciliation batch runs, by trigger.",
		}, []string{"trigger"}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nutrifarm_reconcile_duration_seconds",
			Help:    "Wall time of one reconciliation batch.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		flashSaleUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrifarm_flash_sale_units_total",
			Help: "Units requested against flash sales, split into applied and overflow.",
		}, []string{"result"}),
		priceQuotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrifarm_price_quotes_total",
			Help: "Price evaluations by winning discount source.",
		}, []string{"source"}),
	}

	registerer.MustRegister(
		m.reconcileOrders,
		m.reconcileRuns,
		m.reconcileDuration,
		m.flashSaleUnits,
		m.priceQuotes,
	)

	return m
}

func (m *Metrics) ObserveReconcileOutcome(outcome string) {
	if m == nil {
		return
	}
	m.reconcileOrders.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveReconcileRun(trigger string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(trigger).Inc()
	m.reconcileDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveFlashSaleUnits(applied, overflow int) {
	if m == nil {
		return
	}
	if applied > 0 {
		m.flashSaleUnits.WithLabelValues("applied").Add(float64(applied))
	}
	if overflow > 0 {
		m.flashSaleUnits.WithLabelValues("overflow").Add(float64(overflow))
	}
}

func (m *Metrics) ObservePriceQuote(source string) {
	if m == nil {
		return
	}
	m.priceQuotes.WithLabelValues(source).Inc()
}
