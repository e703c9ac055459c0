package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records checkout and lifecycle activity of the engine.
type FulfillmentMetrics struct {
	placementDuration *prometheus.HistogramVec
	placed            *prometheus.CounterVec
	placementFailures *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	compensations     *prometheus.CounterVec
	unitsRestored     *prometheus.CounterVec
}

// NewFulfillmentMetrics registers the engine metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	placementDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Duration of order placement transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed by the assembler.",
	}, []string{"kind"})
	placementFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_placement_failures_total",
		Help: "Order placements rolled back, by error code.",
	}, []string{"kind", "code"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Successful lifecycle transitions.",
	}, []string{"kind", "machine", "to"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_compensations_total",
		Help: "Compensating stock increments applied.",
	}, []string{"reason"})
	unitsRestored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_units_restored_total",
		Help: "Units returned to stock by compensations.",
	}, []string{"reason"})
	reg.MustRegister(placementDuration, placed, placementFailures, transitions, compensations, unitsRestored)
	return &FulfillmentMetrics{
		placementDuration: placementDuration,
		placed:            placed,
		placementFailures: placementFailures,
		transitions:       transitions,
		compensations:     compensations,
		unitsRestored:     unitsRestored,
	}
}

// ObservePlacement records how long a placement transaction took.
func (m *FulfillmentMetrics) ObservePlacement(kind string, duration time.Duration) {
	if m == nil || m.placementDuration == nil {
		return
	}
	m.placementDuration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

func (m *FulfillmentMetrics) IncPlaced(kind string) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *FulfillmentMetrics) IncPlacementFailure(kind, code string) {
	if m == nil || m.placementFailures == nil {
		return
	}
	m.placementFailures.WithLabelValues(normalizeLabel(kind), normalizeLabel(code)).Inc()
}

func (m *FulfillmentMetrics) IncTransition(kind, machine, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(kind), normalizeLabel(machine), normalizeLabel(to)).Inc()
}

// AddCompensation records one compensating increment of units.
func (m *FulfillmentMetrics) AddCompensation(reason string, units int) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(normalizeLabel(reason)).Inc()
	m.unitsRestored.WithLabelValues(normalizeLabel(reason)).Add(float64(units))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
