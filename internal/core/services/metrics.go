package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// copyTransitions counts committed copy status changes
	copyTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_copy_transitions_total",
		Help: "Copy status transitions by from, to and transaction type",
	}, []string{"from", "to", "type"})

	// operationErrors counts failed operations by error code
	operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_operation_errors_total",
		Help: "Failed circulation operations by operation and error code",
	}, []string{"operation", "code"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circulation_operation_duration_seconds",
		Help:    "Circulation operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"operation"})

	slotAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_slot_allocations_total",
		Help: "Slot allocations by search strategy",
	}, []string{"strategy"})

	// counterGuardMisses counts guarded counter updates that fell back to a recount
	counterGuardMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_counter_guard_misses_total",
		Help: "Guarded catalog counter updates that required a recount",
	})

	reconcileDrift = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_reconcile_drift_total",
		Help: "Catalog entries whose cached counters were corrected",
	})

	reservationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_reservations_processed_total",
		Help: "Reservations handled by batch approval by result",
	}, []string{"result"})

	outboxDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_outbox_deliveries_total",
		Help: "Circulation event deliveries by result",
	}, []string{"result"})
)
