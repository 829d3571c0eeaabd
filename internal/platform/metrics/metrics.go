package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hotel_booking",
			Name:      "booking_created_total",
			Help:      "Count of PENDING bookings created.",
		},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotel_booking",
			Name:      "booking_transitions_total",
			Help:      "Count of booking state transitions.",
		},
		[]string{"from", "to"},
	)

	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotel_booking",
			Name:      "inventory_ledger_operations_total",
			Help:      "Count of inventory ledger operations by result.",
		},
		[]string{"operation", "result"},
	)

	paymentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotel_booking",
			Name:      "payment_events_total",
			Help:      "Count of reconciled payment events by gateway status and outcome.",
		},
		[]string{"status", "outcome"},
	)

	paymentTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotel_booking",
			Name:      "payment_timeouts_total",
			Help:      "Count of payment timeout checks by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingTransitions, ledgerOperations, paymentEvents, paymentTimeouts)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncTransition(from, to string) {
	bookingTransitions.WithLabelValues(from, to).Inc()
}

func IncLedger(operation, result string) {
	ledgerOperations.WithLabelValues(operation, result).Inc()
}

func IncPaymentEvent(status, outcome string) {
	paymentEvents.WithLabelValues(status, outcome).Inc()
}

func IncPaymentTimeout(result string) {
	paymentTimeouts.WithLabelValues(result).Inc()
}
