package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ticketing collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	purchases        *prometheus.CounterVec
	purchaseDuration prometheus.Histogram
	capacityChanges  *prometheus.CounterVec
	checkIns         *prometheus.CounterVec
	lifecycle        *prometheus.CounterVec
	availableTickets *prometheus.GaugeVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		purchases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_purchases_total",
				Help: "Ticket purchase attempts by outcome",
			},
			[]string{"result"},
		),
		purchaseDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ticket_purchase_duration_seconds",
				Help:    "Time spent completing a ticket purchase",
				Buckets: prometheus.DefBuckets,
			},
		),
		capacityChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_capacity_seats_total",
				Help: "Seats reserved or released, by operation and reason",
			},
			[]string{"operation", "reason"},
		),
		checkIns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_checkins_total",
				Help: "Check-in attempts by outcome",
			},
			[]string{"result"},
		),
		lifecycle: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_transitions_total",
				Help: "Ticket lifecycle transitions applied",
			},
			[]string{"action"},
		),
		availableTickets: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "event_available_tickets",
				Help: "Seats still available per event, as last seen by the ledger",
			},
			[]string{"event_id"},
		),
	}
}

// TrackPurchase records a purchase outcome and how long it took
func (m *Metrics) TrackPurchase(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(result).Inc()
	m.purchaseDuration.Observe(duration.Seconds())
}

// TrackReserve counts seats taken from an event
func (m *Metrics) TrackReserve(reason string, quantity int) {
	if m == nil {
		return
	}
	m.capacityChanges.WithLabelValues("reserve", reason).Add(float64(quantity))
}

// TrackRelease counts seats returned to an event
func (m *Metrics) TrackRelease(reason string, quantity int) {
	if m == nil {
		return
	}
	m.capacityChanges.WithLabelValues("release", reason).Add(float64(quantity))
}

// TrackCheckIn records a check-in outcome
func (m *Metrics) TrackCheckIn(result string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(result).Inc()
}

// TrackTransition counts an applied lifecycle action
func (m *Metrics) TrackTransition(action string) {
	if m == nil {
		return
	}
	m.lifecycle.WithLabelValues(action).Inc()
}

// SetAvailable publishes the latest seat count for an event
func (m *Metrics) SetAvailable(eventID string, available int) {
	if m == nil {
		return
	}
	m.availableTickets.WithLabelValues(eventID).Set(float64(available))
}
