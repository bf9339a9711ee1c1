package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reservations counts reserve calls by outcome (ok, unavailable, not_found, invalid, error).
	Reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "box_office",
			Name:      "reservations_total",
			Help:      "The total number of seat reservation attempts",
		},
		[]string{"outcome"},
	)

	// Finalizations counts finalize calls by outcome.
	Finalizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "box_office",
			Name:      "finalizations_total",
			Help:      "The total number of booking finalization attempts",
		},
		[]string{"outcome"},
	)

	// SeatsSold The total number of seats moved to sold
	SeatsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "box_office",
			Name:      "seats_sold_total",
			Help:      "The total number of seats sold",
		},
	)

	// TransitionConflicts counts blocked seats by reason when a conditional transition loses.
	TransitionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "box_office",
			Name:      "transition_conflicts_total",
			Help:      "Seats that blocked a transition, by reason",
		},
		[]string{"reason"},
	)

	// TicketVerifications counts door checks by result (valid, invalid).
	TicketVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "box_office",
			Name:      "ticket_verifications_total",
			Help:      "The total number of ticket signature checks",
		},
		[]string{"result"},
	)

	// Notifications counts ticket hand-offs to the notifier by result (accepted, rejected, skipped).
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "box_office",
			Name:      "ticket_notifications_total",
			Help:      "The total number of ticket notifications",
		},
		[]string{"result"},
	)

	// FinalizeDuration The time spent in the finalize transaction (summary with quantiles 0.5, 0.9, and 0.99)
	FinalizeDuration = promauto.NewSummary(
		prometheus.SummaryOpts{
			Namespace:  "box_office",
			Name:       "finalize_duration_seconds",
			Help:       "The time spent finalizing bookings",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
	)

	// TicketDeliveries counts consumed ticket messages by result (delivered, rejected).
	TicketDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "box_office",
			Name:      "ticket_deliveries_total",
			Help:      "The total number of ticket messages handled by the consumer",
		},
		[]string{"result"},
	)
)
