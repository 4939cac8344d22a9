package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CardsCreated counts minted cards by source
	CardsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scratch_cards_created_total",
			Help: "Total number of cards created",
		},
		[]string{"source"},
	)

	// Reveals counts settled scratches by outcome
	Reveals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scratch_reveals_total",
			Help: "Total number of settled card reveals",
		},
		[]string{"outcome"},
	)

	// Payouts counts prize payout broadcasts by status
	Payouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scratch_payouts_total",
			Help: "Total number of prize payout attempts",
		},
		[]string{"status"},
	)

	// PayoutAmount tracks paid-out prize sizes
	PayoutAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scratch_payout_amount",
			Help:    "Prize amounts paid out",
			Buckets: []float64{0.5, 1, 2, 5, 10, 100},
		},
	)

	// PendingPayouts tracks won prizes awaiting reconciliation
	PendingPayouts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scratch_pending_payouts",
			Help: "Number of won cards whose payout has not settled",
		},
	)

	// HTTPRequests counts API requests by route and status
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scratch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)
)
