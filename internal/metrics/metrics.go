package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invite_redemptions_total",
			Help: "Total number of invite redemption attempts",
		},
		[]string{"outcome"},
	)

	PayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_payouts_total",
			Help: "Total number of treasury payout attempts",
		},
		[]string{"outcome"},
	)
)

const (
	OutcomeGranted = "granted"
	OutcomeDenied  = "denied"
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)
