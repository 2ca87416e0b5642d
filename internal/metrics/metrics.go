// Package metrics provides Prometheus instrumentation for the auction
// engine and sweep job.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BidsTotal counts accepted bids, partitioned by how they were placed.
	BidsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buyme_bids_total",
		Help: "Total number of accepted bids",
	}, []string{"kind"}) // manual, proxy, auto

	// BidRejectionsTotal counts rejected bid attempts by rejection reason.
	BidRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buyme_bid_rejections_total",
		Help: "Total number of rejected bid attempts",
	}, []string{"reason"})

	// AuctionsClosedTotal counts settled auctions by outcome.
	AuctionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buyme_auctions_closed_total",
		Help: "Total number of auctions settled",
	}, []string{"outcome"}) // won, reserve_not_met, no_bids

	// SweepDuration observes how long each expiry sweep takes.
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "buyme_sweep_duration_seconds",
		Help:    "Duration of auction expiry sweeps in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
