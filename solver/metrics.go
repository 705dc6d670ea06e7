package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hashcash",
		Subsystem: "solver",
		Name:      "attempts_total",
		Help:      "Number of sampled nonces",
	})

	solvesMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hashcash",
		Subsystem: "solver",
		Name:      "solves_total",
		Help:      "Number of finished solve requests by execution mode and outcome",
	}, []string{"mode", "outcome"})

	solveLatencyMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hashcash",
		Subsystem: "solver",
		Name:      "solve_latency_seconds",
		Help:      "Latency of successful solve requests",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 24),
	}, []string{"mode"})

	pendingRequestsMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hashcash",
		Subsystem: "pool",
		Name:      "pending_requests",
		Help:      "Number of solve requests waiting for a nonce",
	})
)
