package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "homework_bot"

var (
	UpstreamAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_attempts_total",
		Help:      "Upstream generateContent attempts by outcome.",
	}, []string{"outcome"})

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of logical upstream requests including retries.",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 320},
	}, []string{"result"})

	DispatchedGroups = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_groups_dispatched_total",
		Help:      "Media groups dispatched after their quiet period.",
	})

	CreditOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credit_operations_total",
		Help:      "Credit ledger operations by kind.",
	}, []string{"op"})
)
