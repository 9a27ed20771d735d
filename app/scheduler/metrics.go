package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "dispatch_attempts_total",
		Help:      "Dispatch attempts by outcome",
	}, []string{"outcome"})

	dispatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "dispatch_duration_seconds",
		Help:      "Duration of gateway publish calls",
		Buckets:   prometheus.DefBuckets,
	})

	dispatchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "dispatch_retries_total",
		Help:      "Dispatch attempts re-enqueued with backoff",
	})

	duePostsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "due_posts",
		Help:      "Posts due for dispatch at the last poll",
	})
)
