package retry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "retry_runs_total",
		Help: "The total number of orchestration runs by retryer and outcome (success, exhausted, canceled)",
	}, []string{"retryer", "outcome"})

	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "retry_invocations_total",
		Help: "The total number of operation invocations by retryer, including the initial call of each run",
	}, []string{"retryer"})

	applicationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "retry_strategy_applications_total",
		Help: "The total number of strategy applications by retryer and strategy",
	}, []string{"retryer", "strategy"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "retry_run_duration_seconds",
		Help:    "Duration of orchestration runs by retryer and outcome",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"retryer", "outcome"})
)
