package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeAdvanced  = "advanced"
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

var (
	RunsSeeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "showdown",
		Name:      "runs_seeded_total",
		Help:      "Runs created over a pool.",
	})

	PicksSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "showdown",
		Name:      "picks_submitted_total",
		Help:      "Pick submissions by outcome.",
	}, []string{"outcome"})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "showdown",
		Name:      "runs_completed_total",
		Help:      "Runs that produced a champion.",
	})

	RunsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "showdown",
		Name:      "runs_in_progress",
		Help:      "Runs waiting on a pick, refreshed periodically.",
	})
)
