// Package metrics exposes Prometheus collectors for pipeline runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsStarted counts production runs started.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pressroom",
		Name:      "runs_started_total",
		Help:      "Number of production runs started.",
	})

	// RunsCompleted counts finished runs by outcome (success or failure).
	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pressroom",
		Name:      "runs_completed_total",
		Help:      "Number of production runs completed, by outcome.",
	}, []string{"outcome"})

	// RevisionCycles counts revision cycles by the phase that requested them.
	RevisionCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pressroom",
		Name:      "revision_cycles_total",
		Help:      "Number of revision cycles, by requesting phase.",
	}, []string{"phase"})

	// DegradedRuns counts runs that continued past an exhausted revision
	// budget with outstanding issues.
	DegradedRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pressroom",
		Name:      "degraded_runs_total",
		Help:      "Number of runs that continued with outstanding quality issues.",
	})

	// StageDuration observes wall-clock stage durations in seconds.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pressroom",
		Name:      "stage_duration_seconds",
		Help:      "Stage execution duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"stage"})
)
