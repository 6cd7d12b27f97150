package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TrialsRun counts every timed query repetition, successful or not.
var TrialsRun = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "formatbench",
	Name:      "trials_run_total",
	Help:      "Total number of timed query repetitions submitted to the engine.",
})

// TrialFailures counts repetitions the execution engine failed.
var TrialFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "formatbench",
	Name:      "trial_failures_total",
	Help:      "Total number of repetitions that failed inside the execution engine.",
})

// CellsCompleted counts matrix cells whose repetitions all succeeded.
var CellsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "formatbench",
	Name:      "cells_completed_total",
	Help:      "Total number of matrix cells completed without engine errors.",
})

// CellsFailed counts matrix cells with at least one failed repetition.
var CellsFailed = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "formatbench",
	Name:      "cells_failed_total",
	Help:      "Total number of matrix cells with at least one failed repetition.",
})

// VariantsSkipped counts parquet variants dropped because their file
// metadata could not be read.
var VariantsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "formatbench",
	Name:      "variants_skipped_total",
	Help:      "Total number of parquet variants skipped due to unreadable metadata.",
})

// Init registers all metrics with the default Prometheus registry.
// Keeping registration centralized makes adding new metrics straightforward later.
func Init() {
	prometheus.MustRegister(TrialsRun, TrialFailures, CellsCompleted, CellsFailed, VariantsSkipped)
}
