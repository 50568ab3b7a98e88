// Package metrics holds the bot's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsTotal counts slash command invocations by outcome
	// (ok, user_error, failed, panic).
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charabot_commands_total",
			Help: "Slash command invocations by command and outcome.",
		},
		[]string{"command", "outcome"},
	)

	// CommandDuration observes handler wall time, including prompt waits.
	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "charabot_command_duration_seconds",
			Help:    "Slash command handling time in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"command"},
	)

	// WorkflowOutcomes counts terminal states of interactive prompts.
	WorkflowOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charabot_workflow_outcomes_total",
			Help: "Interactive prompt outcomes by kind and terminal state.",
		},
		[]string{"kind", "state"},
	)

	// BlobCleanupFailures counts image deletions that failed and were skipped.
	BlobCleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "charabot_blob_cleanup_failures_total",
		Help: "Best-effort image deletions that failed.",
	})
)
