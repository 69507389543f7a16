package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ScansTotal counts scan outcomes by how the processor classified them:
// present, late, duplicate or unknown.
var ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vibecheck_scans_total",
	Help: "Processed card scans by outcome.",
}, []string{"outcome"})

// NarrationsTotal counts narration lines dispatched by the worker.
var NarrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vibecheck_narrations_total",
	Help: "Narration lines published to capture stations.",
})

// Outcome labels for ScansTotal.
const (
	OutcomePresent   = "present"
	OutcomeLate      = "late"
	OutcomeDuplicate = "duplicate"
	OutcomeUnknown   = "unknown"
)
