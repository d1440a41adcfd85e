package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

const namespace = "catalog"

var (
	// PendingStaged counts pending rows created by staging
	PendingStaged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_staged_total",
			Help:      "Pending rows created by staging",
		},
		[]string{"kind", "change_type"},
	)

	// CandidatesSkipped counts candidates that did not produce a pending row
	CandidatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_skipped_total",
			Help:      "Scraped candidates skipped during staging",
		},
		[]string{"kind", "reason"},
	)

	// ReviewDecisions counts terminal transitions of pending rows
	ReviewDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_decisions_total",
			Help:      "Approved and rejected pending rows",
		},
		[]string{"kind", "status"},
	)

	// MissingTargets counts approvals whose production target had vanished
	MissingTargets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approval_missing_targets_total",
			Help:      "Approvals applied as no-op because the production row was gone",
		},
		[]string{"kind"},
	)

	// RunDuration tracks the duration of scrape runs
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scrape_run_duration_seconds",
			Help:      "Duration of scrape runs in seconds",
			Buckets: []float64{
				0.1, 0.5, 1, 5, 10, 30, 60, 300, 600,
			},
		},
		[]string{"result"}, // success, partial or failed
	)

	// ExtractionFailures counts per bank extraction failures
	ExtractionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Source extractor failures",
		},
		[]string{"bank"},
	)

	// CardsMerged counts duplicate cards merged into a kept card
	CardsMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_merged_total",
			Help:      "Duplicate cards merged",
		},
	)
)

// RecordStaged ...
func RecordStaged(kind string, changeType string) {
	PendingStaged.WithLabelValues(kind, changeType).Inc()
}

// RecordSkipped ...
func RecordSkipped(kind string, reason string) {
	CandidatesSkipped.WithLabelValues(kind, reason).Inc()
}

// RecordReview ...
func RecordReview(kind string, status string) {
	ReviewDecisions.WithLabelValues(kind, status).Inc()
}

// RecordMissingTarget ...
func RecordMissingTarget(kind string) {
	MissingTargets.WithLabelValues(kind).Inc()
}

// RecordRun ...
func RecordRun(result string, d time.Duration) {
	RunDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordExtractionFailure ...
func RecordExtractionFailure(bank string) {
	ExtractionFailures.WithLabelValues(bank).Inc()
}

// RecordCardsMerged ...
func RecordCardsMerged(n int) {
	CardsMerged.Add(float64(n))
}
