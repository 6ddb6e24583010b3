// Package metrics exposes Prometheus instrumentation for suggestion serving,
// training and a-priori corpus rebuilds.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "didyoumean"

var (
	// suggestionsServed counts DidYouMean calls by outcome.
	// Labels: outcome (dictionary, second_level, none, error)
	suggestionsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "suggest",
		Name:      "requests_total",
		Help:      "Suggestion requests by outcome",
	}, []string{"outcome"})

	// suggestLatency measures end-to-end suggestion latency.
	suggestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "suggest",
		Name:      "latency_seconds",
		Help:      "Suggestion latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	// navigationAborts counts navigations that hit the iteration cap.
	navigationAborts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "suggest",
		Name:      "navigation_aborts_total",
		Help:      "Navigations abandoned at the iteration cap",
	})

	// secondLevelLookups counts second-level lookups.
	// Labels: result (hit, miss, error)
	secondLevelLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dictionary",
		Name:      "second_level_lookups_total",
		Help:      "Second-level suggester lookups by result",
	}, []string{"result"})

	// adaptations counts score adjustments made by the trainer.
	// Labels: kind (accepted, ignored, positive)
	adaptations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "training",
		Name:      "adaptations_total",
		Help:      "Score adaptations by kind",
	}, []string{"kind"})

	// sessionsTrained counts sessions by training status.
	// Labels: status (success, error)
	sessionsTrained = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "training",
		Name:      "sessions_total",
		Help:      "Trained sessions by status",
	}, []string{"status"})

	// batchDuration measures how long one batch of expired sessions takes.
	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "training",
		Name:      "batch_duration_seconds",
		Help:      "Duration of one expired-session training batch",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	// corpusRebuilds counts a-priori corpus rebuilds by status.
	// Labels: status (success, error)
	corpusRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "corpus",
		Name:      "rebuilds_total",
		Help:      "A-priori corpus rebuilds by status",
	}, []string{"status"})

	// corpusDocuments reports the size of the current a-priori corpus.
	corpusDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "corpus",
		Name:      "documents",
		Help:      "Documents in the current a-priori corpus",
	})
)

// Suggestion outcomes.
const (
	OutcomeDictionary  = "dictionary"
	OutcomeSecondLevel = "second_level"
	OutcomeNone        = "none"
	OutcomeError       = "error"
)

// Second-level lookup results.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Adaptation kinds.
const (
	AdaptAccepted = "accepted"
	AdaptIgnored  = "ignored"
	AdaptPositive = "positive"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RecordSuggestion records one suggestion request.
//
// Inputs:
//
//	outcome - One of the Outcome constants.
//	durationSec - Duration in seconds.
func RecordSuggestion(outcome string, durationSec float64) {
	suggestionsServed.WithLabelValues(outcome).Inc()
	suggestLatency.Observe(durationSec)
}

// RecordNavigationAbort records a navigation that exceeded the iteration cap.
func RecordNavigationAbort() {
	navigationAborts.Inc()
}

// RecordSecondLevelLookup records a second-level lookup result.
func RecordSecondLevelLookup(result string) {
	secondLevelLookups.WithLabelValues(result).Inc()
}

// RecordAdaptation records one score adaptation.
func RecordAdaptation(kind string) {
	adaptations.WithLabelValues(kind).Inc()
}

// RecordSessionTrained records the outcome of training one session.
func RecordSessionTrained(status string) {
	sessionsTrained.WithLabelValues(status).Inc()
}

// RecordBatchDuration records the duration of one training batch.
func RecordBatchDuration(durationSec float64) {
	batchDuration.Observe(durationSec)
}

// RecordCorpusRebuild records a corpus rebuild and, on success, its size.
func RecordCorpusRebuild(status string, documents int) {
	corpusRebuilds.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		corpusDocuments.Set(float64(documents))
	}
}
