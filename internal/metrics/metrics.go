// Package metrics records Prometheus metrics for interview turns, oracle
// calls and transcript persistence.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	oracleCalls    *prometheus.CounterVec
	oracleDuration *prometheus.HistogramVec
	turns          *prometheus.CounterVec
	transcripts    *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		oracleCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casebot_oracle_calls_total",
				Help: "Language model calls by operation, provider and outcome",
			},
			[]string{"operation", "provider", "outcome"},
		),
		oracleDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "casebot_oracle_call_duration_seconds",
				Help:    "Duration of language model calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider"},
		),
		turns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casebot_turns_total",
				Help: "Conversation turns by the stage the session ended in",
			},
			[]string{"stage"},
		),
		transcripts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casebot_transcripts_total",
				Help: "Completed case study records by persistence outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveOracle records one oracle call. outcome is "ok", "error" or "timeout".
func (r *Recorder) ObserveOracle(operation, provider, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.oracleCalls.WithLabelValues(operation, provider, outcome).Inc()
	r.oracleDuration.WithLabelValues(operation, provider).Observe(d.Seconds())
}

// IncTurn counts a processed turn.
func (r *Recorder) IncTurn(stage string) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(stage).Inc()
}

// IncTranscript counts a persistence attempt. outcome is "ok" or "error".
func (r *Recorder) IncTranscript(outcome string) {
	if r == nil {
		return
	}
	r.transcripts.WithLabelValues(outcome).Inc()
}
