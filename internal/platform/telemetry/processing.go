package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Processing outcomes recorded by ProcessingMetrics.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
)

// ProcessingMetrics instruments background call processing and is exposed
// on /-/metrics next to the Go runtime collectors.
type ProcessingMetrics struct {
	calls      *prometheus.CounterVec
	stage      *prometheus.HistogramVec
	confidence prometheus.Histogram
	inFlight   prometheus.Gauge
}

// NewProcessingMetrics creates the collectors and registers them with reg.
func NewProcessingMetrics(reg prometheus.Registerer) (*ProcessingMetrics, error) {
	m := &ProcessingMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qc",
			Subsystem: "call_processing",
			Name:      "attempts_total",
			Help:      "Call processing attempts by outcome.",
		}, []string{"outcome"}),
		stage: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qc",
			Subsystem: "call_processing",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each call processing stage.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "qc",
			Subsystem: "call_processing",
			Name:      "ai_confidence",
			Help:      "Confidence of stored call analyses.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "qc",
			Subsystem: "call_processing",
			Name:      "in_flight",
			Help:      "Calls currently being processed.",
		}),
	}

	for _, c := range []prometheus.Collector{m.calls, m.stage, m.confidence, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Attempt records the outcome of one processing attempt.
func (m *ProcessingMetrics) Attempt(outcome string) {
	if m == nil {
		return
	}

	m.calls.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a stage took.
func (m *ProcessingMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}

	m.stage.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveConfidence records the confidence of a stored analysis.
func (m *ProcessingMetrics) ObserveConfidence(v float64) {
	if m == nil {
		return
	}

	m.confidence.Observe(v)
}

// Track marks a call as in flight until the returned func is called.
func (m *ProcessingMetrics) Track() func() {
	if m == nil {
		return func() {}
	}

	m.inFlight.Inc()

	return m.inFlight.Dec
}
