package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "incident_report"

// ValidationMetrics exposes counters/histograms for validation sessions.
type ValidationMetrics struct {
	sessionEvents *prometheus.CounterVec
	sweptTotal    prometheus.Counter
	sweepLatency  *prometheus.HistogramVec
	attempts      prometheus.Histogram
}

func NewValidationMetrics(reg prometheus.Registerer) *ValidationMetrics {
	m := &ValidationMetrics{
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "session_events_total",
			Help:      "Validation session lifecycle events",
		}, []string{"event"}),
		sweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "swept_total",
			Help:      "Validation sessions evicted by age sweeps",
		}),
		sweepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of validation store sweeps",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "attempts_per_session",
			Help:      "Attempts a validation session took before it finished",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 13},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sessionEvents, m.sweptTotal, m.sweepLatency, m.attempts)
	return m
}

// ObserveSessionEvent counts a lifecycle event such as "created", "updated",
// "completed" or "abandoned".
func (m *ValidationMetrics) ObserveSessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(event).Inc()
}

func (m *ValidationMetrics) ObserveSweep(removed int, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.sweepLatency.WithLabelValues(status).Observe(seconds)
	if removed > 0 {
		m.sweptTotal.Add(float64(removed))
	}
}

func (m *ValidationMetrics) ObserveAttempts(attempts int) {
	if m == nil {
		return
	}
	m.attempts.Observe(float64(attempts))
}

// LLMMetrics tracks completion calls per provider.
type LLMMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
}

func NewLLMMetrics(reg prometheus.Registerer) *LLMMetrics {
	m := &LLMMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "LLM completion requests",
		}, []string{"provider", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "LLM completion latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"provider"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens consumed by LLM completions",
		}, []string{"provider", "direction"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requests, m.latency, m.tokens)
	return m
}

func (m *LLMMetrics) ObserveRequest(provider string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.requests.WithLabelValues(provider, status).Inc()
	m.latency.WithLabelValues(provider).Observe(seconds)
}

func (m *LLMMetrics) ObserveTokens(provider string, input, output int32) {
	if m == nil {
		return
	}
	if input > 0 {
		m.tokens.WithLabelValues(provider, "input").Add(float64(input))
	}
	if output > 0 {
		m.tokens.WithLabelValues(provider, "output").Add(float64(output))
	}
}

// ReportMetrics counts finalized reports.
type ReportMetrics struct {
	finalized *prometheus.CounterVec
}

func NewReportMetrics(reg prometheus.Registerer) *ReportMetrics {
	m := &ReportMetrics{
		finalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "finalized_total",
			Help:      "Reports persisted after generation",
		}, []string{"offense", "complete"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.finalized)
	return m
}

func (m *ReportMetrics) ObserveFinalized(offenseID string, complete bool) {
	if m == nil {
		return
	}
	m.finalized.WithLabelValues(offenseID, strconv.FormatBool(complete)).Inc()
}
