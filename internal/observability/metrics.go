package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Turns            *prometheus.CounterVec
	IntentDecisions  *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	TasksPersisted   *prometheus.CounterVec
	ArtifactFailures *prometheus.CounterVec
	Followups        *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Handled conversation turns by resulting action.",
		}, []string{"action"}),
		IntentDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_decisions_total",
			Help:      "Intent classifications by deciding stage and macro intent.",
		}, []string{"stage", "macro_intent"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and code.",
		}, []string{"provider", "code"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_ms",
			Help:      "Completion provider call latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000},
		}, []string{"provider"}),
		TasksPersisted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_persisted_total",
			Help:      "Finalized tasks by type.",
		}, []string{"type"}),
		ArtifactFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_failures_total",
			Help:      "Calendar invites that could not be built.",
		}, []string{"reason"}),
		Followups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "followups_total",
			Help:      "Follow-up questions asked by slot.",
		}, []string{"slot"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		stages: newStageWindow(256),
	}
}

// ObserveProvider records one completion call. An empty code means success.
func (m *Metrics) ObserveProvider(provider, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderLatency.WithLabelValues(provider).Observe(float64(d.Milliseconds()))
	if code != "" {
		m.ProviderErrors.WithLabelValues(provider, code).Inc()
	}
}

func (m *Metrics) ObserveIntent(stage, macroIntent string) {
	if m == nil {
		return
	}
	m.IntentDecisions.WithLabelValues(stage, macroIntent).Inc()
}

func (m *Metrics) ObserveTurn(action string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveTaskPersisted(taskType string) {
	if m == nil {
		return
	}
	m.TasksPersisted.WithLabelValues(taskType).Inc()
}

func (m *Metrics) ObserveArtifactFailure(reason string) {
	if m == nil {
		return
	}
	m.ArtifactFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveFollowup(slot string) {
	if m == nil {
		return
	}
	m.Followups.WithLabelValues(slot).Inc()
}

// ObserveWSMessage counts one chat channel frame.
func (m *Metrics) ObserveWSMessage(direction, messageType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, messageType).Inc()
}

// ObserveTurnStage feeds the rolling latency window served by /v1/perf/stages.
func (m *Metrics) ObserveTurnStage(stage string, d time.Duration) {
	if m == nil || m.stages == nil {
		return
	}
	m.stages.observe(stage, d)
}

func (m *Metrics) StageSnapshot() StageSnapshot {
	if m == nil || m.stages == nil {
		return newStageWindow(1).snapshot(time.Now())
	}
	return m.stages.snapshot(time.Now())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
