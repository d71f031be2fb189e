package metrics

import "github.com/prometheus/client_golang/prometheus"

// CallMetrics exposes counters/histograms for call-control turns.
type CallMetrics struct {
	turnsTotal      *prometheus.CounterVec
	intentsTotal    *prometheus.CounterVec
	schedulingTotal *prometheus.CounterVec
	calendarLatency *prometheus.HistogramVec
	webhookLatency  *prometheus.HistogramVec
}

func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	m := &CallMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callassistant",
			Subsystem: "webhook",
			Name:      "turns_total",
			Help:      "Call-control webhook turns by event type and outcome kind",
		}, []string{"event_type", "outcome"}),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callassistant",
			Subsystem: "dialogue",
			Name:      "intents_total",
			Help:      "Classified caller intents",
		}, []string{"intent"}),
		schedulingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callassistant",
			Subsystem: "scheduling",
			Name:      "results_total",
			Help:      "Scheduling attempts by result",
		}, []string{"result"}),
		calendarLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "callassistant",
			Subsystem: "calendar",
			Name:      "latency_seconds",
			Help:      "Latency of calendar API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "callassistant",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of call-control webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.intentsTotal, m.schedulingTotal, m.calendarLatency, m.webhookLatency)
	return m
}

func (m *CallMetrics) ObserveTurn(eventType, outcome string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.turnsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *CallMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

func (m *CallMetrics) ObserveScheduling(result string) {
	if m == nil {
		return
	}
	m.schedulingTotal.WithLabelValues(result).Inc()
}

func (m *CallMetrics) ObserveCalendarLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.calendarLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *CallMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}
