package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics - все счётчики сервиса. Методы безопасно вызывать на nil.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	AdapterCallsTotal   *prometheus.CounterVec
	AdapterCallDuration *prometheus.HistogramVec
	TopicsDetectedTotal *prometheus.CounterVec

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	RateLimitHitsTotal *prometheus.CounterVec
}

// New регистрирует метрики в глобальном реестре prometheus
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databot_requests_total",
				Help: "Total number of requests processed",
			},
			[]string{"type", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "databot_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"type"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "databot_requests_in_flight",
				Help: "Number of requests currently being processed",
			},
		),

		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databot_llm_requests_total",
				Help: "Total number of LLM API requests",
			},
			[]string{"model", "status"},
		),
		LLMRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "databot_llm_request_duration_seconds",
				Help:    "LLM request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"model"},
		),

		AdapterCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databot_adapter_calls_total",
				Help: "Total number of upstream adapter calls",
			},
			[]string{"topic", "status"},
		),
		AdapterCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "databot_adapter_call_duration_seconds",
				Help:    "Upstream adapter call duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"topic"},
		),
		TopicsDetectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databot_topics_detected_total",
				Help: "Total number of topics detected in queries",
			},
			[]string{"topic"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databot_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"topic"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databot_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"topic"},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databot_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"transport"},
		),
	}

	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordRequest(reqType, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(reqType, status).Inc()
	m.RequestDuration.WithLabelValues(reqType).Observe(duration.Seconds())
}

func (m *Metrics) RecordLLMRequest(model, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

func (m *Metrics) RecordAdapterCall(topic, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.AdapterCallsTotal.WithLabelValues(topic, status).Inc()
	m.AdapterCallDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func (m *Metrics) RecordTopicDetected(topic string) {
	if m == nil {
		return
	}
	m.TopicsDetectedTotal.WithLabelValues(topic).Inc()
}

func (m *Metrics) RecordCacheHit(topic string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(topic).Inc()
}

func (m *Metrics) RecordCacheMiss(topic string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(topic).Inc()
}

// transport: telegram | http
func (m *Metrics) RecordRateLimitHit(transport string) {
	if m == nil {
		return
	}
	m.RateLimitHitsTotal.WithLabelValues(transport).Inc()
}

func (m *Metrics) IncRequestsInFlight() {
	if m == nil {
		return
	}
	m.RequestsInFlight.Inc()
}

func (m *Metrics) DecRequestsInFlight() {
	if m == nil {
		return
	}
	m.RequestsInFlight.Dec()
}
