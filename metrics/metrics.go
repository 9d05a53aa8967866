// Package metrics instruments LLM provider calls with prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricsNamespace    = "llmgw"
	MetricsSubsystemLLM = "llm"
)

// LLMetrics records per-provider LLM call metrics.
type LLMetrics interface {
	GetRegistry() *prometheus.Registry

	ObserveLLMRequest(provider string)
	ObserveLLMError(provider string)
	ObserveLLMTokens(provider string, count int64)
	ObserveLLMRequestDuration(provider string, elapsed float64)
}

// metrics used to instrument calls in prometheus.
type metrics struct {
	registry *prometheus.Registry

	llmRequestsTotal *prometheus.CounterVec
	llmErrorsTotal   *prometheus.CounterVec
	llmTokensTotal   *prometheus.CounterVec
	llmRequestTime   *prometheus.HistogramVec
}

// NewMetrics Factory method to create a new metrics collector.
func NewMetrics() LLMetrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()

	m.llmRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemLLM,
		Name:      "requests_total",
		Help:      "The total number of LLM requests.",
	}, []string{"provider"})
	m.registry.MustRegister(m.llmRequestsTotal)

	m.llmErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemLLM,
		Name:      "errors_total",
		Help:      "The total number of failed LLM requests.",
	}, []string{"provider"})
	m.registry.MustRegister(m.llmErrorsTotal)

	m.llmTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemLLM,
		Name:      "tokens_total",
		Help:      "The total number of tokens reported by providers.",
	}, []string{"provider"})
	m.registry.MustRegister(m.llmTokensTotal)

	m.llmRequestTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemLLM,
		Name:      "request_time_seconds",
		Help:      "Time to complete an LLM request.",
	}, []string{"provider"})
	m.registry.MustRegister(m.llmRequestTime)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metrics) ObserveLLMRequest(provider string) {
	m.llmRequestsTotal.With(prometheus.Labels{"provider": provider}).Inc()
}

func (m *metrics) ObserveLLMError(provider string) {
	m.llmErrorsTotal.With(prometheus.Labels{"provider": provider}).Inc()
}

func (m *metrics) ObserveLLMTokens(provider string, count int64) {
	m.llmTokensTotal.With(prometheus.Labels{"provider": provider}).Add(float64(count))
}

func (m *metrics) ObserveLLMRequestDuration(provider string, elapsed float64) {
	m.llmRequestTime.With(prometheus.Labels{"provider": provider}).Observe(elapsed)
}
