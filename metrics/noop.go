package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NoopMetrics is a no-operation implementation of the LLMetrics interface.
type NoopMetrics struct {
}

// NewNoopMetrics creates a new instance of NoopMetrics.
func NewNoopMetrics() LLMetrics {
	return &NoopMetrics{}
}

// GetRegistry returns a new empty registry.
func (m *NoopMetrics) GetRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ObserveLLMRequest is a no-op implementation.
func (m *NoopMetrics) ObserveLLMRequest(provider string) {
	// No-op
}

// ObserveLLMError is a no-op implementation.
func (m *NoopMetrics) ObserveLLMError(provider string) {
	// No-op
}

// ObserveLLMTokens is a no-op implementation.
func (m *NoopMetrics) ObserveLLMTokens(provider string, count int64) {
	// No-op
}

// ObserveLLMRequestDuration is a no-op implementation.
func (m *NoopMetrics) ObserveLLMRequestDuration(provider string, elapsed float64) {
	// No-op
}
