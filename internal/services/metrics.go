package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	EnhanceRequests *prometheus.CounterVec
	EnhanceLatency  prometheus.Histogram
	ProviderErrors  *prometheus.CounterVec
	LocalFallbacks  prometheus.Counter
	CacheHits       prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		EnhanceRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "promptgw_enhance_requests_total",
			Help: "Total number of enhancement requests by prompt type",
		}, []string{"prompt_type"}),

		EnhanceLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptgw_enhance_duration_seconds",
			Help:    "Enhancement request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for slow providers
		}),

		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "promptgw_provider_errors_total",
			Help: "Total number of provider call failures by provider",
		}, []string{"provider"}),

		LocalFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promptgw_local_fallbacks_total",
			Help: "Total number of requests served by the local rule-based rewrite",
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promptgw_result_cache_hits_total",
			Help: "Total number of enhancement requests served from the result cache",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records an enhancement request
func (m *Metrics) RecordRequest(promptType string) {
	m.EnhanceRequests.WithLabelValues(promptType).Inc()
}

// RecordLatency records end-to-end enhancement latency
func (m *Metrics) RecordLatency(seconds float64) {
	m.EnhanceLatency.Observe(seconds)
}

// RecordProviderError records a failed provider call
func (m *Metrics) RecordProviderError(provider string) {
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

// RecordFallback records a request that fell through to the local rewrite
func (m *Metrics) RecordFallback() {
	m.LocalFallbacks.Inc()
}

// RecordCacheHit records a result-cache hit
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}
