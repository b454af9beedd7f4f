// Package observability groups the Prometheus instruments for the chat
// gateway and memory subsystem.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all instruments used by the service.
type Metrics struct {
	ChatRequests       *prometheus.CounterVec
	ChatLatency        prometheus.Histogram
	MemoryDegradations *prometheus.CounterVec
	RetrievedRecords   prometheus.Histogram
}

// NewMetrics registers the instruments under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ChatRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome"}),
		ChatLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_request_seconds",
			Help:      "End-to-end chat latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
		}),
		MemoryDegradations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_degradations_total",
			Help:      "Long-term memory degradations by stage.",
		}, []string{"stage"}),
		RetrievedRecords: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "memory_retrieved_records",
			Help:      "Long-term records retrieved per chat request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
	}
}

// ObserveChat records one finished chat request.
func (m *Metrics) ObserveChat(outcome string, d time.Duration) {
	m.ChatRequests.WithLabelValues(outcome).Inc()
	m.ChatLatency.Observe(d.Seconds())
}

// MetricsHandler exposes the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
