package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the market service.
type Metrics struct {
	Operations       *prometheus.CounterVec
	Volume           *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	ExpiredStreams   prometheus.Gauge
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stream_operations_total",
			Help: "Market operations by name and result (ok or the failure code).",
		}, []string{"op", "result"}),

		Volume: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stream_volume_lamports_total",
			Help: "Lamports moved through vaults by operation.",
		}, []string{"op"}),

		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stream_operation_duration_seconds",
			Help:    "Wall time of market operations, lock wait included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),

		ExpiredStreams: f.NewGauge(prometheus.GaugeOpts{
			Name: "stream_expired_unresolved",
			Help: "Active streams past their end time that have not been ended.",
		}),
	}
}

// NewNop returns collectors bound to a private registry, for tests and tools
// that do not expose /metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
