package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the loader
type Registry struct {
	// Load Metrics
	LoadRunsTotal             *prometheus.CounterVec
	LoadRowsTotal             *prometheus.CounterVec
	NodesCreatedTotal         *prometheus.CounterVec
	RelationshipsCreatedTotal *prometheus.CounterVec
	RelationshipsDroppedTotal *prometheus.CounterVec
	LoadPhaseDuration         *prometheus.HistogramVec
	LoadBytesRead             *prometheus.CounterVec

	// Graph Metrics
	GraphNodes         *prometheus.GaugeVec
	GraphRelationships *prometheus.GaugeVec
	GraphQueriesTotal  *prometheus.CounterVec

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initLoadMetrics()
	r.initGraphMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
