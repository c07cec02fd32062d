package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLoadMetrics() {
	r.LoadRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "medgraph_load_runs_total",
			Help: "Total number of load runs by outcome",
		},
		[]string{"outcome"},
	)

	r.LoadRowsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "medgraph_load_rows_total",
			Help: "Total number of CSV rows processed",
		},
		[]string{"file", "outcome"},
	)

	r.NodesCreatedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "medgraph_nodes_created_total",
			Help: "Total number of nodes created",
		},
		[]string{"label"},
	)

	r.RelationshipsCreatedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "medgraph_relationships_created_total",
			Help: "Total number of relationships created",
		},
		[]string{"type"},
	)

	r.RelationshipsDroppedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "medgraph_relationships_dropped_total",
			Help: "Total number of relationship rows dropped for a missing endpoint",
		},
		[]string{"type"},
	)

	r.LoadPhaseDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medgraph_load_phase_duration_seconds",
			Help:    "Load phase duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"phase"},
	)

	r.LoadBytesRead = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "medgraph_load_bytes_read_total",
			Help: "Total bytes read from dataset files",
		},
		[]string{"file"},
	)
}
