package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medgraph_graph_nodes",
			Help: "Number of nodes in the graph by label, as of the last verification",
		},
		[]string{"label"},
	)

	r.GraphRelationships = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medgraph_graph_relationships",
			Help: "Number of relationships in the graph by type, as of the last verification",
		},
		[]string{"type"},
	)

	r.GraphQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "medgraph_graph_queries_total",
			Help: "Total number of read queries by kind and status",
		},
		[]string{"kind", "status"},
	)
}
