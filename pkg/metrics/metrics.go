package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Row outcomes
const (
	OutcomeLoaded  = "loaded"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

// RecordRun records the outcome of a whole load run
func (r *Registry) RecordRun(success bool) {
	outcome := OutcomeLoaded
	if !success {
		outcome = OutcomeFailed
	}
	r.LoadRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordRows adds n rows of file with the given outcome
func (r *Registry) RecordRows(file, outcome string, n int) {
	if n <= 0 {
		return
	}
	r.LoadRowsTotal.WithLabelValues(file, outcome).Add(float64(n))
}

// RecordNodesCreated adds n created nodes of label
func (r *Registry) RecordNodesCreated(label string, n int) {
	r.NodesCreatedTotal.WithLabelValues(label).Add(float64(n))
}

// RecordRelationships records created and dropped relationships of relType
func (r *Registry) RecordRelationships(relType string, created, dropped int) {
	r.RelationshipsCreatedTotal.WithLabelValues(relType).Add(float64(created))
	r.RelationshipsDroppedTotal.WithLabelValues(relType).Add(float64(dropped))
}

// RecordBytesRead adds n bytes read from file
func (r *Registry) RecordBytesRead(file string, n int64) {
	r.LoadBytesRead.WithLabelValues(file).Add(float64(n))
}

// ObservePhase records how long a load phase took
func (r *Registry) ObservePhase(phase string, duration time.Duration) {
	r.LoadPhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordQuery records a read query
func (r *Registry) RecordQuery(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.GraphQueriesTotal.WithLabelValues(kind, status).Inc()
}

// SetGraphCounts replaces the graph gauges with the given counts
func (r *Registry) SetGraphCounts(nodes, relationships map[string]int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.GraphNodes.Reset()
	for label, n := range nodes {
		r.GraphNodes.WithLabelValues(label).Set(float64(n))
	}
	r.GraphRelationships.Reset()
	for relType, n := range relationships {
		r.GraphRelationships.WithLabelValues(relType).Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
