// Package loader bulk-loads a dataset's CSV files into a graph store:
// constraints first, then nodes, then relationships.
package loader

import (
	"github.com/dd0wney/medgraph/pkg/logging"
	"github.com/dd0wney/medgraph/pkg/metrics"
)

const (
	DefaultBatchSize   = 1000
	DefaultParallelism = 1
)

// Options configures the loaders and the pipeline.
type Options struct {
	// BatchSize is the number of rows sent to the store per call.
	BatchSize int
	// Parallelism bounds how many node files load at once.
	Parallelism int
	// StrictEndpoints makes a relationship row with a missing endpoint fatal.
	StrictEndpoints bool

	Logger  logging.Logger
	Metrics *metrics.Registry
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Parallelism <= 0 {
		o.Parallelism = DefaultParallelism
	}
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewRegistry()
	}
	return o
}
