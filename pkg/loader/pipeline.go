package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/dataset"
	"github.com/dd0wney/medgraph/pkg/logging"
	"github.com/dd0wney/medgraph/pkg/source"
)

// Load phases
const (
	PhaseConstraints   = "constraints"
	PhaseNodes         = "nodes"
	PhaseRelationships = "relationships"
)

// Pipeline runs constraints, node loads and relationship loads in order.
type Pipeline struct {
	store    backend.Store
	source   source.Source
	manifest *dataset.Manifest
	opts     Options
}

// NewPipeline returns a pipeline loading manifest's files from src into store.
func NewPipeline(store backend.Store, src source.Source, manifest *dataset.Manifest, opts Options) *Pipeline {
	return &Pipeline{
		store:    store,
		source:   src,
		manifest: manifest,
		opts:     opts.withDefaults(),
	}
}

// Run performs one load. Node files load concurrently up to
// Options.Parallelism; relationship files load only after every node file
// has. The first error ends the run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Source:  p.source.Location(),
		Started: time.Now(),
	}
	logger := p.opts.Logger.With(logging.RunID(report.RunID))
	opts := p.opts
	opts.Logger = logger

	logger.Info("load started",
		logging.String("source", report.Source),
		logging.Int("batch_size", opts.BatchSize),
		logging.Int("parallelism", opts.Parallelism),
		logging.Bool("strict_endpoints", opts.StrictEndpoints),
	)

	err := p.run(ctx, report, opts, logger)
	report.Duration = time.Since(report.Started)
	p.opts.Metrics.RecordRun(err == nil)
	if err != nil {
		logger.Error("load failed", logging.Error(err), logging.Latency(report.Duration))
		return report, err
	}

	logger.Info("load complete",
		logging.Int("nodes", report.NodesCreated()),
		logging.Int("relationships", report.RelationshipsCreated()),
		logging.Int("dropped", report.Dropped()),
		logging.Latency(report.Duration),
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, report *Report, opts Options, logger logging.Logger) error {
	err := p.phase(PhaseConstraints, logger, func() error {
		return SetupConstraints(ctx, p.store, p.manifest.Labels(), logger)
	})
	if err != nil {
		return err
	}

	report.Nodes = make([]FileReport, len(p.manifest.Nodes))
	err = p.phase(PhaseNodes, logger, func() error {
		nodes := NewNodeLoader(p.store, opts)
		workers := pool.New().
			WithContext(ctx).
			WithMaxGoroutines(opts.Parallelism).
			WithCancelOnError().
			WithFirstError()
		for i, nf := range p.manifest.Nodes {
			workers.Go(func(ctx context.Context) error {
				fr, err := p.loadFile(ctx, nf.File, func(f *source.File) (FileReport, error) {
					return nodes.Load(ctx, nf.Label, nf.File, f)
				})
				report.Nodes[i] = fr
				return err
			})
		}
		return workers.Wait()
	})
	if err != nil {
		return err
	}

	report.Relationships = make([]FileReport, 0, len(p.manifest.Relationships))
	return p.phase(PhaseRelationships, logger, func() error {
		rels := NewRelationshipLoader(p.store, opts)
		for _, rf := range p.manifest.Relationships {
			fr, err := p.loadFile(ctx, rf.File, func(f *source.File) (FileReport, error) {
				return rels.Load(ctx, rf, f)
			})
			report.Relationships = append(report.Relationships, fr)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Pipeline) phase(name string, logger logging.Logger, fn func() error) error {
	timer := logging.StartTimer(logger, "phase complete", logging.Phase(name))
	err := fn()
	var d time.Duration
	if err != nil {
		d = timer.EndError(err)
	} else {
		d = timer.End()
	}
	p.opts.Metrics.ObservePhase(name, d)
	return err
}

func (p *Pipeline) loadFile(ctx context.Context, name string, load func(*source.File) (FileReport, error)) (FileReport, error) {
	f, err := p.source.Open(ctx, name)
	if err != nil {
		return FileReport{File: name}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	fr, err := load(f)
	fr.Bytes = f.Size()
	fr.Digest = f.Digest()
	p.opts.Metrics.RecordBytesRead(name, f.Size())
	return fr, err
}
