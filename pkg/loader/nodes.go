package loader

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/logging"
	"github.com/dd0wney/medgraph/pkg/metrics"
)

var nodeColumns = []string{"id", "name", "type"}

// NodeLoader creates one node per CSV row.
type NodeLoader struct {
	store backend.Store
	opts  Options
}

// NewNodeLoader returns a loader writing to store.
func NewNodeLoader(store backend.Store, opts Options) *NodeLoader {
	return &NodeLoader{store: store, opts: opts.withDefaults()}
}

type pendingNode struct {
	entity backend.Entity
	line   int
}

// Load reads id,name,type rows from r and creates label nodes. No existence
// check is made: a repeated id surfaces as *ConstraintViolation when the
// label is constrained. Batches flushed before a failure stay written.
func (l *NodeLoader) Load(ctx context.Context, label, file string, r io.Reader) (FileReport, error) {
	start := time.Now()
	report := FileReport{File: file, Kind: label}
	logger := l.opts.Logger.With(logging.File(file), logging.Label(label))

	t, err := openTable(file, r, nodeColumns...)
	if err != nil {
		return report, err
	}

	batch := make([]pendingNode, 0, l.opts.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.createNodes(ctx, label, file, batch); err != nil {
			l.opts.Metrics.RecordRows(file, metrics.OutcomeFailed, len(batch))
			return err
		}
		report.Created += len(batch)
		l.opts.Metrics.RecordRows(file, metrics.OutcomeLoaded, len(batch))
		l.opts.Metrics.RecordNodesCreated(label, len(batch))
		logger.Debug("node batch written", logging.Count(len(batch)))
		batch = batch[:0]
		return nil
	}

	for {
		record, line, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, err
		}
		report.Rows++

		id, err := t.int64(record, line, "id")
		if err != nil {
			l.opts.Metrics.RecordRows(file, metrics.OutcomeFailed, 1)
			return report, err
		}
		batch = append(batch, pendingNode{
			entity: backend.Entity{
				Label: label,
				ID:    id,
				Name:  t.field(record, "name"),
				Type:  t.field(record, "type"),
			},
			line: line,
		})
		if len(batch) >= l.opts.BatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	logger.Info("nodes loaded", logging.Count(report.Created), logging.Latency(report.Duration))
	return report, nil
}

func (l *NodeLoader) createNodes(ctx context.Context, label, file string, batch []pendingNode) error {
	entities := make([]backend.Entity, len(batch))
	for i, p := range batch {
		entities[i] = p.entity
	}

	err := l.store.CreateNodes(ctx, entities)
	var dup *backend.DuplicateKeyError
	if !errors.As(err, &dup) {
		return err
	}

	line := duplicateLine(batch, dup)
	return &ConstraintViolation{File: file, Line: line, Label: dup.Label, ID: dup.ID, Err: err}
}

// duplicateLine finds the row that broke the constraint: the first row with
// the key when it clashes with a stored node, else the first repeat.
func duplicateLine(batch []pendingNode, dup *backend.DuplicateKeyError) int {
	first := 0
	for _, p := range batch {
		if p.entity.ID != dup.ID {
			continue
		}
		if first == 0 {
			first = p.line
			if dup.Existing {
				return first
			}
			continue
		}
		return p.line
	}
	return first
}
