package loader

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/dataset"
	"github.com/dd0wney/medgraph/pkg/logging"
	"github.com/dd0wney/medgraph/pkg/metrics"
)

var relationshipColumns = []string{"from_id", "to_id"}

// RelationshipLoader creates one directed edge per CSV row whose endpoints
// both exist.
type RelationshipLoader struct {
	store backend.Store
	opts  Options
}

// NewRelationshipLoader returns a loader writing to store.
func NewRelationshipLoader(store backend.Store, opts Options) *RelationshipLoader {
	return &RelationshipLoader{store: store, opts: opts.withDefaults()}
}

type pendingLink struct {
	link backend.Link
	line int
}

// Load reads from_id,to_id rows from r. A row with a missing endpoint creates
// nothing: it is counted and logged, or returned as *MissingEndpointError
// in strict mode. Duplicate rows create duplicate edges.
func (l *RelationshipLoader) Load(ctx context.Context, rel dataset.RelationshipFile, r io.Reader) (FileReport, error) {
	start := time.Now()
	file := rel.File
	report := FileReport{File: file, Kind: rel.Type}
	logger := l.opts.Logger.With(logging.File(file), logging.RelType(rel.Type))

	t, err := openTable(file, r, relationshipColumns...)
	if err != nil {
		return report, err
	}

	batch := make([]pendingLink, 0, l.opts.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		created, dropped, err := l.relate(ctx, file, batch, logger)
		report.Created += created
		report.Dropped += dropped
		l.opts.Metrics.RecordRows(file, metrics.OutcomeLoaded, created)
		l.opts.Metrics.RecordRows(file, metrics.OutcomeDropped, dropped)
		l.opts.Metrics.RecordRelationships(rel.Type, created, dropped)
		batch = batch[:0]
		return err
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

		fromID, err := t.int64(record, line, "from_id")
		if err != nil {
			return report, err
		}
		toID, err := t.int64(record, line, "to_id")
		if err != nil {
			return report, err
		}
		batch = append(batch, pendingLink{
			link: backend.Link{
				Type:      rel.Type,
				FromLabel: rel.From,
				ToLabel:   rel.To,
				FromID:    fromID,
				ToID:      toID,
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
	logger.Info("relationships loaded",
		logging.Count(report.Created),
		logging.Int("dropped", report.Dropped),
		logging.Latency(report.Duration),
	)
	return report, nil
}

func (l *RelationshipLoader) relate(ctx context.Context, file string, batch []pendingLink, logger logging.Logger) (int, int, error) {
	links := make([]backend.Link, len(batch))
	for i, p := range batch {
		links[i] = p.link
	}

	created, missing, err := l.store.Relate(ctx, links)
	if err != nil {
		return 0, 0, err
	}

	// missing preserves input order, so it can be matched back to lines
	j := 0
	for _, p := range batch {
		if j == len(missing) {
			break
		}
		if p.link != missing[j] {
			continue
		}
		j++
		logger.Warn("relationship row dropped: endpoint not found",
			logging.Line(p.line),
			logging.Int64("from_id", p.link.FromID),
			logging.Int64("to_id", p.link.ToID),
		)
		if l.opts.StrictEndpoints {
			return created, len(missing), &MissingEndpointError{File: file, Line: p.line, Link: p.link}
		}
	}
	return created, len(missing), nil
}
