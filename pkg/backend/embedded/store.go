// Package embedded implements backend.Store over the in-process graph engine.
package embedded

import (
	"context"
	"fmt"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/storage"
)

// Config selects where the embedded graph keeps its snapshot.
type Config struct {
	// DataDir holds the snapshot. Empty keeps the graph in memory only.
	DataDir string
	// Compress snappy-encodes the snapshot.
	Compress bool
}

// Store is a backend.Store backed by storage.GraphStorage.
type Store struct {
	graph *storage.GraphStorage
}

var _ backend.Store = (*Store)(nil)

// Open loads (or creates) the graph in cfg.DataDir.
func Open(cfg Config) (*Store, error) {
	graph, err := storage.NewGraphStorageWithConfig(storage.StorageConfig{
		DataDir:           cfg.DataDir,
		SnapshotOnClose:   cfg.DataDir != "",
		CompressSnapshots: cfg.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("open embedded graph: %w", err)
	}
	return &Store{graph: graph}, nil
}

// New wraps an existing graph.
func New(graph *storage.GraphStorage) *Store {
	return &Store{graph: graph}
}

// Graph exposes the underlying engine for audits.
func (s *Store) Graph() *storage.GraphStorage {
	return s.graph
}

func (s *Store) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.graph.CreateUniqueConstraint(label, property)
}

// CreateNodes commits nodes as one batch. A rejected batch leaves the graph
// unchanged.
func (s *Store) CreateNodes(ctx context.Context, nodes []backend.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := s.graph.BeginBatch()
	for _, n := range nodes {
		batch.AddNode([]string{n.Label}, entityProperties(n))
	}
	err := batch.Commit()
	if err == nil {
		return nil
	}
	if storage.IsConstraintViolation(err) {
		if dup, existing, ok := s.findDuplicate(nodes); ok {
			return &backend.DuplicateKeyError{Label: dup.Label, ID: dup.ID, Existing: existing, Cause: err}
		}
	}
	return err
}

// findDuplicate returns the first entity that clashes with an earlier entity
// of the same batch or, when existing is true, with a stored node.
func (s *Store) findDuplicate(nodes []backend.Entity) (dup backend.Entity, existing, ok bool) {
	type key struct {
		label string
		id    int64
	}
	seen := make(map[key]struct{}, len(nodes))
	for _, n := range nodes {
		k := key{n.Label, n.ID}
		if _, ok := seen[k]; ok {
			return n, false, true
		}
		seen[k] = struct{}{}
		if _, err := s.graph.FindNodeByProperty(n.Label, backend.KeyProperty, storage.IntValue(n.ID)); err == nil {
			return n, true, true
		}
	}
	return backend.Entity{}, false, false
}

func (s *Store) Relate(ctx context.Context, links []backend.Link) (int, []backend.Link, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	var missing []backend.Link
	batch := s.graph.BeginBatch()
	for _, l := range links {
		from, err := s.lookup(l.FromLabel, l.FromID)
		if err != nil {
			if storage.IsNotFound(err) {
				missing = append(missing, l)
				continue
			}
			return 0, nil, err
		}
		to, err := s.lookup(l.ToLabel, l.ToID)
		if err != nil {
			if storage.IsNotFound(err) {
				missing = append(missing, l)
				continue
			}
			return 0, nil, err
		}
		batch.AddEdge(from, to, l.Type, nil)
	}

	created := batch.Size()
	if err := batch.Commit(); err != nil {
		return 0, nil, err
	}
	return created, missing, nil
}

func (s *Store) lookup(label string, id int64) (uint64, error) {
	node, err := s.graph.FindNodeByProperty(label, backend.KeyProperty, storage.IntValue(id))
	if err != nil {
		return 0, err
	}
	return node.ID, nil
}

func (s *Store) CountNodesByLabel(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return toInt64(s.graph.CountNodesByLabel()), nil
}

func (s *Store) CountRelationshipsByType(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return toInt64(s.graph.CountEdgesByType()), nil
}

func (s *Store) Neighbors(ctx context.Context, q backend.NeighborQuery) ([]backend.NeighborRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subjects, err := s.graph.FindNodesByLabel(q.SubjectLabel)
	if err != nil {
		return nil, err
	}

	var pairs [][2]string
	for _, subject := range subjects {
		name := subject.StringProperty("name")
		if !backend.NameMatches(name, q.NameContains) {
			continue
		}

		var edges []*storage.Edge
		if q.Direction == backend.Incoming {
			edges, err = s.graph.GetIncomingEdges(subject.ID)
		} else {
			edges, err = s.graph.GetOutgoingEdges(subject.ID)
		}
		if err != nil {
			return nil, err
		}

		for _, e := range edges {
			if e.Type != q.RelType {
				continue
			}
			otherID := e.ToNodeID
			if q.Direction == backend.Incoming {
				otherID = e.FromNodeID
			}
			other, err := s.graph.GetNode(otherID)
			if err != nil {
				return nil, err
			}
			if other.HasLabel(q.RelatedLabel) {
				pairs = append(pairs, [2]string{name, other.StringProperty("name")})
			}
		}
	}
	return backend.CollectNeighbors(pairs, q.Limit), nil
}

// Close snapshots the graph when it was opened with a data directory.
func (s *Store) Close(ctx context.Context) error {
	return s.graph.Close()
}

func entityProperties(e backend.Entity) map[string]storage.Value {
	return map[string]storage.Value{
		backend.KeyProperty: storage.IntValue(e.ID),
		"name":              storage.StringValue(e.Name),
		"type":              storage.StringValue(e.Type),
	}
}

func toInt64(counts map[string]uint64) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		out[k] = int64(v)
	}
	return out
}
