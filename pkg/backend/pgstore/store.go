// Package pgstore implements backend.Store over two PostgreSQL tables.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/medgraph/pkg/backend"
)

const uniqueViolation = "23505"

// Detail of a unique violation, e.g. "Key (entity_id)=(1) already exists."
var conflictValue = regexp.MustCompile(`\(entity_id\)=\((-?\d+)\)`)

// Store persists the graph using PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

var _ backend.Store = (*Store)(nil)

// Open connects to databaseURL, verifies it and creates the tables.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	stmt, err := uniqueIndexStatement(label, property)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create unique index on %s: %w", label, err)
	}
	return nil
}

func (s *Store) CreateNodes(ctx context.Context, nodes []backend.Entity) error {
	if len(nodes) == 0 {
		return ctx.Err()
	}
	labels, ids, names, types := nodeColumns(nodes)
	if _, err := s.pool.Exec(ctx, insertNodesQuery, labels, ids, names, types); err != nil {
		return translateError(err, nodes)
	}
	return nil
}

func (s *Store) Relate(ctx context.Context, links []backend.Link) (int, []backend.Link, error) {
	created := 0
	var missing []backend.Link
	for _, group := range backend.GroupLinks(links) {
		first := links[group[0]]
		idx, fromIDs, toIDs := linkColumns(links, group)

		rows, err := s.pool.Query(ctx, relateQuery, idx, fromIDs, toIDs, first.FromLabel, first.ToLabel, first.Type)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create %s relationships: %w", first.Type, err)
		}
		unresolved := 0
		for rows.Next() {
			var i int64
			if err := rows.Scan(&i); err != nil {
				rows.Close()
				return 0, nil, err
			}
			missing = append(missing, links[i])
			unresolved++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return 0, nil, fmt.Errorf("failed to create %s relationships: %w", first.Type, err)
		}
		created += len(group) - unresolved
	}
	return created, missing, nil
}

func (s *Store) CountNodesByLabel(ctx context.Context) (map[string]int64, error) {
	return s.countBy(ctx, countNodesQuery)
}

func (s *Store) CountRelationshipsByType(ctx context.Context) (map[string]int64, error) {
	return s.countBy(ctx, countEdgesQuery)
}

func (s *Store) countBy(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func (s *Store) Neighbors(ctx context.Context, q backend.NeighborQuery) ([]backend.NeighborRow, error) {
	rows, err := s.pool.Query(ctx, neighborsQuery(q.Direction), q.RelType, q.SubjectLabel, q.RelatedLabel, q.NameContains)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var subject, related string
		if err := rows.Scan(&subject, &related); err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{subject, related})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return backend.CollectNeighbors(pairs, q.Limit), nil
}

// Close closes the connection pool
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// translateError maps SQLSTATE 23505 onto backend.DuplicateKeyError.
func translateError(err error, nodes []backend.Entity) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return fmt.Errorf("failed to create nodes: %w", err)
	}

	dup := &backend.DuplicateKeyError{Label: nodes[0].Label, ID: nodes[0].ID, Cause: err}
	m := conflictValue.FindStringSubmatch(pgErr.Detail)
	if m == nil {
		return dup
	}
	id, perr := strconv.ParseInt(m[1], 10, 64)
	if perr != nil {
		return dup
	}
	dup.ID = id
	for _, n := range nodes {
		if n.ID == id && uniqueIndexName(n.Label) == pgErr.ConstraintName {
			dup.Label = n.Label
			break
		}
	}
	return dup
}

func nodeColumns(nodes []backend.Entity) (labels []string, ids []int64, names, types []string) {
	labels = make([]string, len(nodes))
	ids = make([]int64, len(nodes))
	names = make([]string, len(nodes))
	types = make([]string, len(nodes))
	for i, n := range nodes {
		labels[i], ids[i], names[i], types[i] = n.Label, n.ID, n.Name, n.Type
	}
	return labels, ids, names, types
}

func linkColumns(links []backend.Link, group []int) (idx, fromIDs, toIDs []int64) {
	idx = make([]int64, len(group))
	fromIDs = make([]int64, len(group))
	toIDs = make([]int64, len(group))
	for i, g := range group {
		idx[i], fromIDs[i], toIDs[i] = int64(g), links[g].FromID, links[g].ToID
	}
	return idx, fromIDs, toIDs
}
