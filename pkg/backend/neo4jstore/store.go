// Package neo4jstore implements backend.Store over a Neo4j database.
package neo4jstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/medgraph/pkg/backend"
)

const constraintValidationFailed = "Neo.ClientError.Schema.ConstraintValidationFailed"

// The server reports the clashing value in its message, e.g.
// "Node(12) already exists with label `Disease` and property `id` = 1".
var conflictValue = regexp.MustCompile("property `id` = (-?\\d+)")

// Config holds the connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Store is a backend.Store writing through Cypher.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ backend.Store = (*Store)(nil)

// Open connects to Neo4j and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" && cfg.Password != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}
	return &Store{driver: driver, database: cfg.Database}, nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Store) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	cypher, err := constraintStatement(label, property)
	if err != nil {
		return err
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("create constraint on %s.%s: %w", label, property, err)
	}
	return nil
}

// CreateNodes writes one transaction per label group.
func (s *Store) CreateNodes(ctx context.Context, nodes []backend.Entity) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, group := range groupByLabel(nodes) {
		cypher, err := createNodesStatement(group[0].Label)
		if err != nil {
			return err
		}
		_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, cypher, map[string]any{"rows": entityRows(group)})
			if err != nil {
				return nil, err
			}
			return result.Consume(ctx)
		})
		if err != nil {
			return translateError(err, group)
		}
	}
	return nil
}

func (s *Store) Relate(ctx context.Context, links []backend.Link) (int, []backend.Link, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	linked := make([]bool, len(links))
	for _, group := range backend.GroupLinks(links) {
		first := links[group[0]]
		cypher, err := relateStatement(first.Type, first.FromLabel, first.ToLabel)
		if err != nil {
			return 0, nil, err
		}
		_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, cypher, map[string]any{"rows": linkRows(links, group)})
			if err != nil {
				return nil, err
			}
			for result.Next(ctx) {
				record := result.Record()
				idx, _ := record.Get("idx")
				ok, _ := record.Get("linked")
				if i, isInt := idx.(int64); isInt {
					linked[i], _ = ok.(bool)
				}
			}
			return nil, result.Err()
		})
		if err != nil {
			return 0, nil, fmt.Errorf("create %s relationships: %w", first.Type, err)
		}
	}

	created := 0
	var missing []backend.Link
	for i, ok := range linked {
		if ok {
			created++
		} else {
			missing = append(missing, links[i])
		}
	}
	return created, missing, nil
}

func (s *Store) CountNodesByLabel(ctx context.Context) (map[string]int64, error) {
	return s.countBy(ctx, countNodesStatement, "label")
}

func (s *Store) CountRelationshipsByType(ctx context.Context) (map[string]int64, error) {
	return s.countBy(ctx, countRelsStatement, "type")
}

func (s *Store) countBy(ctx context.Context, cypher, key string) (map[string]int64, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int64, len(records))
		for _, record := range records {
			name, _ := record.Get(key)
			count, _ := record.Get("count")
			if n, ok := name.(string); ok {
				counts[n], _ = count.(int64)
			}
		}
		return counts, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(map[string]int64), nil
}

func (s *Store) Neighbors(ctx context.Context, q backend.NeighborQuery) ([]backend.NeighborRow, error) {
	cypher, err := neighborsStatement(q)
	if err != nil {
		return nil, err
	}
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"name": q.NameContains})
		if err != nil {
			return nil, err
		}
		var pairs [][2]string
		for result.Next(ctx) {
			record := result.Record()
			subject, _ := record.Get("subject")
			related, _ := record.Get("related")
			sub, _ := subject.(string)
			rel, _ := related.(string)
			pairs = append(pairs, [2]string{sub, rel})
		}
		return pairs, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return backend.CollectNeighbors(out.([][2]string), q.Limit), nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// translateError maps a uniqueness rejection onto backend.DuplicateKeyError.
func translateError(err error, group []backend.Entity) error {
	var neoErr *neo4j.Neo4jError
	if !errors.As(err, &neoErr) || neoErr.Code != constraintValidationFailed {
		return err
	}
	dup := &backend.DuplicateKeyError{Label: group[0].Label, ID: group[0].ID, Cause: err}
	if m := conflictValue.FindStringSubmatch(neoErr.Msg); m != nil {
		if id, perr := strconv.ParseInt(m[1], 10, 64); perr == nil {
			dup.ID = id
		}
	}
	return dup
}

// groupByLabel splits nodes into runs of one label, keeping input order.
func groupByLabel(nodes []backend.Entity) [][]backend.Entity {
	var groups [][]backend.Entity
	index := make(map[string]int)
	for _, n := range nodes {
		i, ok := index[n.Label]
		if !ok {
			i = len(groups)
			index[n.Label] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], n)
	}
	return groups
}
