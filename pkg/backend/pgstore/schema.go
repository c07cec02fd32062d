package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/validation"
)

// migrate creates the node and edge tables
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS graph_nodes (
		node_id BIGSERIAL PRIMARY KEY,
		label TEXT NOT NULL,
		entity_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS graph_edges (
		edge_id BIGSERIAL PRIMARY KEY,
		rel_type TEXT NOT NULL,
		from_node BIGINT NOT NULL REFERENCES graph_nodes(node_id),
		to_node BIGINT NOT NULL REFERENCES graph_nodes(node_id)
	);

	CREATE INDEX IF NOT EXISTS idx_graph_nodes_label_entity ON graph_nodes(label, entity_id);
	CREATE INDEX IF NOT EXISTS idx_graph_edges_type ON graph_edges(rel_type);
	CREATE INDEX IF NOT EXISTS idx_graph_edges_from ON graph_edges(from_node);
	CREATE INDEX IF NOT EXISTS idx_graph_edges_to ON graph_edges(to_node);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

func uniqueIndexName(label string) string {
	return "graph_nodes_" + strings.ToLower(label) + "_id_unique"
}

// uniqueIndexStatement builds a partial unique index over one label. Index
// predicates cannot be bound, so the label is validated and inlined.
func uniqueIndexStatement(label, property string) (string, error) {
	if property != backend.KeyProperty {
		return "", fmt.Errorf("unique constraint on %s.%s: only %q is indexed", label, property, backend.KeyProperty)
	}
	if err := validation.ValidateIdentifier("label", label); err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON graph_nodes (entity_id) WHERE label = '%s'",
		uniqueIndexName(label), label), nil
}

const insertNodesQuery = `
	INSERT INTO graph_nodes (label, entity_id, name, type)
	SELECT * FROM unnest($1::text[], $2::bigint[], $3::text[], $4::text[])
`

// relateQuery resolves both endpoints of every row, inserts an edge for each
// resolved pair and returns the indexes of the rows left unresolved.
const relateQuery = `
	WITH rows AS (
		SELECT * FROM unnest($1::bigint[], $2::bigint[], $3::bigint[]) AS r(idx, from_id, to_id)
	),
	resolved AS (
		SELECT r.idx, a.node_id AS from_node, b.node_id AS to_node
		FROM rows r
		LEFT JOIN graph_nodes a ON a.label = $4 AND a.entity_id = r.from_id
		LEFT JOIN graph_nodes b ON b.label = $5 AND b.entity_id = r.to_id
	),
	inserted AS (
		INSERT INTO graph_edges (rel_type, from_node, to_node)
		SELECT $6, from_node, to_node FROM resolved
		WHERE from_node IS NOT NULL AND to_node IS NOT NULL
		ORDER BY idx
		RETURNING 1
	)
	SELECT idx FROM resolved
	WHERE from_node IS NULL OR to_node IS NULL
	ORDER BY idx
`

const (
	countNodesQuery = `SELECT label, count(*) FROM graph_nodes GROUP BY label`
	countEdgesQuery = `SELECT rel_type, count(*) FROM graph_edges GROUP BY rel_type`
)

func neighborsQuery(direction backend.Direction) string {
	subjectSide, relatedSide := "from_node", "to_node"
	if direction == backend.Incoming {
		subjectSide, relatedSide = relatedSide, subjectSide
	}
	return fmt.Sprintf(`
	SELECT DISTINCT s.name, r.name
	FROM graph_edges e
	JOIN graph_nodes s ON s.node_id = e.%s
	JOIN graph_nodes r ON r.node_id = e.%s
	WHERE e.rel_type = $1 AND s.label = $2 AND r.label = $3
	AND strpos(lower(s.name), lower($4)) > 0
	`, subjectSide, relatedSide)
}
