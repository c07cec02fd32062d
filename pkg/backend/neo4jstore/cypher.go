package neo4jstore

import (
	"fmt"
	"strings"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/validation"
)

// Labels and relationship types cannot be parameters in Cypher, so every
// identifier is validated before it is spliced into a statement.
func quote(kind, name string) (string, error) {
	if err := validation.ValidateIdentifier(kind, name); err != nil {
		return "", err
	}
	return "`" + name + "`", nil
}

func constraintName(label, property string) string {
	return strings.ToLower(label) + "_" + property + "_unique"
}

func constraintStatement(label, property string) (string, error) {
	l, err := quote("label", label)
	if err != nil {
		return "", err
	}
	p, err := quote("property", property)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		constraintName(label, property), l, p), nil
}

func createNodesStatement(label string) (string, error) {
	l, err := quote("label", label)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("UNWIND $rows AS row CREATE (:%s {id: row.id, name: row.name, type: row.type})", l), nil
}

// relateStatement creates one edge per row whose endpoints both exist and
// reports, per row index, whether it did.
func relateStatement(relType, fromLabel, toLabel string) (string, error) {
	t, err := quote("relationship type", relType)
	if err != nil {
		return "", err
	}
	from, err := quote("label", fromLabel)
	if err != nil {
		return "", err
	}
	to, err := quote("label", toLabel)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`UNWIND $rows AS row
OPTIONAL MATCH (a:%s {id: row.from_id})
OPTIONAL MATCH (b:%s {id: row.to_id})
WITH row, a, b, a IS NOT NULL AND b IS NOT NULL AS linked
FOREACH (_ IN CASE WHEN linked THEN [1] ELSE [] END | CREATE (a)-[:%s]->(b))
RETURN row.idx AS idx, linked`, from, to, t), nil
}

const (
	countNodesStatement = "MATCH (n) UNWIND labels(n) AS label RETURN label, count(*) AS count"
	countRelsStatement  = "MATCH ()-[r]->() RETURN type(r) AS type, count(r) AS count"
)

func neighborsStatement(q backend.NeighborQuery) (string, error) {
	subject, err := quote("label", q.SubjectLabel)
	if err != nil {
		return "", err
	}
	related, err := quote("label", q.RelatedLabel)
	if err != nil {
		return "", err
	}
	rel, err := quote("relationship type", q.RelType)
	if err != nil {
		return "", err
	}

	pattern := "(s:%s)-[:%s]->(r:%s)"
	if q.Direction == backend.Incoming {
		pattern = "(s:%s)<-[:%s]-(r:%s)"
	}
	return fmt.Sprintf("MATCH "+pattern+`
WHERE toLower(s.name) CONTAINS toLower($name)
RETURN DISTINCT s.name AS subject, r.name AS related`, subject, rel, related), nil
}

func entityRows(nodes []backend.Entity) []map[string]any {
	rows := make([]map[string]any, len(nodes))
	for i, n := range nodes {
		rows[i] = map[string]any{"id": n.ID, "name": n.Name, "type": n.Type}
	}
	return rows
}

func linkRows(links []backend.Link, indexes []int) []map[string]any {
	rows := make([]map[string]any, len(indexes))
	for i, idx := range indexes {
		rows[i] = map[string]any{"idx": int64(idx), "from_id": links[idx].FromID, "to_id": links[idx].ToID}
	}
	return rows
}
