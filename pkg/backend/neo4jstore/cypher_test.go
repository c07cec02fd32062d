package neo4jstore

import (
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/medgraph/pkg/backend"
)

func TestConstraintStatement(t *testing.T) {
	got, err := constraintStatement("Disease", "id")
	require.NoError(t, err)
	assert.Equal(t, "CREATE CONSTRAINT disease_id_unique IF NOT EXISTS FOR (n:`Disease`) REQUIRE n.`id` IS UNIQUE", got)

	_, err = constraintStatement("Disease) DETACH DELETE n //", "id")
	assert.Error(t, err)
}

func TestCreateNodesStatement(t *testing.T) {
	got, err := createNodesStatement("Symptom")
	require.NoError(t, err)
	assert.Equal(t, "UNWIND $rows AS row CREATE (:`Symptom` {id: row.id, name: row.name, type: row.type})", got)
}

func TestRelateStatement(t *testing.T) {
	got, err := relateStatement("HAS_SYMPTOM", "Disease", "Symptom")
	require.NoError(t, err)
	assert.Contains(t, got, "OPTIONAL MATCH (a:`Disease` {id: row.from_id})")
	assert.Contains(t, got, "OPTIONAL MATCH (b:`Symptom` {id: row.to_id})")
	assert.Contains(t, got, "CREATE (a)-[:`HAS_SYMPTOM`]->(b)")
	assert.NotContains(t, got, "MERGE", "duplicate rows must produce duplicate edges")

	_, err = relateStatement("HAS SYMPTOM", "Disease", "Symptom")
	assert.Error(t, err)
}

func TestNeighborsStatement(t *testing.T) {
	q := backend.NeighborQuery{SubjectLabel: "Disease", RelatedLabel: "Treatment", RelType: "TREATED_BY"}
	got, err := neighborsStatement(q)
	require.NoError(t, err)
	assert.Contains(t, got, "MATCH (s:`Disease`)-[:`TREATED_BY`]->(r:`Treatment`)")

	q = backend.NeighborQuery{SubjectLabel: "Symptom", RelatedLabel: "Disease", RelType: "HAS_SYMPTOM", Direction: backend.Incoming}
	got, err = neighborsStatement(q)
	require.NoError(t, err)
	assert.Contains(t, got, "MATCH (s:`Symptom`)<-[:`HAS_SYMPTOM`]-(r:`Disease`)")
	assert.Contains(t, got, "toLower(s.name) CONTAINS toLower($name)")
}

func TestRows(t *testing.T) {
	rows := entityRows([]backend.Entity{{Label: "Disease", ID: 4, Name: "Asthma", Type: "chronic"}})
	assert.Equal(t, []map[string]any{{"id": int64(4), "name": "Asthma", "type": "chronic"}}, rows)

	links := []backend.Link{{FromID: 1, ToID: 2}, {FromID: 3, ToID: 4}}
	assert.Equal(t, []map[string]any{{"idx": int64(1), "from_id": int64(3), "to_id": int64(4)}}, linkRows(links, []int{1}))
}

func TestGrouping(t *testing.T) {
	groups := groupByLabel([]backend.Entity{
		{Label: "Disease", ID: 1}, {Label: "Symptom", ID: 1}, {Label: "Disease", ID: 2},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, []backend.Entity{{Label: "Disease", ID: 1}, {Label: "Disease", ID: 2}}, groups[0])
}

func TestTranslateError(t *testing.T) {
	group := []backend.Entity{{Label: "Disease", ID: 1}, {Label: "Disease", ID: 2}}

	native := &neo4j.Neo4jError{
		Code: constraintValidationFailed,
		Msg:  "Node(12) already exists with label `Disease` and property `id` = 2",
	}
	err := translateError(native, group)
	var dup *backend.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Disease", dup.Label)
	assert.Equal(t, int64(2), dup.ID)
	assert.ErrorIs(t, err, backend.ErrDuplicateKey)

	other := errors.New("connection reset")
	assert.Same(t, other, translateError(other, group))
}
