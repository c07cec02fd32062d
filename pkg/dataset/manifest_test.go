package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedical(t *testing.T) {
	m := Medical()
	require.NoError(t, m.Validate())
	assert.Equal(t, []string{"Disease", "Symptom", "Treatment"}, m.Labels())
	assert.Equal(t, []string{"HAS_SYMPTOM", "TREATED_BY"}, m.RelationshipTypes())

	r, ok := m.Relationship("TREATED_BY")
	require.True(t, ok)
	assert.Equal(t, "disease_treatment_relationships.csv", r.File)
	assert.Equal(t, "Treatment", r.To)

	_, ok = m.Relationship("CAUSES")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nodes:
  - label: Disease
    file: d.csv
  - label: Symptom
    file: s.csv
relationships:
  - type: HAS_SYMPTOM
    from: Disease
    to: Symptom
    file: ds.csv
`), 0644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Disease", "Symptom"}, m.Labels())
	assert.Equal(t, "ds.csv", m.Relationships[0].File)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no nodes", "relationships: []\n", "Manifest.Nodes"},
		{"unknown key", "nodes:\n  - label: A\n    file: a.csv\n    color: red\n", "color"},
		{"bad label", "nodes:\n  - label: Bad Label\n    file: a.csv\n", "not a valid identifier"},
		{"missing file", "nodes:\n  - label: A\n", "Manifest.Nodes[0].File: field is required"},
		{"duplicate label", "nodes:\n  - {label: A, file: a.csv}\n  - {label: A, file: b.csv}\n", "declared twice"},
		{"undeclared label", "nodes:\n  - {label: A, file: a.csv}\nrelationships:\n  - {type: R, from: A, to: B, file: r.csv}\n", "undeclared label B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
