// Package dataset describes which files feed which node labels and
// relationship types.
package dataset

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/medgraph/pkg/validation"
)

// NodeFile binds a CSV file with id,name,type columns to a node label.
type NodeFile struct {
	Label string `yaml:"label" validate:"required,identifier"`
	File  string `yaml:"file" validate:"required"`
}

// RelationshipFile binds a CSV file with from_id,to_id columns to a
// relationship type between two node labels.
type RelationshipFile struct {
	Type string `yaml:"type" validate:"required,identifier"`
	From string `yaml:"from" validate:"required,identifier"`
	To   string `yaml:"to" validate:"required,identifier"`
	File string `yaml:"file" validate:"required"`
}

// Manifest lists the files of one dataset.
type Manifest struct {
	Nodes         []NodeFile         `yaml:"nodes" validate:"required,min=1,dive"`
	Relationships []RelationshipFile `yaml:"relationships" validate:"dive"`
}

// Medical returns the disease/symptom/treatment dataset layout.
func Medical() *Manifest {
	return &Manifest{
		Nodes: []NodeFile{
			{Label: "Disease", File: "diseases.csv"},
			{Label: "Symptom", File: "symptoms.csv"},
			{Label: "Treatment", File: "treatments.csv"},
		},
		Relationships: []RelationshipFile{
			{Type: "HAS_SYMPTOM", From: "Disease", To: "Symptom", File: "disease_symptom_relationships.csv"},
			{Type: "TREATED_BY", From: "Disease", To: "Treatment", File: "disease_treatment_relationships.csv"},
		},
	}
}

// Load reads and validates a YAML manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks field formats, label uniqueness and that every
// relationship joins declared labels.
func (m *Manifest) Validate() error {
	if err := validation.Struct(m); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	labels := make(map[string]struct{}, len(m.Nodes))
	for _, n := range m.Nodes {
		if _, dup := labels[n.Label]; dup {
			return fmt.Errorf("invalid manifest: label %s declared twice", n.Label)
		}
		labels[n.Label] = struct{}{}
	}

	types := make(map[string]struct{}, len(m.Relationships))
	for _, r := range m.Relationships {
		if _, dup := types[r.Type]; dup {
			return fmt.Errorf("invalid manifest: relationship type %s declared twice", r.Type)
		}
		types[r.Type] = struct{}{}
		for _, end := range []string{r.From, r.To} {
			if _, ok := labels[end]; !ok {
				return fmt.Errorf("invalid manifest: relationship %s references undeclared label %s", r.Type, end)
			}
		}
	}
	return nil
}

// Labels returns the node labels in declaration order.
func (m *Manifest) Labels() []string {
	labels := make([]string, len(m.Nodes))
	for i, n := range m.Nodes {
		labels[i] = n.Label
	}
	return labels
}

// RelationshipTypes returns the relationship types in declaration order.
func (m *Manifest) RelationshipTypes() []string {
	types := make([]string, len(m.Relationships))
	for i, r := range m.Relationships {
		types[i] = r.Type
	}
	return types
}

// Relationship returns the relationship declared with type t.
func (m *Manifest) Relationship(t string) (RelationshipFile, bool) {
	for _, r := range m.Relationships {
		if r.Type == t {
			return r, true
		}
	}
	return RelationshipFile{}, false
}
