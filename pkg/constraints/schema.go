package constraints

import (
	"github.com/dd0wney/medgraph/pkg/storage"
)

// EdgeRule names a relationship type and the labels it connects
type EdgeRule struct {
	Type   string
	Source string
	Target string
}

// ForSchema builds the audit constraints of a loaded entity graph: every
// label carries a unique int key and string name/type, and every edge type
// connects the declared labels. Duplicate edges are reported as Info.
func ForSchema(labels []string, keyProperty string, edges []EdgeRule) []Constraint {
	out := make([]Constraint, 0, len(labels)*4+len(edges)*2)
	for _, label := range labels {
		out = append(out,
			&UniquePropertyConstraint{NodeLabel: label, PropertyKey: keyProperty},
			&PropertyConstraint{NodeLabel: label, PropertyName: keyProperty, Type: storage.TypeInt, Required: true},
			&PropertyConstraint{NodeLabel: label, PropertyName: "name", Type: storage.TypeString, Required: true},
			&PropertyConstraint{NodeLabel: label, PropertyName: "type", Type: storage.TypeString, Required: true},
		)
	}
	for _, rule := range edges {
		out = append(out,
			&EndpointConstraint{EdgeType: rule.Type, SourceLabel: rule.Source, TargetLabel: rule.Target},
			&UniqueEdgeConstraint{EdgeType: rule.Type, Severity: Info},
		)
	}
	return out
}
