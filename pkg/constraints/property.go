package constraints

import (
	"fmt"

	"github.com/dd0wney/medgraph/pkg/storage"
)

// PropertyConstraint validates that nodes of a label carry a property of
// the expected type
type PropertyConstraint struct {
	NodeLabel    string
	PropertyName string
	Type         storage.ValueType
	Required     bool
}

// Name returns the constraint name
func (pc *PropertyConstraint) Name() string {
	return fmt.Sprintf("PropertyConstraint(%s.%s:%s)", pc.NodeLabel, pc.PropertyName, pc.Type)
}

// Validate checks the property constraint against all nodes with the target label
func (pc *PropertyConstraint) Validate(graph GraphReader) ([]Violation, error) {
	nodes, err := graph.FindNodesByLabel(pc.NodeLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to find nodes with label %s: %w", pc.NodeLabel, err)
	}

	violations := make([]Violation, 0)
	for _, node := range nodes {
		nodeID := node.ID
		propValue, exists := node.GetProperty(pc.PropertyName)
		if !exists {
			if pc.Required {
				violations = append(violations, Violation{
					Type:       MissingProperty,
					Severity:   Error,
					NodeID:     &nodeID,
					Constraint: pc.Name(),
					Message:    fmt.Sprintf("Node %d missing required property '%s'", node.ID, pc.PropertyName),
					Details: map[string]any{
						"label":    pc.NodeLabel,
						"property": pc.PropertyName,
					},
				})
			}
			continue
		}

		if propValue.Type != pc.Type {
			violations = append(violations, Violation{
				Type:       InvalidType,
				Severity:   Error,
				NodeID:     &nodeID,
				Constraint: pc.Name(),
				Message:    fmt.Sprintf("Node %d property '%s' has wrong type", node.ID, pc.PropertyName),
				Details: map[string]any{
					"label":         pc.NodeLabel,
					"property":      pc.PropertyName,
					"actual_type":   propValue.Type.String(),
					"expected_type": pc.Type.String(),
				},
			})
		}
	}
	return violations, nil
}
