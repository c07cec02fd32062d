package constraints

import (
	"fmt"
)

// EndpointConstraint checks that every edge of a type runs from a node of
// SourceLabel to a node of TargetLabel
type EndpointConstraint struct {
	EdgeType    string
	SourceLabel string
	TargetLabel string
}

// Name returns the constraint name
func (c *EndpointConstraint) Name() string {
	return fmt.Sprintf("Endpoint(%s:%s->%s)", c.EdgeType, c.SourceLabel, c.TargetLabel)
}

// Validate checks the endpoints of every edge of EdgeType
func (c *EndpointConstraint) Validate(graph GraphReader) ([]Violation, error) {
	edges, err := graph.FindEdgesByType(c.EdgeType)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}

	var violations []Violation
	for _, edge := range edges {
		edgeID := edge.ID
		for _, end := range []struct {
			role   string
			nodeID uint64
			label  string
		}{
			{"source", edge.FromNodeID, c.SourceLabel},
			{"target", edge.ToNodeID, c.TargetLabel},
		} {
			node, err := graph.GetNode(end.nodeID)
			if err != nil {
				violations = append(violations, Violation{
					Type:       InvalidStructure,
					Severity:   Error,
					EdgeID:     &edgeID,
					Constraint: c.Name(),
					Message:    fmt.Sprintf("Edge %d %s node %d is missing", edge.ID, end.role, end.nodeID),
				})
				continue
			}
			if !node.HasLabel(end.label) {
				violations = append(violations, Violation{
					Type:       EndpointViolation,
					Severity:   Error,
					EdgeID:     &edgeID,
					Constraint: c.Name(),
					Message: fmt.Sprintf("Edge %d %s node %d has labels %v, want %s",
						edge.ID, end.role, end.nodeID, node.Labels, end.label),
					Details: map[string]any{
						"role":     end.role,
						"expected": end.label,
						"actual":   node.Labels,
					},
				})
			}
		}
	}
	return violations, nil
}
