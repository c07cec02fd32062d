package constraints

import (
	"fmt"
	"sort"
)

// UniquePropertyConstraint ensures a property value is unique among the
// nodes of one label.
type UniquePropertyConstraint struct {
	NodeLabel   string
	PropertyKey string
}

// Name returns a human-readable name for this constraint
func (c *UniquePropertyConstraint) Name() string {
	return fmt.Sprintf("Unique(%s.%s)", c.NodeLabel, c.PropertyKey)
}

// Validate reports every node after the first that repeats a value
func (c *UniquePropertyConstraint) Validate(graph GraphReader) ([]Violation, error) {
	nodes, err := graph.FindNodesByLabel(c.NodeLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes with label '%s': %w", c.NodeLabel, err)
	}

	// property value -> node IDs in creation order
	seen := make(map[string][]uint64)
	for _, node := range nodes {
		prop, exists := node.Properties[c.PropertyKey]
		if !exists {
			continue
		}
		valueKey := prop.String()
		seen[valueKey] = append(seen[valueKey], node.ID)
	}

	var violations []Violation
	for _, valueKey := range sortedKeys(seen) {
		nodeIDs := seen[valueKey]
		for i := 1; i < len(nodeIDs); i++ {
			nodeID := nodeIDs[i]
			violations = append(violations, Violation{
				Type:       UniquenessViolation,
				Severity:   Error,
				NodeID:     &nodeID,
				Constraint: c.Name(),
				Message: fmt.Sprintf("Duplicate value '%s' for property '%s' within label '%s' (also exists on node %d)",
					valueKey, c.PropertyKey, c.NodeLabel, nodeIDs[0]),
				Details: map[string]any{
					"property":       c.PropertyKey,
					"value":          valueKey,
					"label":          c.NodeLabel,
					"duplicate_of":   nodeIDs[0],
					"all_duplicates": nodeIDs,
				},
			})
		}
	}
	return violations, nil
}

// UniqueEdgeConstraint reports repeated edges of one type between the same
// node pair. Severity defaults to Info: repeated source rows legitimately
// produce repeated edges.
type UniqueEdgeConstraint struct {
	EdgeType string
	Severity Severity
}

// Name returns a human-readable name for this constraint
func (c *UniqueEdgeConstraint) Name() string {
	return fmt.Sprintf("UniqueEdge(%s)", c.EdgeType)
}

// Validate checks that no duplicate edges exist between node pairs
func (c *UniqueEdgeConstraint) Validate(graph GraphReader) ([]Violation, error) {
	edges, err := graph.FindEdgesByType(c.EdgeType)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}

	edgePairs := make(map[string][]uint64)
	for _, edge := range edges {
		pairKey := fmt.Sprintf("%d->%d", edge.FromNodeID, edge.ToNodeID)
		edgePairs[pairKey] = append(edgePairs[pairKey], edge.ID)
	}

	var violations []Violation
	for _, pairKey := range sortedKeys(edgePairs) {
		edgeIDs := edgePairs[pairKey]
		for i := 1; i < len(edgeIDs); i++ {
			edgeID := edgeIDs[i]
			violations = append(violations, Violation{
				Type:       UniquenessViolation,
				Severity:   c.Severity,
				EdgeID:     &edgeID,
				Constraint: c.Name(),
				Message: fmt.Sprintf("Duplicate edge of type '%s' between nodes %s (edge %d already exists)",
					c.EdgeType, pairKey, edgeIDs[0]),
				Details: map[string]any{
					"edge_type":      c.EdgeType,
					"node_pair":      pairKey,
					"duplicate_of":   edgeIDs[0],
					"all_duplicates": edgeIDs,
				},
			})
		}
	}
	return violations, nil
}

func sortedKeys(m map[string][]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
