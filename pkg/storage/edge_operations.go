package storage

import (
	"fmt"
	"sync/atomic"
	"time"
)

// CreateEdge creates a new directed edge between two existing nodes
func (gs *GraphStorage) CreateEdge(fromID, toID uint64, edgeType string, properties map[string]Value) (*Edge, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed(); err != nil {
		return nil, err
	}

	if err := gs.verifyNodeExists(fromID, "source"); err != nil {
		return nil, err
	}
	if err := gs.verifyNodeExists(toID, "target"); err != nil {
		return nil, err
	}

	edgeID, err := gs.allocateEdgeID()
	if err != nil {
		return nil, err
	}

	edge := &Edge{
		ID:         edgeID,
		FromNodeID: fromID,
		ToNodeID:   toID,
		Type:       edgeType,
		Properties: copyProperties(properties),
		CreatedAt:  time.Now().Unix(),
	}
	gs.storeEdge(edge)

	return edge.Clone(), nil
}

// storeEdge links an edge into the type and adjacency indexes. Caller holds gs.mu.
func (gs *GraphStorage) storeEdge(edge *Edge) {
	gs.edges[edge.ID] = edge
	gs.edgesByType[edge.Type] = append(gs.edgesByType[edge.Type], edge.ID)
	gs.outgoingEdges[edge.FromNodeID] = append(gs.outgoingEdges[edge.FromNodeID], edge.ID)
	gs.incomingEdges[edge.ToNodeID] = append(gs.incomingEdges[edge.ToNodeID], edge.ID)
	atomic.AddUint64(&gs.stats.EdgeCount, 1)
}

// GetEdge retrieves an edge by ID
func (gs *GraphStorage) GetEdge(edgeID uint64) (*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	edge, exists := gs.edges[edgeID]
	if !exists {
		return nil, EdgeNotFoundError(edgeID)
	}
	return edge.Clone(), nil
}

// FindEdgesByType returns every edge of a type, in creation order
func (gs *GraphStorage) FindEdgesByType(edgeType string) ([]*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if err := gs.checkClosed(); err != nil {
		return nil, err
	}
	return gs.buildEdgeListFromIDs(gs.edgesByType[edgeType]), nil
}

// GetOutgoingEdges returns edges leaving nodeID
func (gs *GraphStorage) GetOutgoingEdges(nodeID uint64) ([]*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if _, ok := gs.nodes[nodeID]; !ok {
		return nil, NodeNotFoundError(nodeID)
	}
	return gs.buildEdgeListFromIDs(gs.outgoingEdges[nodeID]), nil
}

// GetIncomingEdges returns edges arriving at nodeID
func (gs *GraphStorage) GetIncomingEdges(nodeID uint64) ([]*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if _, ok := gs.nodes[nodeID]; !ok {
		return nil, NodeNotFoundError(nodeID)
	}
	return gs.buildEdgeListFromIDs(gs.incomingEdges[nodeID]), nil
}

func (gs *GraphStorage) buildEdgeListFromIDs(edgeIDs []uint64) []*Edge {
	edges := make([]*Edge, 0, len(edgeIDs))
	for _, id := range edgeIDs {
		if edge, ok := gs.edges[id]; ok {
			edges = append(edges, edge.Clone())
		}
	}
	return edges
}

func (gs *GraphStorage) verifyNodeExists(nodeID uint64, role string) error {
	if _, exists := gs.nodes[nodeID]; !exists {
		return NewError("CreateEdge").Node(nodeID).Context(role).Cause(ErrNodeNotFound).Err()
	}
	return nil
}

func (gs *GraphStorage) allocateEdgeID() (uint64, error) {
	if gs.nextEdgeID == ^uint64(0) { // MaxUint64
		return 0, fmt.Errorf("edge ID space exhausted")
	}
	id := gs.nextEdgeID
	gs.nextEdgeID++
	return id, nil
}
