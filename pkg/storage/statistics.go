package storage

import (
	"sync/atomic"
)

// GetStatistics returns current database statistics
func (gs *GraphStorage) GetStatistics() Statistics {
	gs.mu.RLock()
	last := gs.stats.LastSnapshot
	gs.mu.RUnlock()

	return Statistics{
		NodeCount:    atomic.LoadUint64(&gs.stats.NodeCount),
		EdgeCount:    atomic.LoadUint64(&gs.stats.EdgeCount),
		LastSnapshot: last,
	}
}

// CountNodesByLabel returns the number of nodes carrying each label.
// A node with several labels is counted once per label.
func (gs *GraphStorage) CountNodesByLabel() map[string]uint64 {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	counts := make(map[string]uint64, len(gs.nodesByLabel))
	for label, ids := range gs.nodesByLabel {
		if len(ids) > 0 {
			counts[label] = uint64(len(ids))
		}
	}
	return counts
}

// CountEdgesByType returns the number of edges of each type
func (gs *GraphStorage) CountEdgesByType() map[string]uint64 {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	counts := make(map[string]uint64, len(gs.edgesByType))
	for edgeType, ids := range gs.edgesByType {
		if len(ids) > 0 {
			counts[edgeType] = uint64(len(ids))
		}
	}
	return counts
}
