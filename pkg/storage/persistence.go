package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/golang/snappy"
)

const (
	snapshotFile           = "snapshot.json"
	compressedSnapshotFile = "snapshot.json.sz"
)

type snapshotData struct {
	Nodes       map[uint64]*Node
	Edges       map[uint64]*Edge
	Constraints []UniqueConstraint
	NextNodeID  uint64
	NextEdgeID  uint64
}

// Snapshot saves the current state to DataDir
func (gs *GraphStorage) Snapshot() error {
	if gs.dataDir == "" {
		return NewError("write").Snapshot().Cause(ErrNoDataDir).Err()
	}

	constraints := gs.UniqueConstraints()

	gs.mu.RLock()
	snapshot := snapshotData{
		Nodes:       gs.nodes,
		Edges:       gs.edges,
		Constraints: constraints,
		NextNodeID:  gs.nextNodeID,
		NextEdgeID:  gs.nextEdgeID,
	}
	data, err := json.Marshal(snapshot)
	gs.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	name := snapshotFile
	stale := compressedSnapshotFile
	if gs.compressSnapshots {
		data = snappy.Encode(nil, data)
		name, stale = stale, name
	}

	snapshotPath := filepath.Join(gs.dataDir, name)
	tmpPath := snapshotPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, snapshotPath); err != nil {
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	// Only one snapshot flavour may exist or a reload would be ambiguous
	if err := os.Remove(filepath.Join(gs.dataDir, stale)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale snapshot: %w", err)
	}

	gs.mu.Lock()
	gs.stats.LastSnapshot = time.Now()
	gs.mu.Unlock()
	return nil
}

// loadFromDisk restores the graph from the snapshot in DataDir. It returns an
// os.IsNotExist error when no snapshot is present.
func (gs *GraphStorage) loadFromDisk() error {
	data, compressed, err := gs.readSnapshotFile()
	if err != nil {
		return err
	}

	if compressed {
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return NewError("read").Snapshot().Context("snappy decode").Cause(fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)).Err()
		}
	}

	var snapshot snapshotData
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return NewError("read").Snapshot().Cause(fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)).Err()
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	for _, c := range snapshot.Constraints {
		gs.uniqueIndexes[indexKey{label: c.Label, property: c.PropertyKey}] = NewUniqueIndex(c.Label, c.PropertyKey)
	}
	for _, node := range snapshot.Nodes {
		if node.Properties == nil {
			node.Properties = make(map[string]Value)
		}
		gs.storeNode(node)
	}
	for _, edge := range snapshot.Edges {
		if edge.Properties == nil {
			edge.Properties = make(map[string]Value)
		}
		gs.storeEdge(edge)
	}
	sortIndexLists(gs.nodesByLabel)
	sortIndexLists(gs.edgesByType)
	sortIndexLists(gs.outgoingEdges)
	sortIndexLists(gs.incomingEdges)

	gs.nextNodeID = snapshot.NextNodeID
	gs.nextEdgeID = snapshot.NextEdgeID
	if gs.nextNodeID == 0 {
		gs.nextNodeID = 1
	}
	if gs.nextEdgeID == 0 {
		gs.nextEdgeID = 1
	}
	atomic.StoreUint64(&gs.stats.NodeCount, uint64(len(gs.nodes)))
	atomic.StoreUint64(&gs.stats.EdgeCount, uint64(len(gs.edges)))
	return nil
}

func (gs *GraphStorage) readSnapshotFile() ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(gs.dataDir, compressedSnapshotFile))
	if err == nil {
		return data, true, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, err
	}
	data, err = os.ReadFile(filepath.Join(gs.dataDir, snapshotFile))
	return data, false, err
}
