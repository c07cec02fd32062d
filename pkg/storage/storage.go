package storage

import (
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	dirPermissions  = 0755
	filePermissions = 0644
)

// GraphStorage is the embedded in-memory graph storage engine.
type GraphStorage struct {
	nodes map[uint64]*Node
	edges map[uint64]*Edge

	// Indexes for fast lookups
	nodesByLabel  map[string][]uint64 // label -> node IDs
	edgesByType   map[string][]uint64 // edge type -> edge IDs
	outgoingEdges map[uint64][]uint64 // node ID -> outgoing edge IDs
	incomingEdges map[uint64][]uint64 // node ID -> incoming edge IDs
	uniqueIndexes map[indexKey]*UniqueIndex

	nextNodeID uint64
	nextEdgeID uint64

	mu     sync.RWMutex
	closed bool

	dataDir           string
	snapshotOnClose   bool
	compressSnapshots bool

	stats Statistics
}

// StorageConfig holds configuration for GraphStorage
type StorageConfig struct {
	// DataDir holds the snapshot file. Empty keeps the graph in memory only.
	DataDir string
	// SnapshotOnClose writes a snapshot when Close is called.
	SnapshotOnClose bool
	// CompressSnapshots snappy-encodes the snapshot file.
	CompressSnapshots bool
}

// Statistics tracks database statistics
type Statistics struct {
	NodeCount    uint64
	EdgeCount    uint64
	LastSnapshot time.Time
}

// NewGraphStorage creates an in-memory graph with no persistence.
func NewGraphStorage() *GraphStorage {
	gs, _ := NewGraphStorageWithConfig(StorageConfig{})
	return gs
}

// NewGraphStorageWithConfig creates a graph storage engine, restoring the
// snapshot found in DataDir if there is one.
func NewGraphStorageWithConfig(config StorageConfig) (*GraphStorage, error) {
	gs := &GraphStorage{
		nodes:             make(map[uint64]*Node),
		edges:             make(map[uint64]*Edge),
		nodesByLabel:      make(map[string][]uint64),
		edgesByType:       make(map[string][]uint64),
		outgoingEdges:     make(map[uint64][]uint64),
		incomingEdges:     make(map[uint64][]uint64),
		uniqueIndexes:     make(map[indexKey]*UniqueIndex),
		nextNodeID:        1,
		nextEdgeID:        1,
		dataDir:           config.DataDir,
		snapshotOnClose:   config.SnapshotOnClose,
		compressSnapshots: config.CompressSnapshots,
	}

	if config.DataDir == "" {
		return gs, nil
	}

	if err := os.MkdirAll(config.DataDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := gs.loadFromDisk(); err != nil {
		// No snapshot means a fresh database
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load from disk: %w", err)
		}
	}

	return gs, nil
}

// Close flushes a snapshot when configured and rejects further operations.
func (gs *GraphStorage) Close() error {
	gs.mu.Lock()
	if gs.closed {
		gs.mu.Unlock()
		return nil
	}
	gs.mu.Unlock()

	var err error
	if gs.snapshotOnClose && gs.dataDir != "" {
		err = gs.Snapshot()
	}

	gs.mu.Lock()
	gs.closed = true
	gs.mu.Unlock()
	return err
}

func (gs *GraphStorage) checkClosed() error {
	if gs.closed {
		return ErrStorageClosed
	}
	return nil
}
