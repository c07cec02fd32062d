package storage

import (
	"sync"
	"time"
)

// Batch queues node and edge creations and applies them all-or-nothing.
type Batch struct {
	graph *GraphStorage
	ops   []batchOp
	mu    sync.Mutex
}

type batchOpType int

const (
	opCreateNode batchOpType = iota
	opCreateEdge
)

type batchOp struct {
	opType     batchOpType
	labels     []string
	properties map[string]Value
	fromNodeID uint64
	toNodeID   uint64
	edgeType   string
}

// BeginBatch starts a new batch operation
func (gs *GraphStorage) BeginBatch() *Batch {
	return &Batch{
		graph: gs,
		ops:   make([]batchOp, 0, 64),
	}
}

// AddNode queues a node creation in the batch
func (b *Batch) AddNode(labels []string, properties map[string]Value) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ops = append(b.ops, batchOp{
		opType:     opCreateNode,
		labels:     labels,
		properties: properties,
	})
}

// AddEdge queues an edge creation between two already stored nodes
func (b *Batch) AddEdge(fromNodeID, toNodeID uint64, edgeType string, properties map[string]Value) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ops = append(b.ops, batchOp{
		opType:     opCreateEdge,
		fromNodeID: fromNodeID,
		toNodeID:   toNodeID,
		edgeType:   edgeType,
		properties: properties,
	})
}

// Size returns the number of operations in the batch
func (b *Batch) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ops)
}

// Clear removes all operations from the batch
func (b *Batch) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = b.ops[:0]
}

// Commit validates every queued operation and then applies them. Nothing is
// applied when any operation would violate a constraint or reference a
// missing node.
func (b *Batch) Commit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	gs := b.graph
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed(); err != nil {
		return err
	}

	pending := make(map[indexKey]map[string]struct{})
	for _, op := range b.ops {
		switch op.opType {
		case opCreateNode:
			if err := gs.checkUnique("Batch.Commit", op.labels, op.properties, pending); err != nil {
				return err
			}
		case opCreateEdge:
			if err := gs.verifyNodeExists(op.fromNodeID, "source"); err != nil {
				return err
			}
			if err := gs.verifyNodeExists(op.toNodeID, "target"); err != nil {
				return err
			}
		}
	}

	now := time.Now().Unix()
	for _, op := range b.ops {
		switch op.opType {
		case opCreateNode:
			nodeID, err := gs.allocateNodeID()
			if err != nil {
				return err
			}
			gs.storeNode(&Node{
				ID:         nodeID,
				Labels:     append([]string(nil), op.labels...),
				Properties: copyProperties(op.properties),
				CreatedAt:  now,
			})
		case opCreateEdge:
			edgeID, err := gs.allocateEdgeID()
			if err != nil {
				return err
			}
			gs.storeEdge(&Edge{
				ID:         edgeID,
				FromNodeID: op.fromNodeID,
				ToNodeID:   op.toNodeID,
				Type:       op.edgeType,
				Properties: copyProperties(op.properties),
				CreatedAt:  now,
			})
		}
	}

	b.ops = b.ops[:0]
	return nil
}
