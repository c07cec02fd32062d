package storage

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"
)

// CreateNode creates a new node
func (gs *GraphStorage) CreateNode(labels []string, properties map[string]Value) (*Node, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed(); err != nil {
		return nil, err
	}

	if err := gs.checkUnique("CreateNode", labels, properties, nil); err != nil {
		return nil, err
	}

	nodeID, err := gs.allocateNodeID()
	if err != nil {
		return nil, err
	}

	node := &Node{
		ID:         nodeID,
		Labels:     append([]string(nil), labels...),
		Properties: copyProperties(properties),
		CreatedAt:  time.Now().Unix(),
	}
	gs.storeNode(node)

	return node.Clone(), nil
}

// storeNode links a fully built node into every index. Caller holds gs.mu.
func (gs *GraphStorage) storeNode(node *Node) {
	gs.nodes[node.ID] = node

	for _, label := range node.Labels {
		gs.nodesByLabel[label] = append(gs.nodesByLabel[label], node.ID)
	}

	gs.insertIntoUniqueIndexes(node)
	atomic.AddUint64(&gs.stats.NodeCount, 1)
}

// GetNode retrieves a node by ID
func (gs *GraphStorage) GetNode(nodeID uint64) (*Node, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	node, exists := gs.nodes[nodeID]
	if !exists {
		return nil, NodeNotFoundError(nodeID)
	}

	return node.Clone(), nil
}

// FindNodesByLabel returns every node carrying label, in creation order
func (gs *GraphStorage) FindNodesByLabel(label string) ([]*Node, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if err := gs.checkClosed(); err != nil {
		return nil, err
	}

	return gs.buildNodeListFromIDs(gs.nodesByLabel[label]), nil
}

// FindNodeByProperty returns the first node with label whose property key
// equals value. A unique index on label.key is used when declared, otherwise
// the label is scanned.
func (gs *GraphStorage) FindNodeByProperty(label, key string, value Value) (*Node, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if err := gs.checkClosed(); err != nil {
		return nil, err
	}

	if idx, ok := gs.uniqueIndexes[indexKey{label: label, property: key}]; ok {
		nodeID, found := idx.Lookup(value)
		if !found {
			return nil, gs.lookupMiss(label, key, value)
		}
		return gs.nodes[nodeID].Clone(), nil
	}

	for _, nodeID := range gs.nodesByLabel[label] {
		node := gs.nodes[nodeID]
		if prop, ok := node.Properties[key]; ok && prop.String() == value.String() {
			return node.Clone(), nil
		}
	}
	return nil, gs.lookupMiss(label, key, value)
}

func (gs *GraphStorage) lookupMiss(label, key string, value Value) error {
	return NewError("find").
		Constraint(label, key).
		Context(fmt.Sprintf("no node with value %s", value)).
		Cause(ErrNodeNotFound).
		Err()
}

// GetAllNodes returns every node ordered by ID
func (gs *GraphStorage) GetAllNodes() []*Node {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	ids := make([]uint64, 0, len(gs.nodes))
	for id := range gs.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return gs.buildNodeListFromIDs(ids)
}

// GetAllLabels returns the labels in use, sorted
func (gs *GraphStorage) GetAllLabels() []string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	labels := make([]string, 0, len(gs.nodesByLabel))
	for label, ids := range gs.nodesByLabel {
		if len(ids) > 0 {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels
}

func (gs *GraphStorage) buildNodeListFromIDs(nodeIDs []uint64) []*Node {
	nodes := make([]*Node, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		if node, ok := gs.nodes[id]; ok {
			nodes = append(nodes, node.Clone())
		}
	}
	return nodes
}

func (gs *GraphStorage) allocateNodeID() (uint64, error) {
	if gs.nextNodeID == ^uint64(0) { // MaxUint64
		return 0, fmt.Errorf("node ID space exhausted")
	}
	id := gs.nextNodeID
	gs.nextNodeID++
	return id, nil
}

func copyProperties(properties map[string]Value) map[string]Value {
	out := make(map[string]Value, len(properties))
	for k, v := range properties {
		out[k] = v
	}
	return out
}
