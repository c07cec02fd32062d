package storage

import (
	"sort"
	"sync"
)

type indexKey struct {
	label    string
	property string
}

// UniqueIndex maps a property value to the single node of a label holding it.
type UniqueIndex struct {
	label       string
	propertyKey string

	// value key (Value.String) -> node ID
	index map[string]uint64

	mu sync.RWMutex
}

// NewUniqueIndex creates an empty unique index on label.propertyKey
func NewUniqueIndex(label, propertyKey string) *UniqueIndex {
	return &UniqueIndex{
		label:       label,
		propertyKey: propertyKey,
		index:       make(map[string]uint64),
	}
}

// Label returns the indexed label
func (idx *UniqueIndex) Label() string { return idx.label }

// PropertyKey returns the indexed property
func (idx *UniqueIndex) PropertyKey() string { return idx.propertyKey }

// Lookup returns the node holding value, if any
func (idx *UniqueIndex) Lookup(value Value) (uint64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.index[value.String()]
	return id, ok
}

// Insert claims value for nodeID. It fails if another node already holds it.
func (idx *UniqueIndex) Insert(nodeID uint64, value Value) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := value.String()
	if existing, ok := idx.index[key]; ok && existing != nodeID {
		return UniqueViolationError("insert", idx.label, idx.propertyKey, value, existing)
	}
	idx.index[key] = nodeID
	return nil
}

// Size returns the number of indexed values
func (idx *UniqueIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.index)
}

// UniqueConstraint describes a declared uniqueness constraint
type UniqueConstraint struct {
	Label       string
	PropertyKey string
}

// CreateUniqueConstraint declares label.propertyKey unique. Declaring an
// existing constraint again is a no-op. Existing duplicates reject the
// declaration.
func (gs *GraphStorage) CreateUniqueConstraint(label, propertyKey string) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed(); err != nil {
		return err
	}

	key := indexKey{label: label, property: propertyKey}
	if _, exists := gs.uniqueIndexes[key]; exists {
		return nil
	}

	idx := NewUniqueIndex(label, propertyKey)
	for _, nodeID := range gs.nodesByLabel[label] {
		node := gs.nodes[nodeID]
		value, ok := node.Properties[propertyKey]
		if !ok {
			continue
		}
		if err := idx.Insert(nodeID, value); err != nil {
			return err
		}
	}

	gs.uniqueIndexes[key] = idx
	return nil
}

// UniqueConstraints lists declared constraints ordered by label then property
func (gs *GraphStorage) UniqueConstraints() []UniqueConstraint {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	out := make([]UniqueConstraint, 0, len(gs.uniqueIndexes))
	for key := range gs.uniqueIndexes {
		out = append(out, UniqueConstraint{Label: key.label, PropertyKey: key.property})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].PropertyKey < out[j].PropertyKey
	})
	return out
}

// checkUnique verifies a prospective node against the unique indexes of its
// labels. pending holds values claimed earlier in the same batch.
func (gs *GraphStorage) checkUnique(op string, labels []string, properties map[string]Value, pending map[indexKey]map[string]struct{}) error {
	for _, label := range labels {
		for key, value := range properties {
			idx, ok := gs.uniqueIndexes[indexKey{label: label, property: key}]
			if !ok {
				continue
			}
			if existing, taken := idx.Lookup(value); taken {
				return UniqueViolationError(op, label, key, value, existing)
			}
			if pending == nil {
				continue
			}
			ik := indexKey{label: label, property: key}
			seen := pending[ik]
			if seen == nil {
				seen = make(map[string]struct{})
				pending[ik] = seen
			}
			if _, dup := seen[value.String()]; dup {
				return NewError(op).
					Constraint(label, key).
					Context("value " + value.String() + " repeated within batch").
					Cause(ErrConstraintViolation).
					Err()
			}
			seen[value.String()] = struct{}{}
		}
	}
	return nil
}

// insertIntoUniqueIndexes records a stored node in every matching index.
// Callers run checkUnique first, so Insert cannot fail here.
func (gs *GraphStorage) insertIntoUniqueIndexes(node *Node) {
	for _, label := range node.Labels {
		for key, value := range node.Properties {
			if idx, ok := gs.uniqueIndexes[indexKey{label: label, property: key}]; ok {
				_ = idx.Insert(node.ID, value)
			}
		}
	}
}
