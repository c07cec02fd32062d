// Package backend defines the graph store contract the loader writes through
// and the model types shared by its implementations.
package backend

import (
	"context"
	"errors"
	"fmt"
)

// KeyProperty is the property every loaded node is keyed on.
const KeyProperty = "id"

// ErrDuplicateKey is returned when a node would repeat the key of another
// node with the same label under a uniqueness constraint.
var ErrDuplicateKey = errors.New("duplicate key")

// Entity is one node row: a label plus the three loaded fields.
type Entity struct {
	Label string
	ID    int64
	Name  string
	Type  string
}

// Link is one relationship row resolved against two labels.
type Link struct {
	Type      string
	FromLabel string
	ToLabel   string
	FromID    int64
	ToID      int64
}

func (l Link) String() string {
	return fmt.Sprintf("(%s %d)-[:%s]->(%s %d)", l.FromLabel, l.FromID, l.Type, l.ToLabel, l.ToID)
}

// Direction selects which side of a relationship a neighbor query matches on.
type Direction int

const (
	// Outgoing matches on the source node and collects targets.
	Outgoing Direction = iota
	// Incoming matches on the target node and collects sources.
	Incoming
)

// NeighborQuery selects subjects of SubjectLabel whose name contains
// NameContains (case-insensitive) and collects the distinct names of the
// nodes of RelatedLabel connected through RelType.
type NeighborQuery struct {
	SubjectLabel string
	RelatedLabel string
	RelType      string
	Direction    Direction
	NameContains string
	Limit        int
}

// NeighborRow is one subject with its related names, sorted.
type NeighborRow struct {
	Subject string
	Related []string
}

// DuplicateKeyError carries the label and key of a rejected node.
type DuplicateKeyError struct {
	Label string
	ID    int64
	// Existing is set when the key clashes with a stored node rather than
	// with an earlier entity of the same call. Backends that cannot tell
	// leave it false.
	Existing bool
	Cause    error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s with %s %d already exists: %v", e.Label, KeyProperty, e.ID, e.Cause)
}

func (e *DuplicateKeyError) Unwrap() []error {
	return []error{ErrDuplicateKey, e.Cause}
}

// Store is the graph database the loader writes to.
type Store interface {
	// EnsureUniqueConstraint declares label.property unique. It succeeds
	// when the constraint already exists.
	EnsureUniqueConstraint(ctx context.Context, label, property string) error

	// CreateNodes creates one node per entity without checking for
	// existing nodes. A uniqueness rejection surfaces as *DuplicateKeyError.
	CreateNodes(ctx context.Context, nodes []Entity) error

	// Relate looks up both endpoints of every link and creates one directed
	// edge where both exist. Links with a missing endpoint are returned in
	// missing and produce no edge.
	Relate(ctx context.Context, links []Link) (created int, missing []Link, err error)

	// CountNodesByLabel returns node counts grouped by label.
	CountNodesByLabel(ctx context.Context) (map[string]int64, error)

	// CountRelationshipsByType returns relationship counts grouped by type.
	CountRelationshipsByType(ctx context.Context) (map[string]int64, error)

	// Neighbors runs a read-only neighborhood lookup.
	Neighbors(ctx context.Context, q NeighborQuery) ([]NeighborRow, error)

	Close(ctx context.Context) error
}
