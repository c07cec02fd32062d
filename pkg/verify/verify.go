// Package verify runs the post-load aggregate checks.
package verify

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/constraints"
	"github.com/dd0wney/medgraph/pkg/dataset"
	"github.com/dd0wney/medgraph/pkg/metrics"
)

// Summary holds node counts by label and relationship counts by type.
type Summary struct {
	Nodes         map[string]int64
	Relationships map[string]int64
}

// Run executes both read-only aggregates.
func Run(ctx context.Context, store backend.Store) (*Summary, error) {
	nodes, err := store.CountNodesByLabel(ctx)
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	rels, err := store.CountRelationshipsByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("count relationships: %w", err)
	}
	return &Summary{Nodes: nodes, Relationships: rels}, nil
}

// Count returns the count for a label or, failing that, a relationship type.
func (s *Summary) Count(name string) int64 {
	if n, ok := s.Nodes[name]; ok {
		return n
	}
	return s.Relationships[name]
}

// Publish copies the counts into the graph gauges.
func (s *Summary) Publish(reg *metrics.Registry) {
	reg.SetGraphCounts(s.Nodes, s.Relationships)
}

// WriteTo renders both aggregates as tables sorted by name.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tCOUNT")
	for _, k := range sortedKeys(s.Nodes) {
		fmt.Fprintf(tw, "%s\t%d\n", k, s.Nodes[k])
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "RELATIONSHIP\tCOUNT")
	for _, k := range sortedKeys(s.Relationships) {
		fmt.Fprintf(tw, "%s\t%d\n", k, s.Relationships[k])
	}
	tw.Flush()

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// ParseExpectations parses "Disease=3,HAS_SYMPTOM=2".
func ParseExpectations(s string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("expectation %q: want NAME=COUNT", part)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("expectation %q: count must be a non-negative integer", part)
		}
		out[strings.TrimSpace(name)] = n
	}
	return out, nil
}

// MismatchError lists expectations the summary did not meet.
type MismatchError struct {
	Mismatches []Mismatch
}

// Mismatch is one expected count that differs from the actual count.
type Mismatch struct {
	Name     string
	Expected int64
	Actual   int64
}

func (e *MismatchError) Error() string {
	parts := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		parts[i] = fmt.Sprintf("%s: expected %d, got %d", m.Name, m.Expected, m.Actual)
	}
	return "verification failed: " + strings.Join(parts, "; ")
}

// Expect compares the summary against expected counts by label or type.
func (s *Summary) Expect(expected map[string]int64) error {
	var mismatches []Mismatch
	for _, name := range sortedKeys(expected) {
		if actual := s.Count(name); actual != expected[name] {
			mismatches = append(mismatches, Mismatch{Name: name, Expected: expected[name], Actual: actual})
		}
	}
	if len(mismatches) > 0 {
		return &MismatchError{Mismatches: mismatches}
	}
	return nil
}

// Audit checks a loaded graph against the manifest's schema: unique int ids,
// string name and type, and relationship endpoints of the declared labels.
func Audit(graph constraints.GraphReader, manifest *dataset.Manifest) (*constraints.ValidationResult, error) {
	rules := make([]constraints.EdgeRule, len(manifest.Relationships))
	for i, r := range manifest.Relationships {
		rules[i] = constraints.EdgeRule{Type: r.Type, Source: r.From, Target: r.To}
	}

	v := constraints.NewValidator()
	v.AddConstraints(constraints.ForSchema(manifest.Labels(), backend.KeyProperty, rules))
	return v.Validate(graph)
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
