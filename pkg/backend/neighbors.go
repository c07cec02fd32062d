package backend

import (
	"sort"
	"strings"
)

// NameMatches reports whether name contains fragment, ignoring case. An empty
// fragment matches every name.
func NameMatches(name, fragment string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(fragment))
}

// CollectNeighbors groups (subject, related) pairs into rows ordered by
// subject name with distinct, sorted related names, truncated to limit when
// limit is positive. Backends that fetch pairs use it to shape their results
// identically.
func CollectNeighbors(pairs [][2]string, limit int) []NeighborRow {
	grouped := make(map[string]map[string]struct{})
	for _, p := range pairs {
		set, ok := grouped[p[0]]
		if !ok {
			set = make(map[string]struct{})
			grouped[p[0]] = set
		}
		set[p[1]] = struct{}{}
	}

	rows := make([]NeighborRow, 0, len(grouped))
	for subject, set := range grouped {
		related := make([]string, 0, len(set))
		for name := range set {
			related = append(related, name)
		}
		sort.Strings(related)
		rows = append(rows, NeighborRow{Subject: subject, Related: related})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Subject < rows[j].Subject })

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
