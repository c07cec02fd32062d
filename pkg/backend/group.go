package backend

// GroupLinks returns link indexes grouped by (type, from label, to label) in
// order of first appearance. Backends that write one statement per
// relationship shape use it to batch rows.
func GroupLinks(links []Link) [][]int {
	type key struct{ relType, from, to string }
	var groups [][]int
	index := make(map[key]int)
	for i, l := range links {
		k := key{l.Type, l.FromLabel, l.ToLabel}
		g, ok := index[k]
		if !ok {
			g = len(groups)
			index[k] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
