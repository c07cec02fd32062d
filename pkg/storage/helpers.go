package storage

import "sort"

// sortIndexLists orders every ID list ascending, restoring creation order
// after a snapshot reload walked the maps in random order.
func sortIndexLists[K comparable](lists map[K][]uint64) {
	for _, ids := range lists {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
}
