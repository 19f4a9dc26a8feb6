package intake

import "github.com/google/uuid"

// groupSize is the number of sheet variants per logical sheet set. Pages of
// a multi-page document are grouped in runs of this size.
const groupSize = 3

// DocumentGroups assigns group identifiers to the sequential pages of one
// source document: pages at ordinal positions [0,1,2] share one freshly
// generated identifier, [3,4,5] the next, and so on.
func DocumentGroups(pageCount int) []string {
	groups := make([]string, pageCount)
	var current string
	for i := 0; i < pageCount; i++ {
		if i%groupSize == 0 {
			current = uuid.NewString()
		}
		groups[i] = current
	}
	return groups
}

// PairedGroups assigns one shared identifier per positional index across the
// three paired buckets. The result covers index 0 through the longest
// bucket's length minus 1; shorter buckets simply contribute no item at the
// missing indices.
func PairedGroups(bucketLens [3]int) []string {
	longest := 0
	for _, n := range bucketLens {
		if n > longest {
			longest = n
		}
	}
	groups := make([]string, longest)
	for i := range groups {
		groups[i] = uuid.NewString()
	}
	return groups
}
