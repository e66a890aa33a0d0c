// Package batch chunks normalized records and posts them home in listing
// order, one batch at a time.
package batch

// Chunk splits items into contiguous groups of at most size elements. The
// final group carries the remainder. Order is preserved and no element is
// dropped or duplicated; the groups alias the input slice rather than
// copying it. A nil result means there was nothing to split.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	groups := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		groups = append(groups, items[start:end])
	}
	return groups
}
