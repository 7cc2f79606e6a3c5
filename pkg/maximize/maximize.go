// Package maximize provides the fixpoint merge used by every Alpha variant to
// grow candidate places.
package maximize

import "sort"

// Item is anything with a canonical identity.
type Item interface {
	// Key is a canonical string form; equal keys mean equal items.
	Key() string
}

// Maximize merges pairs of items until no pair can be merged.
//
// The working set is deduplicated and kept sorted by Key. Each round scans the
// pairs (i, j), i < j, in that order; the first pair tryMerge accepts is
// replaced by the merged item and the scan restarts. Every merge shrinks the
// set, so the loop terminates. The result is sorted by Key and no two of its
// items can be merged, but a different scan order could end with a different
// family.
func Maximize[T Item](items []T, tryMerge func(a, b T) (T, bool)) []T {
	work := dedupe(items)

	for {
		merged := false
	scan:
		for i := 0; i < len(work); i++ {
			for j := i + 1; j < len(work); j++ {
				m, ok := tryMerge(work[i], work[j])
				if !ok {
					continue
				}
				work = replace(work, i, j, m)
				merged = true
				break scan
			}
		}
		if !merged {
			return work
		}
	}
}

// Filter drops every item covered by a different item. covers(a, b) reports
// that a is subsumed by b.
func Filter[T Item](items []T, covers func(a, b T) bool) []T {
	out := make([]T, 0, len(items))
	for i, a := range items {
		subsumed := false
		for j, b := range items {
			if i != j && a.Key() != b.Key() && covers(a, b) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			out = append(out, a)
		}
	}
	return out
}

func dedupe[T Item](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := it.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// replace removes positions i < j and inserts m at its sorted position unless
// an equal item is already present.
func replace[T Item](work []T, i, j int, m T) []T {
	next := make([]T, 0, len(work)-1)
	next = append(next, work[:i]...)
	next = append(next, work[i+1:j]...)
	next = append(next, work[j+1:]...)

	key := m.Key()
	pos := sort.Search(len(next), func(k int) bool { return next[k].Key() >= key })
	if pos < len(next) && next[pos].Key() == key {
		return next
	}
	next = append(next, m)
	copy(next[pos+1:], next[pos:])
	next[pos] = m
	return next
}
