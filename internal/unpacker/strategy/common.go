package strategy

import (
	"cmp"
	"slices"

	"amfilter/internal/types"
)

// Attempt tries to turn one candidate into an output row.
// It reports whether a row was produced.
type Attempt func(candidate types.FileCandidate) bool

// OrderLargestFirst returns a copy of candidates in descending
// (size, format, filename) order
func OrderLargestFirst(candidates []types.FileCandidate) []types.FileCandidate {
	ordered := slices.Clone(candidates)

	slices.SortStableFunc(ordered, func(a, b types.FileCandidate) int {
		return -compareCandidates(a, b)
	})

	return ordered
}

func compareCandidates(a, b types.FileCandidate) int {
	if c := cmp.Compare(a.Size, b.Size); c != 0 {
		return c
	}

	if c := cmp.Compare(a.Format, b.Format); c != 0 {
		return c
	}

	return cmp.Compare(a.FileName, b.FileName)
}
