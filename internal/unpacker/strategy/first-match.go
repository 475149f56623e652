package strategy

import "amfilter/internal/types"

// FirstMatchStrategy walks candidates largest first until one produces a row
type FirstMatchStrategy struct{}

func (s *FirstMatchStrategy) Select(candidates []types.FileCandidate, attempt Attempt) bool {
	for _, candidate := range OrderLargestFirst(candidates) {
		if attempt(candidate) {
			return true
		}
	}

	return false
}
