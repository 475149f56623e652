package strategy

import "amfilter/internal/types"

// TopOnlyStrategy evaluates the largest candidate and nothing else
type TopOnlyStrategy struct{}

func (s *TopOnlyStrategy) Select(candidates []types.FileCandidate, attempt Attempt) bool {
	if len(candidates) == 0 {
		return false
	}

	return attempt(OrderLargestFirst(candidates)[0])
}
