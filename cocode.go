package cmat

import "sort"

// coCode partitions compressible columns into groups to co-code together
// (spec.md §4.2). Columns are visited in an order that prefers merging
// low-cardinality columns first (they grow a group's joint cardinality the
// least) with ties broken by higher single-column compression ratio, and a
// column is folded into the group being built only if doing so keeps the
// group's cardinality product under maxCoCodedCardinality and the
// estimator predicts the joint size beats the sum of the columns'
// individual sizes.
func coCode(src Source, transposed bool, estimator Estimator, cols []int, single map[int]CompressedSizeInfo, ratio map[int]float64) [][]int {
	ordered := append([]int(nil), cols...)
	sort.Slice(ordered, func(a, b int) bool {
		ca, cb := single[ordered[a]].EstCardinality, single[ordered[b]].EstCardinality
		if ca != cb {
			return ca < cb
		}
		return ratio[ordered[a]] > ratio[ordered[b]]
	})

	var groups [][]int
	var current []int
	cardProduct := 1
	currentSize := int64(0)

	flush := func() {
		if len(current) == 0 {
			return
		}
		sorted := append([]int(nil), current...)
		sort.Ints(sorted)
		groups = append(groups, sorted)
		current = nil
		cardProduct = 1
		currentSize = 0
	}

	for _, c := range ordered {
		info := single[c]
		card := info.EstCardinality
		if card < 1 {
			card = 1
		}

		if len(current) > 0 {
			candidateProduct := cardProduct * card
			if candidateProduct <= maxCoCodedCardinality {
				candidate := append(append([]int(nil), current...), c)
				joint := estimator.Estimate(src, transposed, candidate)
				if joint.MinSize < currentSize+info.MinSize {
					current = candidate
					cardProduct = candidateProduct
					currentSize = joint.MinSize
					continue
				}
			}
			flush()
		}

		current = []int{c}
		cardProduct = card
		currentSize = info.MinSize
	}
	flush()

	return groups
}
