package recall

import "sort"

// quantile normalization thresholds. Below minQuantileSamples observations,
// or with fewer than two distinct values, the empirical quantiles are too
// coarse to be meaningful and the raw values pass through unchanged.
const (
	minQuantileSamples  = 10
	minQuantileDistinct = 2
)

// QuantileNormalize maps values to [0, 1] by their empirical quantile rank.
// Ties receive the average rank of their group, so equal inputs stay equal
// and the rank order of distinct inputs is preserved.
func QuantileNormalize(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	distinct := make(map[float64]struct{}, n)
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	if n < minQuantileSamples || len(distinct) < minQuantileDistinct {
		copy(out, values)
		return out
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	// Average the positions of tied values before normalizing by n-1.
	i := 0
	for i < n {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avgPos := float64(i+j) / 2.0
		rank := avgPos / float64(n-1)
		for k := i; k <= j; k++ {
			out[idx[k]] = rank
		}
		i = j + 1
	}
	return out
}
