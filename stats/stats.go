// Package stats holds the numeric kernels behind the aggregation and
// correlation services. All functions treat NaN as a missing value.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DropNaN returns the non-missing values of x, in order.
func DropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// PairwiseComplete keeps the positions where both x and y are present.
// x and y must have the same length.
func PairwiseComplete(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// Mean of the present values; NaN when there are none.
func Mean(x []float64) float64 {
	x = DropNaN(x)
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// Median of the present values; NaN when there are none.
func Median(x []float64) float64 {
	return Quantile(x, 0.5)
}

// Quantile uses linear interpolation between the closest ranks, position
// q*(n-1) over the sorted present values.
func Quantile(x []float64, q float64) float64 {
	s := DropNaN(x)
	if len(s) == 0 || q < 0 || q > 1 {
		return math.NaN()
	}
	sort.Float64s(s)

	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}

// Pearson product-moment correlation. NaN when either input has zero variance
// or fewer than two values.
func Pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	if constant(x) || constant(y) {
		return math.NaN()
	}
	return clamp(stat.Correlation(x, y, nil))
}

// Spearman rank correlation: Pearson over average ranks.
func Spearman(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	return Pearson(Rank(x), Rank(y))
}

// Rank assigns 1-based ranks, giving tied values the average of their ranks.
func Rank(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && x[idx[j]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

// KendallTauB computes tau-b with tie correction in O(n log n) (Knight's
// algorithm). NaN when either input is constant.
func KendallTauB(x, y []float64) float64 {
	n := len(x)
	if n < 2 || n != len(y) {
		return math.NaN()
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if x[idx[a]] != x[idx[b]] {
			return x[idx[a]] < x[idx[b]]
		}
		return y[idx[a]] < y[idx[b]]
	})
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, j := range idx {
		xs[i], ys[i] = x[j], y[j]
	}

	// xTies: pairs tied on x; jointTies: pairs tied on both.
	var xTies, jointTies int64
	for i := 0; i < n; {
		j := i + 1
		for j < n && xs[j] == xs[i] {
			j++
		}
		xTies += pairs(j - i)
		for k := i; k < j; {
			m := k + 1
			for m < j && ys[m] == ys[k] {
				m++
			}
			jointTies += pairs(m - k)
			k = m
		}
		i = j
	}

	swaps := countInversions(ys)

	var yTies int64
	for i := 0; i < n; {
		j := i + 1
		for j < n && ys[j] == ys[i] {
			j++
		}
		yTies += pairs(j - i)
		i = j
	}

	total := pairs(n)
	den := math.Sqrt(float64(total-xTies) * float64(total-yTies))
	if den == 0 {
		return math.NaN()
	}
	num := float64(total-xTies-yTies+jointTies) - 2*float64(swaps)
	return clamp(num / den)
}

// countInversions merge-sorts v in place and returns the number of strictly
// decreasing pairs it had.
func countInversions(v []float64) int64 {
	buf := make([]float64, len(v))
	var swaps int64
	for width := 1; width < len(v); width *= 2 {
		for lo := 0; lo < len(v); lo += 2 * width {
			mid := min(lo+width, len(v))
			hi := min(lo+2*width, len(v))
			i, j, k := lo, mid, lo
			for i < mid && j < hi {
				if v[j] < v[i] {
					buf[k] = v[j]
					swaps += int64(mid - i)
					j++
				} else {
					buf[k] = v[i]
					i++
				}
				k++
			}
			k += copy(buf[k:], v[i:mid])
			copy(buf[k:], v[j:hi])
		}
		copy(v, buf)
	}
	return swaps
}

func pairs(n int) int64 {
	return int64(n) * int64(n-1) / 2
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

func clamp(r float64) float64 {
	if math.IsNaN(r) {
		return r
	}
	return math.Max(-1, math.Min(1, r))
}
