package features

import "math"

// RollingMean computes the trailing mean over window observations ending at
// each index. Early indexes use whatever observations are available (minimum
// one), so no output is left undefined. NaN inputs are skipped; a window with
// no valid observation yields NaN.
func RollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window < 1 {
		window = 1
	}
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum := 0.0
		n := 0
		for _, v := range xs[start : i+1] {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

// RollingMax computes the trailing maximum over window observations with the
// same minimum-period-1 and NaN rules as RollingMean.
func RollingMax(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window < 1 {
		window = 1
	}
	// deque of indexes with decreasing values
	dq := make([]int, 0, window)
	for i, v := range xs {
		for len(dq) > 0 && dq[0] <= i-window {
			dq = dq[1:]
		}
		if !math.IsNaN(v) {
			for len(dq) > 0 && xs[dq[len(dq)-1]] <= v {
				dq = dq[:len(dq)-1]
			}
			dq = append(dq, i)
		}
		if len(dq) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[dq[0]]
	}
	return out
}

// PctChange returns x[i]/x[i-1] - 1 with the first element set to 0.
// Undefined changes (NaN input) are reported as 0.
func PctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := 1; i < len(xs); i++ {
		r := xs[i]/xs[i-1] - 1
		if math.IsNaN(r) {
			r = 0
		}
		out[i] = r
	}
	return out
}
