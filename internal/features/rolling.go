package features

import "math"

// Rolling-window helpers over daily columns. Unresolved positions carry
// NaN, which later propagates into the row-drop step. Windows use only
// the current and past observations.

// shift returns x moved forward by n positions, NaN-padded at the head.
func shift(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[i-n]
	}
	return out
}

// diff returns x[i] - x[i-1], NaN at index 0.
func diff(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[i] - x[i-1]
	}
	return out
}

// pctChange returns the fractional change over the given number of
// periods: x[i]/x[i-periods] - 1.
func pctChange(x []float64, periods int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < periods {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[i]/x[i-periods] - 1
	}
	return out
}

// rollingMean returns the trailing mean over a full window. A window
// containing NaN yields NaN.
func rollingMean(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += x[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// rollingMeanMin is rollingMean with a minimum-observation threshold:
// positions with at least minPeriods non-NaN values in the trailing
// window average only those values; earlier positions stay NaN.
func rollingMeanMin(x []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		var n int
		for j := start; j <= i; j++ {
			if math.IsNaN(x[j]) {
				continue
			}
			sum += x[j]
			n++
		}
		if n < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

// rollingStd returns the trailing sample standard deviation (n-1
// denominator) over a full window. A window containing NaN yields NaN.
func rollingStd(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < window-1 || window < 2 {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += x[j]
		}
		mean := sum / float64(window)
		var sq float64
		for j := i - window + 1; j <= i; j++ {
			d := x[j] - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(window-1))
	}
	return out
}

// rollingMaxMin returns trailing max and min with a minimum-observation
// threshold, skipping NaN values.
func rollingMaxMin(x []float64, window, minPeriods int) (maxOut, minOut []float64) {
	maxOut = make([]float64, len(x))
	minOut = make([]float64, len(x))
	for i := range x {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		hi := math.Inf(-1)
		lo := math.Inf(1)
		var n int
		for j := start; j <= i; j++ {
			if math.IsNaN(x[j]) {
				continue
			}
			if x[j] > hi {
				hi = x[j]
			}
			if x[j] < lo {
				lo = x[j]
			}
			n++
		}
		if n < minPeriods {
			maxOut[i] = math.NaN()
			minOut[i] = math.NaN()
			continue
		}
		maxOut[i] = hi
		minOut[i] = lo
	}
	return maxOut, minOut
}

// ewm returns the exponentially weighted mean for the given span,
// recursively seeded with the first value: alpha = 2/(span+1),
// y[i] = alpha*x[i] + (1-alpha)*y[i-1].
func ewm(x []float64, span int) []float64 {
	out := make([]float64, len(x))
	alpha := 2.0 / (float64(span) + 1.0)
	prev := math.NaN()
	for i, v := range x {
		if math.IsNaN(prev) {
			prev = v
		} else if !math.IsNaN(v) {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// cumsumSkipNaN returns the running sum of x, skipping NaN values while
// keeping NaN at their own positions.
func cumsumSkipNaN(x []float64) []float64 {
	out := make([]float64, len(x))
	var sum float64
	for i, v := range x {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		sum += v
		out[i] = sum
	}
	return out
}
