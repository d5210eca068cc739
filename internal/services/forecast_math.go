package services

import (
	"math"
	"sort"
)

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func calculateStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := calculateMean(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	variance := sumSquares / float64(len(values)-1)
	return math.Sqrt(variance)
}

// coefficientOfVariation returns stddev / |mean|, or 0 when the mean is too
// close to zero to divide safely.
func coefficientOfVariation(values []float64) float64 {
	mean := calculateMean(values)
	if math.Abs(mean) < 1e-9 {
		return 0
	}
	return calculateStdDev(values) / math.Abs(mean)
}

// dayOverDayDeltas returns the successive differences of the series.
func dayOverDayDeltas(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	deltas := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		deltas = append(deltas, values[i]-values[i-1])
	}
	return deltas
}

// normalCDF is the standard normal cumulative distribution function.
// math.Erf is odd, so normalCDF(-x) == 1-normalCDF(x) exactly, which the
// head-to-head swap symmetry relies on.
func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// quantile returns the q-th empirical quantile (0 <= q <= 1) using linear
// interpolation between order statistics.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// autocovariance returns lag-k autocovariance of the demeaned series.
func autocovariance(values []float64, lag int) float64 {
	n := len(values)
	if lag < 0 || lag >= n {
		return 0
	}
	mean := calculateMean(values)
	var sum float64
	for t := lag; t < n; t++ {
		sum += (values[t] - mean) * (values[t-lag] - mean)
	}
	return sum / float64(n)
}

// autocorrelations returns ACF values for lags 0..maxLag.
func autocorrelations(values []float64, maxLag int) []float64 {
	c0 := autocovariance(values, 0)
	acf := make([]float64, maxLag+1)
	acf[0] = 1
	if c0 <= 0 {
		return acf
	}
	for k := 1; k <= maxLag && k < len(values); k++ {
		acf[k] = autocovariance(values, k) / c0
	}
	return acf
}

func clampToScale(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
