package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"multiple", []float64{1, 2, 3, 4}, 2.5},
		{"negative", []float64{-2, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, calculateMean(tt.values), 1e-12)
		})
	}
}

func TestCalculateStdDev(t *testing.T) {
	t.Run("fewer than two points is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, calculateStdDev(nil))
		assert.Equal(t, 0.0, calculateStdDev([]float64{7}))
	})

	t.Run("sample standard deviation", func(t *testing.T) {
		// Variance of {2,4,4,4,5,5,7,9} with n-1 denominator is 32/7.
		values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
		assert.InDelta(t, math.Sqrt(32.0/7.0), calculateStdDev(values), 1e-12)
	})

	t.Run("constant series is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, calculateStdDev([]float64{3, 3, 3, 3}))
	})
}

func TestCoefficientOfVariation(t *testing.T) {
	t.Run("zero mean guards division", func(t *testing.T) {
		assert.Equal(t, 0.0, coefficientOfVariation([]float64{-1, 1}))
	})

	t.Run("ratio of stddev to mean", func(t *testing.T) {
		values := []float64{10, 10, 10, 10}
		assert.Equal(t, 0.0, coefficientOfVariation(values))

		spread := []float64{5, 15}
		cv := coefficientOfVariation(spread)
		assert.InDelta(t, calculateStdDev(spread)/10, cv, 1e-12)
	})
}

func TestDayOverDayDeltas(t *testing.T) {
	assert.Nil(t, dayOverDayDeltas([]float64{1}))
	assert.Equal(t, []float64{1, 2, -3}, dayOverDayDeltas([]float64{0, 1, 3, 0}))
}

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, normalCDF(0), 1e-12)
	assert.InDelta(t, 0.8413, normalCDF(1), 1e-4)
	assert.InDelta(t, 0.9750, normalCDF(1.96), 1e-4)

	t.Run("complement symmetry", func(t *testing.T) {
		for _, z := range []float64{0.1, 0.5, 1.0, 1.96, 3.3} {
			assert.InDelta(t, 1-normalCDF(z), normalCDF(-z), 1e-15)
		}
	})
}

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2, 5}

	tests := []struct {
		name     string
		q        float64
		expected float64
	}{
		{"minimum", 0, 1},
		{"maximum", 1, 5},
		{"median", 0.5, 3},
		{"interpolated", 0.25, 2},
		{"below range clamps", -0.5, 1},
		{"above range clamps", 1.5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, quantile(values, tt.q), 1e-12)
		})
	}

	t.Run("empty returns zero", func(t *testing.T) {
		assert.Equal(t, 0.0, quantile(nil, 0.5))
	})

	t.Run("input is not mutated", func(t *testing.T) {
		in := []float64{3, 1, 2}
		quantile(in, 0.5)
		assert.Equal(t, []float64{3, 1, 2}, in)
	})
}

func TestAutocorrelations(t *testing.T) {
	t.Run("lag zero is one", func(t *testing.T) {
		acf := autocorrelations([]float64{1, 2, 3, 4, 5}, 2)
		assert.Equal(t, 1.0, acf[0])
	})

	t.Run("constant series has zero variance", func(t *testing.T) {
		acf := autocorrelations(flatSeries(10, 5), 3)
		assert.Equal(t, []float64{1, 0, 0, 0}, acf)
	})

	t.Run("alternating series has negative lag one", func(t *testing.T) {
		values := []float64{1, -1, 1, -1, 1, -1, 1, -1}
		acf := autocorrelations(values, 1)
		assert.Less(t, acf[1], 0.0)
	})
}

func TestClampToScale(t *testing.T) {
	assert.Equal(t, 0.0, clampToScale(-5))
	assert.Equal(t, 100.0, clampToScale(250))
	assert.Equal(t, 42.5, clampToScale(42.5))
}
