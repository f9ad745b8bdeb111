// Package formulas provides generic financial statistics used by the
// performance module. Diagnostic helpers here return nil pointers or zero
// values on insufficient data; the SATID scoring path has its own typed
// errors and never goes through this package's fallbacks.
package formulas

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 denominator)
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance (n-1 denominator)
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Correlation calculates the Pearson correlation coefficient between two series
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// HistoricalVaR returns the loss threshold at the given confidence level from
// a periodic return series, e.g. confidence 0.95 returns the 5th percentile.
// The result is typically negative (a loss).
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)
	return stat.Quantile(1-confidence, stat.Empirical, sorted, nil)
}

// PositiveShare returns the fraction of periods with a positive return
func PositiveShare(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	positive := 0
	for _, r := range returns {
		if r > 0 {
			positive++
		}
	}
	return float64(positive) / float64(len(returns))
}
