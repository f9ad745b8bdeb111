package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanStdDev(t *testing.T) {
	data := []float64{0.02, -0.01, 0.03, 0.0}

	assert.InDelta(t, 0.01, Mean(data), 1e-12)
	// Sample variance with n-1: ((0.01)^2+(0.02)^2+(0.02)^2+(0.01)^2)/3
	assert.InDelta(t, math.Sqrt(0.001/3), StdDev(data), 1e-12)

	assert.Zero(t, Mean(nil))
	assert.Zero(t, StdDev([]float64{0.05}))
	assert.Zero(t, Variance([]float64{0.05}))
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, Correlation(x, x), 1e-12)

	y := []float64{4, 3, 2, 1}
	assert.InDelta(t, -1.0, Correlation(x, y), 1e-12)

	assert.Zero(t, Correlation(x, []float64{1, 2}))
}

func TestHistoricalVaR(t *testing.T) {
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = float64(i-49) / 1000 // -0.049 .. 0.050
	}

	v := HistoricalVaR(returns, 0.95)
	// 5th percentile sits near the bottom of the distribution.
	assert.Less(t, v, -0.04)
	assert.Greater(t, v, -0.05)

	assert.Zero(t, HistoricalVaR(nil, 0.95))
}

func TestPositiveShare(t *testing.T) {
	assert.InDelta(t, 0.5, PositiveShare([]float64{0.01, -0.01, 0.02, -0.02}), 1e-12)
	assert.Zero(t, PositiveShare([]float64{0, -0.01}))
	assert.Zero(t, PositiveShare(nil))
}

func TestAnnualizedReturn(t *testing.T) {
	// 52 weeks at ~0.1335% weekly compounds to ~7.2% a year.
	weekly := math.Pow(1.072, 1.0/52) - 1
	returns := make([]float64, 52)
	for i := range returns {
		returns[i] = weekly
	}
	assert.InDelta(t, 0.072, AnnualizedReturn(returns, 52), 1e-9)

	// Half a year of the same rate annualizes to the same figure.
	assert.InDelta(t, 0.072, AnnualizedReturn(returns[:26], 52), 1e-9)

	assert.Zero(t, AnnualizedReturn(nil, 52))
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	expected := StdDev(returns) * math.Sqrt(52)
	assert.InDelta(t, expected, AnnualizedVolatility(returns, 52), 1e-12)
}

func TestSharpeRatio(t *testing.T) {
	t.Run("positive excess return", func(t *testing.T) {
		returns := []float64{0.02, 0.01, 0.03, 0.02, 0.01}
		sharpe := SharpeRatio(returns, 0.02, 52)
		require.NotNil(t, sharpe)
		assert.Positive(t, *sharpe)
	})

	t.Run("nil on zero variance", func(t *testing.T) {
		assert.Nil(t, SharpeRatio([]float64{0.01, 0.01, 0.01}, 0.02, 52))
	})

	t.Run("nil on insufficient data", func(t *testing.T) {
		assert.Nil(t, SharpeRatio([]float64{0.01}, 0.02, 52))
	})
}

func TestSortinoRatio(t *testing.T) {
	t.Run("penalizes only downside", func(t *testing.T) {
		returns := []float64{0.03, -0.01, 0.02, -0.02, 0.04}
		sortino := SortinoRatio(returns, 0.02, 0, 52)
		require.NotNil(t, sortino)

		sharpe := SharpeRatio(returns, 0.02, 52)
		require.NotNil(t, sharpe)
		// Downside deviation differs from full deviation on a mixed series.
		assert.NotEqual(t, *sharpe, *sortino)
	})

	t.Run("nil without downside observations", func(t *testing.T) {
		assert.Nil(t, SortinoRatio([]float64{0.01, 0.02, 0.03}, 0.02, 0, 52))
	})
}

func TestMaxDrawdown(t *testing.T) {
	t.Run("single dip with recovery", func(t *testing.T) {
		// 1.10 -> 0.88 (-20%) -> 1.056 -> 1.2672
		returns := []float64{0.10, -0.20, 0.20, 0.20}
		dd := MaxDrawdown(returns)

		assert.InDelta(t, -0.20, dd.MaxDrawdown, 1e-12)
		assert.Equal(t, 1, dd.TroughIndex)
		assert.Equal(t, 2, dd.PeriodsToRecovery)
	})

	t.Run("never recovered", func(t *testing.T) {
		returns := []float64{0.10, -0.30, 0.05}
		dd := MaxDrawdown(returns)
		assert.InDelta(t, -0.30, dd.MaxDrawdown, 1e-12)
		assert.Equal(t, -1, dd.PeriodsToRecovery)
	})

	t.Run("monotone rise has zero drawdown", func(t *testing.T) {
		dd := MaxDrawdown([]float64{0.01, 0.02, 0.01})
		assert.Zero(t, dd.MaxDrawdown)
	})

	t.Run("empty", func(t *testing.T) {
		dd := MaxDrawdown(nil)
		assert.Zero(t, dd.MaxDrawdown)
		assert.Equal(t, -1, dd.PeriodsToRecovery)
	})
}
