package fbis

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satidlabs/satid/internal/modules/satid"
)

func TestConstraintsFor(t *testing.T) {
	large := ConstraintsFor("large_cap")
	assert.Equal(t, 18, large.PeriodMin)
	assert.Equal(t, 24, large.PeriodMax)

	t.Run("unknown class defaults to large cap", func(t *testing.T) {
		assert.Equal(t, large, ConstraintsFor("crypto"))
	})

	t.Run("bond grids allow zero shift", func(t *testing.T) {
		shifts := ConstraintsFor("bond_ig").Shifts()
		require.NotEmpty(t, shifts)
		assert.InDelta(t, 0.0, shifts[len(shifts)-1], 1e-12)
	})
}

func TestParamRangeEnumeration(t *testing.T) {
	grid := ConstraintsFor("large_cap")

	assert.Equal(t, []int{18, 20, 22, 24}, grid.Periods())

	shifts := grid.Shifts()
	// -0.06 up to but excluding -0.015.
	require.Len(t, shifts, 9)
	assert.InDelta(t, -0.06, shifts[0], 1e-12)
	assert.InDelta(t, -0.02, shifts[len(shifts)-1], 1e-9)

	// Classes whose (max-min)/step quotient lands a hair above an integer
	// must keep the extra candidate; truncating the count would silently
	// shrink the search space for these grids.
	t.Run("quotient lands above an integer", func(t *testing.T) {
		tests := []struct {
			class     string
			count     int
			lastShift float64
		}{
			{class: "growth_tech", count: 12, lastShift: -0.015},
			{class: "bond_hy", count: 7, lastShift: 0.0},
			{class: "emerging", count: 16, lastShift: -0.025},
		}

		for _, tt := range tests {
			t.Run(tt.class, func(t *testing.T) {
				shifts := ConstraintsFor(tt.class).Shifts()
				require.Len(t, shifts, tt.count)
				assert.InDelta(t, tt.lastShift, shifts[len(shifts)-1], 1e-9)
			})
		}
	})
}

func TestOptimize(t *testing.T) {
	opt := NewOptimizer(zerolog.Nop())

	t.Run("short history falls back to defaults", func(t *testing.T) {
		highs := []float64{101, 102, 103, 104, 105}
		lows := []float64{99, 100, 101, 102, 103}
		closes := []float64{100, 101, 102, 103, 104}

		result, err := opt.Optimize("SPY", "large_cap", highs, lows, closes)
		require.NoError(t, err)
		assert.True(t, result.Defaulted)
		assert.Equal(t, satid.FBISParams{Period: DefaultPeriod, Shift: DefaultShift}, result.Params)
		assert.Zero(t, result.SupportTests)
		assert.Zero(t, result.Breaches)
	})

	t.Run("fitted params stay inside the class grid", func(t *testing.T) {
		highs, lows, closes := downtrendFixture()
		result, err := opt.Optimize("SPY", "large_cap", highs, lows, closes)
		require.NoError(t, err)

		assert.False(t, result.Defaulted)
		grid := ConstraintsFor("large_cap")
		assert.GreaterOrEqual(t, result.Params.Period, grid.PeriodMin)
		assert.LessOrEqual(t, result.Params.Period, grid.PeriodMax)
		assert.GreaterOrEqual(t, result.Params.Shift, grid.ShiftMin)
		assert.Less(t, result.Params.Shift, grid.ShiftMax)
		assert.Equal(t, 20, result.TrendStart)
		assert.Equal(t,
			float64(result.SupportTests)*SupportTestReward-float64(result.Breaches)*BreachPenalty,
			result.Score)
	})

	t.Run("deterministic", func(t *testing.T) {
		highs, lows, closes := downtrendFixture()
		first, err := opt.Optimize("SPY", "large_cap", highs, lows, closes)
		require.NoError(t, err)
		second, err := opt.Optimize("SPY", "large_cap", highs, lows, closes)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("rejects mismatched series", func(t *testing.T) {
		_, err := opt.Optimize("SPY", "large_cap",
			[]float64{1, 2, 3}, []float64{1, 2}, []float64{1, 2, 3})
		assert.ErrorIs(t, err, satid.ErrInsufficientData)
	})

	t.Run("rejects empty history", func(t *testing.T) {
		_, err := opt.Optimize("SPY", "large_cap", nil, nil, nil)
		assert.ErrorIs(t, err, satid.ErrInsufficientData)
	})
}

func TestOptimizeAll(t *testing.T) {
	opt := NewOptimizer(zerolog.Nop())
	highs, lows, closes := downtrendFixture()

	results, err := opt.OptimizeAll(map[string]OHLCHistory{
		"SPY": {AssetClass: "large_cap", Highs: highs, Lows: lows, Closes: closes},
		"QQQ": {AssetClass: "growth_tech", Highs: highs, Lows: lows, Closes: closes},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "SPY", results["SPY"].AssetID)
	assert.Equal(t, "growth_tech", results["QQQ"].AssetClass)
}
