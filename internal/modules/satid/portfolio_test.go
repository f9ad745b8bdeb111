package satid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAllocations(t *testing.T) {
	assert.NoError(t, ValidateAllocations(map[string]Allocation{
		"SPY": {Weight: 0.6, AssetClass: "Core Equity"},
		"AGG": {Weight: 0.4, AssetClass: "Fixed Income"},
		"XYZ": {Weight: 0, AssetClass: "Cash"},
	}))

	err := ValidateAllocations(map[string]Allocation{"SPY": {Weight: -0.1}})
	assert.ErrorIs(t, err, ErrInvalidAllocation)

	err = ValidateAllocations(map[string]Allocation{"SPY": {Weight: 1.2}})
	assert.ErrorIs(t, err, ErrInvalidAllocation)
}

func TestActiveWeights(t *testing.T) {
	t.Run("normalizes floating point residue", func(t *testing.T) {
		weights, err := ActiveWeights(map[string]Allocation{
			"A": {Weight: 0.3333},
			"B": {Weight: 0.3333},
			"C": {Weight: 0.3333},
		})
		require.NoError(t, err)

		total := 0.0
		for _, w := range weights {
			total += w
		}
		assert.InDelta(t, 1.0, total, 1e-12)
	})

	t.Run("excludes zero weights", func(t *testing.T) {
		weights, err := ActiveWeights(map[string]Allocation{
			"A": {Weight: 0.5},
			"B": {Weight: 0.5},
			"C": {Weight: 0},
		})
		require.NoError(t, err)
		assert.Len(t, weights, 2)
		assert.NotContains(t, weights, "C")
	})

	t.Run("no active assets", func(t *testing.T) {
		_, err := ActiveWeights(map[string]Allocation{"A": {Weight: 0}})
		assert.ErrorIs(t, err, ErrInvalidAllocation)
	})
}

func TestCalculatePortfolioScore(t *testing.T) {
	mustScore := func(asset string, distance, sigma float64) Score {
		s, err := CalculateScore(asset, distance, sigma, HorizonWeek)
		require.NoError(t, err)
		return s
	}

	t.Run("weighted average", func(t *testing.T) {
		scores := map[string]Score{
			"A": mustScore("A", 0.04, 0.02), // score 50
			"B": mustScore("B", 0.02, 0.02), // score 75
		}
		allocations := map[string]Allocation{
			"A": {Weight: 0.6},
			"B": {Weight: 0.4},
		}

		ps, err := CalculatePortfolioScore("portfolio", allocations, scores, HorizonWeek)
		require.NoError(t, err)
		assert.InDelta(t, 0.6*50+0.4*75, ps.Value, 1e-12)
		assert.Equal(t, RiskModerate, ps.RiskLevel)
		assert.InDelta(t, 30.0, ps.Contributions["A"], 1e-12)
		assert.InDelta(t, 30.0, ps.Contributions["B"], 1e-12)
	})

	t.Run("single asset round trip", func(t *testing.T) {
		// One asset at weight 1.0 must reproduce that asset's own score
		// exactly.
		asset := mustScore("A", 0.031, 0.017)
		ps, err := CalculatePortfolioScore("portfolio",
			map[string]Allocation{"A": {Weight: 1.0}},
			map[string]Score{"A": asset},
			HorizonWeek,
		)
		require.NoError(t, err)
		assert.Equal(t, asset.Value, ps.Value)
		assert.Equal(t, asset.RiskLevel, ps.RiskLevel)
		assert.Equal(t, asset.DistancePct, ps.DistancePct)
		assert.Equal(t, asset.SigmaHorizon, ps.SigmaHorizon)
	})

	t.Run("missing score for allocated asset", func(t *testing.T) {
		_, err := CalculatePortfolioScore("portfolio",
			map[string]Allocation{"A": {Weight: 1.0}},
			map[string]Score{},
			HorizonWeek,
		)
		assert.ErrorIs(t, err, ErrUnknownAsset)
	})

	t.Run("horizon mismatch rejected", func(t *testing.T) {
		month, err := CalculateScore("A", 0.04, 0.02, HorizonMonth)
		require.NoError(t, err)

		_, err = CalculatePortfolioScore("portfolio",
			map[string]Allocation{"A": {Weight: 1.0}},
			map[string]Score{"A": month},
			HorizonWeek,
		)
		assert.Error(t, err)
	})
}

func TestCalculatePortfolioSeries(t *testing.T) {
	seriesOf := func(prices ...float64) PriceSeries {
		s, err := NewWeeklySeries(prices)
		require.NoError(t, err)
		return s
	}

	t.Run("normalized weighted sum", func(t *testing.T) {
		series := map[string]PriceSeries{
			"A": seriesOf(100, 110),
			"B": seriesOf(50, 45),
		}
		params := map[string]FBISParams{
			"A": {Period: 8, Shift: 0},
			"B": {Period: 8, Shift: 0},
		}
		allocations := map[string]Allocation{
			"A": {Weight: 0.5},
			"B": {Weight: 0.5},
		}

		values, fbis, err := CalculatePortfolioSeries(series, params, allocations)
		require.NoError(t, err)
		require.Len(t, values, 2)
		require.Len(t, fbis, 2)

		// Week 0: both assets normalized to 1.0.
		assert.InDelta(t, 1.0, values[0], 1e-12)
		// Week 1: 0.5*1.10 + 0.5*0.90
		assert.InDelta(t, 1.0, values[1], 1e-12)
		// FBIS with zero shift starts at the EMA seed = first price.
		assert.InDelta(t, 1.0, fbis[0], 1e-12)
	})

	t.Run("length mismatch", func(t *testing.T) {
		series := map[string]PriceSeries{
			"A": seriesOf(100, 110, 120),
			"B": seriesOf(50, 45),
		}
		params := map[string]FBISParams{
			"A": {Period: 8}, "B": {Period: 8},
		}
		allocations := map[string]Allocation{
			"A": {Weight: 0.5}, "B": {Weight: 0.5},
		}
		_, _, err := CalculatePortfolioSeries(series, params, allocations)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("missing series for allocated asset", func(t *testing.T) {
		_, _, err := CalculatePortfolioSeries(
			map[string]PriceSeries{},
			map[string]FBISParams{"A": {Period: 8}},
			map[string]Allocation{"A": {Weight: 1}},
		)
		assert.ErrorIs(t, err, ErrUnknownAsset)
	})
}

func TestCalculateExposure(t *testing.T) {
	allocations := map[string]Allocation{
		"SPY": {Weight: 0.5, AssetClass: "Core Equity"},
		"QQQ": {Weight: 0.3, AssetClass: "Core Equity"},
		"AGG": {Weight: 0.2, AssetClass: "Fixed Income"},
	}
	distances := map[string]float64{
		"SPY": 0.04,
		"QQQ": 0.08,
		"AGG": -0.01,
	}

	exposures, summary, err := CalculateExposure(allocations, distances, 100000)
	require.NoError(t, err)
	require.Len(t, exposures, 3)

	// SPY: position 50000, a fall to support changes value by -4%.
	for _, e := range exposures {
		if e.AssetID == "SPY" {
			assert.InDelta(t, -2000, e.USDAtRisk, 1e-9)
		}
	}

	equity := summary["Core Equity"]
	assert.InDelta(t, 0.8, equity.Weight, 1e-12)
	assert.Equal(t, 2, equity.Count)
	// Weighted average distance: (0.04*0.5 + 0.08*0.3) / 0.8
	assert.InDelta(t, 0.055, equity.AvgDistancePct, 1e-12)

	fixed := summary["Fixed Income"]
	assert.Equal(t, 1, fixed.Count)
	// Below support: the "move to support" is a gain.
	assert.Greater(t, fixed.USDAtRisk, 0.0)
}
