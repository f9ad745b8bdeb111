package fbis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// downtrendFixture is a 30-week series: a peak at week 5 (high 100), a lower
// high at week 13 (high 90), a final low at week 17, then a steady recovery
// that closes above the fitted resistance line at week 19.
func downtrendFixture() (highs, lows, closes []float64) {
	highs = []float64{
		80, 82, 84, 86, 88,
		100,
		88, 86, 84, 82,
		84, 86, 88,
		90,
		86, 84, 82, 80,
		82, 84, 86, 88, 90, 92, 94, 96, 98, 100, 102, 104,
	}
	closes = make([]float64, len(highs))
	lows = make([]float64, len(highs))
	for i, h := range highs {
		closes[i] = h - 1
		lows[i] = h - 2
	}
	return highs, lows, closes
}

func TestFindSwingHighs(t *testing.T) {
	highs, _, _ := downtrendFixture()
	swings := FindSwingHighs(highs, SwingWindow)

	require.Len(t, swings, 2)
	assert.Equal(t, SwingPoint{Index: 5, Price: 100}, swings[0])
	assert.Equal(t, SwingPoint{Index: 13, Price: 90}, swings[1])
}

func TestFindSwingLows(t *testing.T) {
	_, lows, _ := downtrendFixture()
	swings := FindSwingLows(lows, SwingWindow)

	indices := make([]int, len(swings))
	for i, s := range swings {
		indices[i] = s.Index
	}
	assert.Contains(t, indices, 9)
	assert.Contains(t, indices, 17)
}

func TestLowerHighs(t *testing.T) {
	t.Run("descending run", func(t *testing.T) {
		swings := []SwingPoint{{5, 100}, {13, 90}, {20, 85}}
		run := LowerHighs(swings, MinLowerHighs)
		assert.Len(t, run, 3)
	})

	t.Run("ascending highs yield nothing", func(t *testing.T) {
		swings := []SwingPoint{{5, 85}, {13, 90}, {20, 100}}
		assert.Nil(t, LowerHighs(swings, MinLowerHighs))
	})

	t.Run("run stops at a higher high", func(t *testing.T) {
		swings := []SwingPoint{{5, 100}, {13, 90}, {20, 95}, {27, 80}}
		run := LowerHighs(swings, MinLowerHighs)
		require.Len(t, run, 2)
		assert.Equal(t, 100.0, run[0].Price)
		assert.Equal(t, 90.0, run[1].Price)
	})
}

func TestFitDowntrendLine(t *testing.T) {
	t.Run("exact line", func(t *testing.T) {
		line, ok := FitDowntrendLine([]SwingPoint{{5, 100}, {13, 90}})
		require.True(t, ok)
		assert.InDelta(t, -1.25, line.Slope, 1e-12)
		assert.InDelta(t, 100.0, line.Intercept, 1e-12)
		assert.InDelta(t, 1.0, line.RSquared, 1e-9)
		assert.InDelta(t, 100.0, line.ResistanceAt(5), 1e-12)
		assert.InDelta(t, 82.5, line.ResistanceAt(19), 1e-12)
	})

	t.Run("too few points", func(t *testing.T) {
		_, ok := FitDowntrendLine([]SwingPoint{{5, 100}})
		assert.False(t, ok)
	})
}

func TestDetectBreakout(t *testing.T) {
	_, _, closes := downtrendFixture()
	line, ok := FitDowntrendLine([]SwingPoint{{5, 100}, {13, 90}})
	require.True(t, ok)

	breakout, found := DetectBreakout(closes, line, 13)
	require.True(t, found)
	// Week 19 closes at 83 against resistance 82.5; all earlier weeks stay
	// below the line.
	assert.Equal(t, 19, breakout.Index)
	assert.Equal(t, 83.0, breakout.Price)
}

func TestConfirmHigherLow(t *testing.T) {
	_, lows, _ := downtrendFixture()
	breakout := SwingPoint{Index: 19, Price: 83}

	t.Run("pullback holds above pre-breakout low", func(t *testing.T) {
		idx, confirmed := ConfirmHigherLow(lows, breakout, SwingPoint{Index: 17, Price: 78}, ConfirmationWeeks)
		require.True(t, confirmed)
		assert.Equal(t, 20, idx)
	})

	t.Run("pullback undercuts", func(t *testing.T) {
		_, confirmed := ConfirmHigherLow(lows, breakout, SwingPoint{Index: 17, Price: 95}, ConfirmationWeeks)
		assert.False(t, confirmed)
	})

	t.Run("no bars after breakout", func(t *testing.T) {
		late := SwingPoint{Index: len(lows) - 1, Price: 100}
		_, confirmed := ConfirmHigherLow(lows, late, SwingPoint{Index: 17, Price: 78}, ConfirmationWeeks)
		assert.False(t, confirmed)
	})
}

func TestDetectTrendStart(t *testing.T) {
	t.Run("confirmed breakout", func(t *testing.T) {
		highs, lows, closes := downtrendFixture()
		trend := DetectTrendStart(highs, lows, closes)

		require.NotNil(t, trend.Breakout)
		assert.Equal(t, 19, trend.Breakout.Index)
		assert.True(t, trend.Confirmed)
		// Confirmed trends start at the pullback low.
		assert.Equal(t, 20, trend.StartIndex)
	})

	t.Run("falls back to lowest close", func(t *testing.T) {
		// A monotone rise never forms a lower-highs structure.
		n := 30
		highs := make([]float64, n)
		lows := make([]float64, n)
		closes := make([]float64, n)
		for i := 0; i < n; i++ {
			closes[i] = 100 + float64(i)
			highs[i] = closes[i] + 1
			lows[i] = closes[i] - 1
		}
		trend := DetectTrendStart(highs, lows, closes)
		assert.Equal(t, 0, trend.StartIndex)
		assert.Nil(t, trend.Breakout)
		assert.False(t, trend.Confirmed)
	})
}
