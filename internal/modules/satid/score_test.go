package satid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name          string
		distance      float64
		sigmaWeekly   float64
		horizon       Horizon
		expectedScore float64
		expectedLevel RiskLevel
		tol           float64
	}{
		{
			name:          "two sigma over one week",
			distance:      0.04,
			sigmaWeekly:   0.02,
			horizon:       HorizonWeek,
			expectedScore: 50,
			expectedLevel: RiskModerate,
			tol:           1e-12,
		},
		{
			name:          "same distance over one month",
			distance:      0.04,
			sigmaWeekly:   0.02,
			horizon:       HorizonMonth,
			expectedScore: 75.97,
			expectedLevel: RiskHigh,
			tol:           0.01,
		},
		{
			name:          "one sigma maps to 75 at any horizon",
			distance:      0.02,
			sigmaWeekly:   0.02,
			horizon:       HorizonWeek,
			expectedScore: 75,
			expectedLevel: RiskHigh,
			tol:           1e-12,
		},
		{
			name:          "at the support line",
			distance:      0,
			sigmaWeekly:   0.02,
			horizon:       HorizonWeek,
			expectedScore: 100,
			expectedLevel: RiskCritical,
			tol:           1e-12,
		},
		{
			name:          "below support clamps to 100",
			distance:      -0.10,
			sigmaWeekly:   0.02,
			horizon:       HorizonWeek,
			expectedScore: 100,
			expectedLevel: RiskCritical,
			tol:           1e-12,
		},
		{
			name:          "far above support clamps to 0",
			distance:      0.50,
			sigmaWeekly:   0.02,
			horizon:       HorizonWeek,
			expectedScore: 0,
			expectedLevel: RiskMinimal,
			tol:           1e-12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := CalculateScore("SPY", tt.distance, tt.sigmaWeekly, tt.horizon)
			require.NoError(t, err)
			assert.InDelta(t, tt.expectedScore, score.Value, tt.tol)
			assert.Equal(t, tt.expectedLevel, score.RiskLevel)
			assert.Equal(t, "SPY", score.AssetID)
			assert.Equal(t, tt.horizon.Label, score.HorizonLabel)
		})
	}
}

func TestCalculateScoreZeroSigma(t *testing.T) {
	// Zero volatility makes the z-score undefined; the scorer must signal,
	// never return a numeric score.
	_, err := CalculateScore("BIL", 0.04, 0, HorizonWeek)
	assert.ErrorIs(t, err, ErrDivisionUndefined)

	// Even at or below the support line.
	_, err = CalculateScore("BIL", -0.02, 0, HorizonWeek)
	assert.ErrorIs(t, err, ErrDivisionUndefined)

	// A NaN sigma is just as undefined as a zero one and must never reach
	// the clamp, which would classify it as MINIMAL.
	_, err = CalculateScore("BIL", 0.04, math.NaN(), HorizonWeek)
	assert.ErrorIs(t, err, ErrDivisionUndefined)
}

func TestScoreMonotonicInDistance(t *testing.T) {
	// Further above FBIS means lower score, holding sigma and horizon fixed.
	prev := 101.0
	for _, distance := range []float64{0.005, 0.01, 0.02, 0.03, 0.05, 0.07} {
		score, err := CalculateScore("QQQ", distance, 0.02, HorizonWeek)
		require.NoError(t, err)
		assert.Less(t, score.Value, prev, "distance %v", distance)
		prev = score.Value
	}
}

func TestScoreHorizonSensitivity(t *testing.T) {
	// Two different horizons must produce two different scores for the same
	// raw distance, as long as neither side of the mapping clamps.
	week, err := CalculateScore("QQQ", 0.04, 0.02, HorizonWeek)
	require.NoError(t, err)
	month, err := CalculateScore("QQQ", 0.04, 0.02, HorizonMonth)
	require.NoError(t, err)
	assert.NotEqual(t, week.Value, month.Value)
	assert.Greater(t, month.Value, week.Value, "longer horizon absorbs more volatility")
}
