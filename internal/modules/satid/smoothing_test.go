package satid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateEMA(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		period   int
		expected []float64
		tol      float64
	}{
		{
			name:     "constant series is a fixed point",
			prices:   []float64{50, 50, 50, 50, 50},
			period:   8,
			expected: []float64{50, 50, 50, 50, 50},
			tol:      1e-12,
		},
		{
			name:   "seeded with first observation",
			prices: []float64{10, 20},
			period: 3,
			// k = 2/4 = 0.5; EMA[1] = 20*0.5 + 10*0.5
			expected: []float64{10, 15},
			tol:      1e-12,
		},
		{
			name:   "three observations period 1",
			prices: []float64{10, 20, 30},
			period: 1,
			// k = 1: EMA tracks the price exactly
			expected: []float64{10, 20, 30},
			tol:      1e-12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ema, err := CalculateEMA(tt.prices, tt.period)
			require.NoError(t, err)
			require.Len(t, ema, len(tt.expected))
			for i := range tt.expected {
				assert.InDelta(t, tt.expected[i], ema[i], tt.tol)
			}
		})
	}
}

func TestCalculateEMAErrors(t *testing.T) {
	_, err := CalculateEMA(nil, 8)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = CalculateEMA([]float64{100}, 0)
	assert.Error(t, err)
}

func TestCalculateFBIS(t *testing.T) {
	prices := []float64{100, 100, 100, 100}

	fbis, err := CalculateFBIS(prices, 8, -0.05)
	require.NoError(t, err)
	require.Len(t, fbis, len(prices))
	for _, v := range fbis {
		// FBIS sits 5% below a flat EMA of 100
		assert.InDelta(t, 95.0, v, 1e-12)
	}

	fbis, err = CalculateFBIS(prices, 8, 0)
	require.NoError(t, err)
	for _, v := range fbis {
		assert.InDelta(t, 100.0, v, 1e-12)
	}
}
