package satid

import (
	"fmt"
)

// FBISParams holds the per-asset smoothing parameters for the FBIS support
// line: the EMA period and the signed vertical shift applied to it
// (e.g. -0.05 places FBIS 5% below the EMA).
type FBISParams struct {
	Period int     `json:"period"`
	Shift  float64 `json:"shift"`
}

// Validate checks the parameters are usable
func (p FBISParams) Validate() error {
	if p.Period <= 0 {
		return fmt.Errorf("ema period must be positive, got %d", p.Period)
	}
	return nil
}

// CalculateEMA computes the exponential moving average of a price series.
//
// Formula:
//
//	k      = 2 / (period + 1)
//	EMA[0] = prices[0]
//	EMA[i] = prices[i]*k + EMA[i-1]*(1-k)
//
// The series is seeded with the first observation, not an SMA warmup, so the
// output is aligned 1:1 with the input and defined from index 0.
func CalculateEMA(prices []float64, period int) ([]float64, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("ema of empty series: %w", ErrInsufficientData)
	}
	if period <= 0 {
		return nil, fmt.Errorf("ema period must be positive, got %d", period)
	}

	k := 2.0 / (float64(period) + 1)
	ema := make([]float64, len(prices))
	ema[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		ema[i] = prices[i]*k + ema[i-1]*(1-k)
	}
	return ema, nil
}

// CalculateFBIS computes the FBIS support series: FBIS[i] = EMA[i]*(1+shift).
// One value per input price, aligned by index.
func CalculateFBIS(prices []float64, period int, shift float64) ([]float64, error) {
	ema, err := CalculateEMA(prices, period)
	if err != nil {
		return nil, err
	}

	fbis := make([]float64, len(ema))
	for i, v := range ema {
		fbis[i] = v * (1 + shift)
	}
	return fbis, nil
}
