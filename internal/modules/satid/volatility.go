package satid

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultLookbackWeeks is the default volatility lookback window
	DefaultLookbackWeeks = 13

	// MinConfidentReturns is the minimum number of return observations below
	// which a volatility estimate is flagged as low-confidence.
	MinConfidentReturns = 4
)

// VolatilityEstimate is a weekly standard deviation of returns over a
// lookback window, with the number of observations it was estimated from.
type VolatilityEstimate struct {
	Weekly        float64 `json:"weekly"`
	Observations  int     `json:"observations"`
	LowConfidence bool    `json:"low_confidence"`
}

// CalculateVolatility estimates the weekly volatility of an asset from its
// price series: the sample standard deviation (Bessel's correction, n-1
// denominator) of the most recent lookbackWeeks simple returns. When fewer
// returns are available the window shrinks, and estimates from fewer than
// MinConfidentReturns observations are flagged low-confidence. Fewer than 2
// return observations is an error, never a zero estimate.
func CalculateVolatility(prices []float64, lookbackWeeks int) (VolatilityEstimate, error) {
	if lookbackWeeks <= 0 {
		lookbackWeeks = DefaultLookbackWeeks
	}

	// lookbackWeeks returns need lookbackWeeks+1 prices
	window := prices
	if len(prices) > lookbackWeeks+1 {
		window = prices[len(prices)-(lookbackWeeks+1):]
	}

	returns, err := CalculateReturns(window)
	if err != nil {
		return VolatilityEstimate{}, fmt.Errorf("volatility window: %w", err)
	}
	// A single return has no sample deviation (n-1 = 0).
	if len(returns) < 2 {
		return VolatilityEstimate{}, fmt.Errorf("volatility needs at least 2 returns, got %d: %w", len(returns), ErrInsufficientData)
	}

	return VolatilityEstimate{
		Weekly:        stat.StdDev(returns, nil),
		Observations:  len(returns),
		LowConfidence: len(returns) < MinConfidentReturns,
	}, nil
}

// DistancePct computes the relative distance of the current price from the
// FBIS support level: (current - fbis) / current. Positive means the price
// sits above FBIS; this sign convention is fixed across the whole system.
func DistancePct(currentPrice, fbisValue float64) (float64, error) {
	if currentPrice == 0 {
		return 0, fmt.Errorf("distance with zero current price: %w", ErrDivisionUndefined)
	}
	return (currentPrice - fbisValue) / currentPrice, nil
}
