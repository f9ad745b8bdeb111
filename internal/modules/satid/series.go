// Package satid implements the SATID volatility-adjusted risk scoring engine.
//
// All computations are pure functions over immutable in-memory series. The
// package is the single code path for EMA/FBIS smoothing, return and
// volatility statistics, correlation-aware portfolio volatility, probability
// and VaR statistics, and the score-to-risk-level mapping; every consumer
// (per-asset and per-portfolio reporting) observes identical results for the
// same inputs because there is exactly one implementation of each formula.
package satid

import (
	"fmt"
)

// PriceSeries is an ordered weekly price series for one asset. Period indices
// are strictly increasing and every price is positive. The series is
// immutable once constructed.
type PriceSeries struct {
	periods []int
	prices  []float64
}

// NewPriceSeries validates and constructs a price series from parallel
// period/price slices.
func NewPriceSeries(periods []int, prices []float64) (PriceSeries, error) {
	if len(periods) != len(prices) {
		return PriceSeries{}, fmt.Errorf("periods and prices length mismatch: %d vs %d", len(periods), len(prices))
	}
	for i, p := range prices {
		if p <= 0 {
			return PriceSeries{}, fmt.Errorf("price at period %d must be positive, got %v", periods[i], p)
		}
		if i > 0 && periods[i] <= periods[i-1] {
			return PriceSeries{}, fmt.Errorf("period indices must be strictly increasing: %d after %d", periods[i], periods[i-1])
		}
	}

	ps := PriceSeries{
		periods: make([]int, len(periods)),
		prices:  make([]float64, len(prices)),
	}
	copy(ps.periods, periods)
	copy(ps.prices, prices)
	return ps, nil
}

// NewWeeklySeries constructs a price series with consecutive period indices
// starting at 0. Used when the caller has a gap-free ordered price slice.
func NewWeeklySeries(prices []float64) (PriceSeries, error) {
	periods := make([]int, len(prices))
	for i := range periods {
		periods[i] = i
	}
	return NewPriceSeries(periods, prices)
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s.prices)
}

// Prices returns a copy of the price values in period order
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.prices))
	copy(out, s.prices)
	return out
}

// Periods returns a copy of the period indices
func (s PriceSeries) Periods() []int {
	out := make([]int, len(s.periods))
	copy(out, s.periods)
	return out
}

// Last returns the most recent price. Panics on an empty series; callers
// construct series through NewPriceSeries and check Len first.
func (s PriceSeries) Last() float64 {
	return s.prices[len(s.prices)-1]
}

// Returns computes the simple return series of the price series.
func (s PriceSeries) Returns() ([]float64, error) {
	return CalculateReturns(s.prices)
}

// CalculateReturns computes simple returns from an ordered price slice:
// return[i] = (price[i+1] - price[i]) / price[i]. The result has one fewer
// element than the input.
func CalculateReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("returns require at least 2 prices, got %d: %w", len(prices), ErrInsufficientData)
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			return nil, fmt.Errorf("zero price at index %d: %w", i-1, ErrDivisionUndefined)
		}
		returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return returns, nil
}
