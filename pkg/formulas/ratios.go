package formulas

import (
	"math"
)

// AnnualizedReturn calculates the compound annual growth rate from a series
// of periodic returns.
//
// Formula:
//
//	total = Π(1 + r) - 1
//	CAGR  = (1 + total)^(periodsPerYear/n) - 1
func AnnualizedReturn(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 || periodsPerYear <= 0 {
		return 0
	}

	total := 1.0
	for _, r := range returns {
		total *= 1 + r
	}
	total -= 1

	exponent := float64(periodsPerYear) / float64(len(returns))
	return math.Pow(1+total, exponent) - 1
}

// AnnualizedVolatility scales the sample standard deviation of periodic
// returns by sqrt(periodsPerYear).
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return 0
	}
	return StdDev(returns) * math.Sqrt(float64(periodsPerYear))
}

// SharpeRatio calculates the annualized Sharpe ratio from periodic returns.
//
// Formula:
//
//	Sharpe = (mean return - periodic risk-free rate) / stddev of returns
//	Annualized: Sharpe × sqrt(periodsPerYear)
//
// riskFreeRate is annual (e.g. 0.02 for 2%). Returns nil when there are fewer
// than 2 observations or the return series has zero variance.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return nil
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev
	annualized := sharpe * math.Sqrt(float64(periodsPerYear))
	return &annualized
}

// SortinoRatio calculates the annualized Sortino ratio, which penalizes only
// downside deviation below the minimum acceptable return.
//
// targetReturn is the annual MAR (e.g. 0 or the risk-free rate). Returns nil
// when there is no downside observation or insufficient data.
func SortinoRatio(returns []float64, riskFreeRate, targetReturn float64, periodsPerYear int) *float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return nil
	}

	periodicMAR := targetReturn / float64(periodsPerYear)

	var downsideSquaredSum float64
	downsideCount := 0
	for _, r := range returns {
		if r < periodicMAR {
			deviation := r - periodicMAR
			downsideSquaredSum += deviation * deviation
			downsideCount++
		}
	}
	if downsideCount == 0 {
		return nil
	}

	downsideDeviation := math.Sqrt(downsideSquaredSum / float64(downsideCount))
	if downsideDeviation == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sortino := (Mean(returns) - periodicRiskFree) / downsideDeviation
	annualized := sortino * math.Sqrt(float64(periodsPerYear))
	return &annualized
}
