// Package performance computes descriptive track-record statistics for a
// portfolio: annualized return and volatility, Sharpe and Sortino ratios,
// drawdown, historical VaR, and a NAV series. These are backward-looking
// diagnostics; forward-looking risk lives in the scoring engine.
package performance

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/satidlabs/satid/internal/modules/satid"
	"github.com/satidlabs/satid/pkg/formulas"
)

const (
	// PeriodsPerYear annualizes weekly observations
	PeriodsPerYear = 52

	// RiskFreeRate is the annual risk-free assumption for Sharpe/Sortino
	RiskFreeRate = 0.02

	// NAVBase indexes the cumulative value series to 100
	NAVBase = 100.0

	// VaRConfidence is the historical VaR confidence level
	VaRConfidence = 0.95
)

// Stats is a portfolio's track record over its weekly return history.
// Sharpe and Sortino are nil when undefined (zero variance, no downside
// observations).
type Stats struct {
	Observations     int       `json:"observations"`
	AnnualizedReturn float64   `json:"annualized_return"`
	AnnualizedVol    float64   `json:"annualized_volatility"`
	SharpeRatio      *float64  `json:"sharpe_ratio"`
	SortinoRatio     *float64  `json:"sortino_ratio"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	WeeksToRecovery  int       `json:"weeks_to_recovery"`
	VaR95Weekly      float64   `json:"var_95_weekly"`
	PositiveWeeksPct float64   `json:"positive_weeks_pct"`
	NAV              []float64 `json:"nav"`
	FinalValue       float64   `json:"final_value"`
}

// Service computes performance statistics
type Service struct {
	log zerolog.Logger
}

// NewService creates a performance service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("component", "performance").Logger(),
	}
}

// PortfolioReturns builds the weekly return series of the weighted portfolio.
// Asset prices are normalized to their first observation before weighting, so
// each asset contributes its relative move, not its price level. All active
// assets must share the same series length.
func PortfolioReturns(series map[string]satid.PriceSeries, allocations map[string]satid.Allocation) ([]float64, error) {
	weights, err := satid.ActiveWeights(allocations)
	if err != nil {
		return nil, err
	}

	length := -1
	for asset := range weights {
		s, ok := series[asset]
		if !ok {
			return nil, fmt.Errorf("allocated asset %s has no price series: %w", asset, satid.ErrUnknownAsset)
		}
		if length < 0 {
			length = s.Len()
		} else if s.Len() != length {
			return nil, fmt.Errorf("price series length mismatch for %s: %d vs %d: %w",
				asset, s.Len(), length, satid.ErrInsufficientData)
		}
	}

	values := make([]float64, length)
	for asset, w := range weights {
		prices := series[asset].Prices()
		base := prices[0]
		for i, p := range prices {
			values[i] += w * p / base
		}
	}

	return satid.CalculateReturns(values)
}

// Calculate computes the full statistics set from weekly portfolio returns
func (s *Service) Calculate(returns []float64) (Stats, error) {
	if len(returns) < 2 {
		return Stats{}, fmt.Errorf("performance stats need at least 2 returns, got %d: %w",
			len(returns), satid.ErrInsufficientData)
	}

	dd := formulas.MaxDrawdown(returns)
	nav := NAV(returns)

	stats := Stats{
		Observations:     len(returns),
		AnnualizedReturn: formulas.AnnualizedReturn(returns, PeriodsPerYear),
		AnnualizedVol:    formulas.AnnualizedVolatility(returns, PeriodsPerYear),
		SharpeRatio:      formulas.SharpeRatio(returns, RiskFreeRate, PeriodsPerYear),
		SortinoRatio:     formulas.SortinoRatio(returns, RiskFreeRate, 0, PeriodsPerYear),
		MaxDrawdown:      dd.MaxDrawdown,
		WeeksToRecovery:  dd.PeriodsToRecovery,
		VaR95Weekly:      formulas.HistoricalVaR(returns, VaRConfidence),
		PositiveWeeksPct: formulas.PositiveShare(returns),
		NAV:              nav,
		FinalValue:       nav[len(nav)-1],
	}

	s.log.Debug().
		Int("observations", stats.Observations).
		Float64("annualized_return", stats.AnnualizedReturn).
		Float64("max_drawdown", stats.MaxDrawdown).
		Msg("Performance statistics computed")

	return stats, nil
}

// NAV compounds weekly returns into a value series indexed to NAVBase.
// The result has one entry per return, NAVBase implicit at index -1.
func NAV(returns []float64) []float64 {
	nav := make([]float64, len(returns))
	value := NAVBase
	for i, r := range returns {
		value *= 1 + r
		nav[i] = value
	}
	return nav
}
