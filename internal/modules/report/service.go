// Package report assembles the full risk report: per-asset analyses,
// portfolio-level scores and statistics, and the performance track record,
// snapshotted under a run ID. The latest report is cached so HTTP reads
// never trigger recomputation.
package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/satidlabs/satid/internal/modules/performance"
	"github.com/satidlabs/satid/internal/modules/satid"
)

// PriceSource provides validated price history
type PriceSource interface {
	GetPriceSeries(assetID string) (satid.PriceSeries, error)
}

// AllocationSource provides the portfolio allocation table
type AllocationSource interface {
	GetAllocations(portfolioID string) (map[string]satid.Allocation, error)
}

// ParamsSource provides fitted FBIS parameters
type ParamsSource interface {
	GetAllParams() (map[string]satid.FBISParams, error)
}

// Report is one complete analysis run
type Report struct {
	RunID       uuid.UUID                      `json:"run_id"`
	GeneratedAt time.Time                      `json:"generated_at"`
	PortfolioID string                         `json:"portfolio_id"`
	Assets      map[string]satid.AssetAnalysis `json:"assets"`
	Portfolio   satid.PortfolioAnalysis        `json:"portfolio"`
	Performance performance.Stats              `json:"performance"`
}

// Service generates and caches reports
type Service struct {
	prices         PriceSource
	allocations    AllocationSource
	params         ParamsSource
	engine         *satid.Engine
	perf           *performance.Service
	portfolioID    string
	portfolioValue float64
	log            zerolog.Logger

	mu     sync.RWMutex
	latest *Report
}

// NewService creates a report service
func NewService(
	prices PriceSource,
	allocations AllocationSource,
	params ParamsSource,
	engine *satid.Engine,
	perf *performance.Service,
	portfolioID string,
	portfolioValue float64,
	log zerolog.Logger,
) *Service {
	return &Service{
		prices:         prices,
		allocations:    allocations,
		params:         params,
		engine:         engine,
		perf:           perf,
		portfolioID:    portfolioID,
		portfolioValue: portfolioValue,
		log:            log.With().Str("component", "report").Logger(),
	}
}

// Generate runs a full analysis and caches the result. Every asset in the
// allocation table is analyzed individually, zero-weight assets included;
// portfolio-level figures cover only the active weights.
func (s *Service) Generate() (*Report, error) {
	started := time.Now()

	allocations, err := s.allocations.GetAllocations(s.portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	if len(allocations) == 0 {
		return nil, fmt.Errorf("portfolio %s has no allocations: %w", s.portfolioID, satid.ErrInvalidAllocation)
	}

	params, err := s.params.GetAllParams()
	if err != nil {
		return nil, fmt.Errorf("failed to load fbis params: %w", err)
	}

	series := make(map[string]satid.PriceSeries, len(allocations))
	for asset := range allocations {
		ps, err := s.prices.GetPriceSeries(asset)
		if err != nil {
			return nil, err
		}
		series[asset] = ps
	}

	analyses, err := s.engine.AnalyzeAssets(series, params)
	if err != nil {
		return nil, err
	}

	// Portfolio-level math needs every active asset on the same weekly
	// grid, so the series are aligned to the shortest common tail.
	aligned, err := alignToCommonTail(series, allocations)
	if err != nil {
		return nil, err
	}

	portfolio, err := s.engine.AnalyzePortfolio(s.portfolioID, aligned, params, allocations, analyses, s.portfolioValue)
	if err != nil {
		return nil, err
	}

	returns, err := performance.PortfolioReturns(aligned, allocations)
	if err != nil {
		return nil, err
	}
	perfStats, err := s.perf.Calculate(returns)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:       uuid.New(),
		GeneratedAt: time.Now().UTC(),
		PortfolioID: s.portfolioID,
		Assets:      analyses,
		Portfolio:   portfolio,
		Performance: perfStats,
	}

	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()

	s.log.Info().
		Str("run_id", report.RunID.String()).
		Int("assets", len(analyses)).
		Dur("elapsed", time.Since(started)).
		Msg("Report generated")

	return report, nil
}

// Latest returns the cached report, or false when none has been generated
func (s *Service) Latest() (*Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

// alignToCommonTail truncates every active asset's series to the shortest
// shared history, keeping the most recent observations.
func alignToCommonTail(series map[string]satid.PriceSeries, allocations map[string]satid.Allocation) (map[string]satid.PriceSeries, error) {
	weights, err := satid.ActiveWeights(allocations)
	if err != nil {
		return nil, err
	}

	shortest := -1
	for asset := range weights {
		s, ok := series[asset]
		if !ok {
			return nil, fmt.Errorf("allocated asset %s has no price series: %w", asset, satid.ErrUnknownAsset)
		}
		if shortest < 0 || s.Len() < shortest {
			shortest = s.Len()
		}
	}

	aligned := make(map[string]satid.PriceSeries, len(weights))
	for asset := range weights {
		prices := series[asset].Prices()
		tail, err := satid.NewWeeklySeries(prices[len(prices)-shortest:])
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset, err)
		}
		aligned[asset] = tail
	}
	return aligned, nil
}
