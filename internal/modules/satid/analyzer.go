package satid

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// AssetAnalysis is the full per-asset engine output: smoothing, distance,
// volatility, one score per configured horizon, and probability/VaR
// statistics per statistics horizon.
type AssetAnalysis struct {
	AssetID      string             `json:"asset_id"`
	CurrentPrice float64            `json:"current_price"`
	FBIS         float64            `json:"fbis"`
	DistancePct  float64            `json:"distance_pct"`
	Volatility   VolatilityEstimate `json:"volatility"`
	Scores       []Score            `json:"scores"`
	RiskStats    []RiskStatistics   `json:"risk_stats"`
}

// ScoreAt returns the analysis score for a horizon label
func (a AssetAnalysis) ScoreAt(horizonLabel string) (Score, bool) {
	for _, s := range a.Scores {
		if s.HorizonLabel == horizonLabel {
			return s, true
		}
	}
	return Score{}, false
}

// PortfolioAnalysis is the portfolio-level engine output. Score aggregation
// (weighted average of per-asset scores) and volatility aggregation (MPT
// w'Σw) are independent computations that share inputs; the MPT volatility
// feeds only the portfolio's own risk statistics, never its score.
type PortfolioAnalysis struct {
	PortfolioID  string                       `json:"portfolio_id"`
	Scores       []PortfolioScore             `json:"scores"`
	Volatility   float64                      `json:"volatility_weekly"`
	Correlations *CorrelationMatrix           `json:"-"`
	DistancePct  float64                      `json:"distance_pct"`
	RiskStats    []RiskStatistics             `json:"risk_stats"`
	Exposure     []AssetExposure              `json:"exposure"`
	ClassSummary map[string]AssetClassSummary `json:"class_summary"`
}

// Engine computes SATID analyses. It is stateless: every computation takes
// explicit parameters and identical inputs always produce identical outputs,
// for every caller.
type Engine struct {
	lookbackWeeks int
	scoreHorizons []Horizon
	statHorizons  []Horizon
	log           zerolog.Logger
}

// NewEngine creates an engine with the given volatility lookback and horizon
// sets. Zero or nil arguments select the defaults (13 weeks; 1-week and
// 1-month score horizons; 1-week, 1-month and 3-month statistics horizons).
func NewEngine(lookbackWeeks int, scoreHorizons, statHorizons []Horizon, log zerolog.Logger) *Engine {
	if lookbackWeeks <= 0 {
		lookbackWeeks = DefaultLookbackWeeks
	}
	if len(scoreHorizons) == 0 {
		scoreHorizons = DefaultScoreHorizons()
	}
	if len(statHorizons) == 0 {
		statHorizons = DefaultStatHorizons()
	}
	return &Engine{
		lookbackWeeks: lookbackWeeks,
		scoreHorizons: scoreHorizons,
		statHorizons:  statHorizons,
		log:           log.With().Str("component", "satid_engine").Logger(),
	}
}

// ScoreHorizons returns the configured scoring horizons
func (e *Engine) ScoreHorizons() []Horizon {
	out := make([]Horizon, len(e.scoreHorizons))
	copy(out, e.scoreHorizons)
	return out
}

// AnalyzeAsset computes the full analysis for one asset: FBIS from the EMA of
// the entire price history, distance of the latest close from it, windowed
// volatility, and a score plus risk statistics per horizon.
func (e *Engine) AnalyzeAsset(assetID string, series PriceSeries, params FBISParams) (AssetAnalysis, error) {
	if series.Len() == 0 {
		return AssetAnalysis{}, fmt.Errorf("asset %s: empty price series: %w", assetID, ErrInsufficientData)
	}
	if err := params.Validate(); err != nil {
		return AssetAnalysis{}, fmt.Errorf("asset %s: %w", assetID, err)
	}

	prices := series.Prices()
	fbisSeries, err := CalculateFBIS(prices, params.Period, params.Shift)
	if err != nil {
		return AssetAnalysis{}, fmt.Errorf("asset %s: %w", assetID, err)
	}

	current := prices[len(prices)-1]
	fbis := fbisSeries[len(fbisSeries)-1]
	distance, err := DistancePct(current, fbis)
	if err != nil {
		return AssetAnalysis{}, fmt.Errorf("asset %s: %w", assetID, err)
	}

	vol, err := CalculateVolatility(prices, e.lookbackWeeks)
	if err != nil {
		return AssetAnalysis{}, fmt.Errorf("asset %s: %w", assetID, err)
	}

	scores := make([]Score, 0, len(e.scoreHorizons))
	for _, h := range e.scoreHorizons {
		score, err := CalculateScore(assetID, distance, vol.Weekly, h)
		if err != nil {
			return AssetAnalysis{}, err
		}
		scores = append(scores, score)
	}

	stats := make([]RiskStatistics, 0, len(e.statHorizons))
	for _, h := range e.statHorizons {
		rs, err := CalculateRiskStatistics(distance, vol.Weekly, h)
		if err != nil {
			return AssetAnalysis{}, fmt.Errorf("asset %s: %w", assetID, err)
		}
		stats = append(stats, rs)
	}

	return AssetAnalysis{
		AssetID:      assetID,
		CurrentPrice: current,
		FBIS:         fbis,
		DistancePct:  distance,
		Volatility:   vol,
		Scores:       scores,
		RiskStats:    stats,
	}, nil
}

// AnalyzeAssets analyzes all assets concurrently. Per-asset scoring has no
// cross-asset data dependency, so the fan-out is safe; results are collected
// under a mutex and the first error aborts the batch.
func (e *Engine) AnalyzeAssets(series map[string]PriceSeries, params map[string]FBISParams) (map[string]AssetAnalysis, error) {
	assets := make([]string, 0, len(series))
	for asset := range series {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	analyses := make(map[string]AssetAnalysis, len(assets))

	for _, asset := range assets {
		wg.Add(1)
		go func(asset string) {
			defer wg.Done()

			p, ok := params[asset]
			if !ok {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("asset %s has no fbis parameters: %w", asset, ErrUnknownAsset)
				}
				mu.Unlock()
				return
			}

			analysis, err := e.AnalyzeAsset(asset, series[asset], p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			analyses[asset] = analysis
		}(asset)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return analyses, nil
}

// AnalyzePortfolio computes portfolio-level scores, MPT volatility, risk
// statistics, and asset-class exposure from per-asset analyses. The
// correlation matrix requires all active assets' return series
// simultaneously, so it is computed after the per-asset fan-out completes.
func (e *Engine) AnalyzePortfolio(
	portfolioID string,
	series map[string]PriceSeries,
	params map[string]FBISParams,
	allocations map[string]Allocation,
	analyses map[string]AssetAnalysis,
	portfolioValue float64,
) (PortfolioAnalysis, error) {
	weights, err := ActiveWeights(allocations)
	if err != nil {
		return PortfolioAnalysis{}, err
	}

	// Weighted average of already-computed per-asset scores, one per horizon.
	scores := make([]PortfolioScore, 0, len(e.scoreHorizons))
	for _, h := range e.scoreHorizons {
		horizonScores := make(map[string]Score, len(weights))
		for asset := range weights {
			analysis, ok := analyses[asset]
			if !ok {
				return PortfolioAnalysis{}, fmt.Errorf("allocated asset %s has no analysis: %w", asset, ErrUnknownAsset)
			}
			score, ok := analysis.ScoreAt(h.Label)
			if !ok {
				return PortfolioAnalysis{}, fmt.Errorf("asset %s has no score at horizon %s: %w", asset, h.Label, ErrUnknownAsset)
			}
			horizonScores[asset] = score
		}
		ps, err := CalculatePortfolioScore(portfolioID, allocations, horizonScores, h)
		if err != nil {
			return PortfolioAnalysis{}, err
		}
		scores = append(scores, ps)
	}

	// Correlation-aware volatility over the active assets' return series.
	returnsByAsset := make(map[string][]float64, len(weights))
	volatilities := make(map[string]float64, len(weights))
	for asset := range weights {
		s, ok := series[asset]
		if !ok {
			return PortfolioAnalysis{}, fmt.Errorf("allocated asset %s has no price series: %w", asset, ErrUnknownAsset)
		}
		returns, err := s.Returns()
		if err != nil {
			return PortfolioAnalysis{}, fmt.Errorf("asset %s: %w", asset, err)
		}
		returnsByAsset[asset] = returns
		volatilities[asset] = analyses[asset].Volatility.Weekly
	}

	corr, err := CalculateCorrelationMatrix(returnsByAsset)
	if err != nil {
		return PortfolioAnalysis{}, err
	}
	portfolioVol, err := CalculatePortfolioVolatility(weights, volatilities, corr)
	if err != nil {
		return PortfolioAnalysis{}, err
	}

	// Portfolio distance from the normalized value/FBIS series.
	values, fbisSeries, err := CalculatePortfolioSeries(series, params, allocations)
	if err != nil {
		return PortfolioAnalysis{}, err
	}
	distance, err := DistancePct(values[len(values)-1], fbisSeries[len(fbisSeries)-1])
	if err != nil {
		return PortfolioAnalysis{}, err
	}

	stats := make([]RiskStatistics, 0, len(e.statHorizons))
	for _, h := range e.statHorizons {
		rs, err := CalculateRiskStatistics(distance, portfolioVol, h)
		if err != nil {
			return PortfolioAnalysis{}, fmt.Errorf("portfolio %s: %w", portfolioID, err)
		}
		stats = append(stats, rs)
	}

	distances := make(map[string]float64, len(weights))
	for asset := range weights {
		distances[asset] = analyses[asset].DistancePct
	}
	exposure, classSummary, err := CalculateExposure(allocations, distances, portfolioValue)
	if err != nil {
		return PortfolioAnalysis{}, err
	}

	e.log.Debug().
		Str("portfolio", portfolioID).
		Int("active_assets", len(weights)).
		Float64("volatility_weekly", portfolioVol).
		Float64("distance_pct", distance).
		Msg("Portfolio analysis complete")

	return PortfolioAnalysis{
		PortfolioID:  portfolioID,
		Scores:       scores,
		Volatility:   portfolioVol,
		Correlations: corr,
		DistancePct:  distance,
		RiskStats:    stats,
		Exposure:     exposure,
		ClassSummary: classSummary,
	}, nil
}
