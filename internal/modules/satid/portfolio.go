package satid

import (
	"fmt"
	"sort"
)

// Allocation is one asset's portfolio weight and asset-class label
type Allocation struct {
	Weight     float64 `json:"weight"`
	AssetClass string  `json:"asset_class"`
}

// ValidateAllocations rejects weights outside [0,1]. Assets with a zero
// weight are legal: they are excluded from portfolio-level figures but may
// still be scored individually.
func ValidateAllocations(allocations map[string]Allocation) error {
	for asset, alloc := range allocations {
		if alloc.Weight < 0 || alloc.Weight > 1 {
			return fmt.Errorf("asset %s weight %v outside [0,1]: %w", asset, alloc.Weight, ErrInvalidAllocation)
		}
	}
	return nil
}

// ActiveWeights returns the strictly positive weights, normalized so they sum
// to exactly 1. Normalization absorbs floating-point residue in allocation
// tables that nominally sum to 1.
func ActiveWeights(allocations map[string]Allocation) (map[string]float64, error) {
	if err := ValidateAllocations(allocations); err != nil {
		return nil, err
	}

	total := 0.0
	active := make(map[string]float64)
	for asset, alloc := range allocations {
		if alloc.Weight > 0 {
			active[asset] = alloc.Weight
			total += alloc.Weight
		}
	}
	if len(active) == 0 || total <= 0 {
		return nil, fmt.Errorf("no active allocations: %w", ErrInvalidAllocation)
	}

	for asset := range active {
		active[asset] /= total
	}
	return active, nil
}

// PortfolioScore is the weight-averaged SATID score over all allocated assets
// for one horizon. Contributions records each asset's weight × score term.
type PortfolioScore struct {
	Score
	Contributions map[string]float64 `json:"contributions"`
}

// CalculatePortfolioScore aggregates per-asset scores into one portfolio
// score for a fixed horizon: Σ weight_i × score_i over allocated assets.
// This is a direct weighted average of already-computed scores; it never
// re-derives a z-score from portfolio-level distance. The record's distance,
// sigma, and z fields are weight-averaged diagnostics of the components.
func CalculatePortfolioScore(portfolioID string, allocations map[string]Allocation, scores map[string]Score, horizon Horizon) (PortfolioScore, error) {
	weights, err := ActiveWeights(allocations)
	if err != nil {
		return PortfolioScore{}, err
	}

	assets := make([]string, 0, len(weights))
	for asset := range weights {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	var value, distance, sigmaW, sigmaH, z float64
	contributions := make(map[string]float64, len(assets))
	for _, asset := range assets {
		score, ok := scores[asset]
		if !ok {
			return PortfolioScore{}, fmt.Errorf("allocated asset %s has no score: %w", asset, ErrUnknownAsset)
		}
		if score.HorizonLabel != horizon.Label {
			return PortfolioScore{}, fmt.Errorf("score for %s computed at horizon %s, want %s", asset, score.HorizonLabel, horizon.Label)
		}

		w := weights[asset]
		contribution := w * score.Value
		contributions[asset] = contribution
		value += contribution
		distance += w * score.DistancePct
		sigmaW += w * score.SigmaWeekly
		sigmaH += w * score.SigmaHorizon
		z += w * score.ZScore
	}

	return PortfolioScore{
		Score: Score{
			AssetID:      portfolioID,
			HorizonLabel: horizon.Label,
			HorizonWeeks: horizon.Weeks,
			DistancePct:  distance,
			SigmaWeekly:  sigmaW,
			SigmaHorizon: sigmaH,
			ZScore:       z,
			Value:        value,
			RiskLevel:    ClassifyRisk(value),
		},
		Contributions: contributions,
	}, nil
}

// CalculatePortfolioSeries builds the normalized portfolio value and
// portfolio FBIS series from per-asset prices and smoothing parameters:
//
//	value[i] = Σ weight_a × price_a[i] / price_a[0]
//	fbis[i]  = Σ weight_a × FBIS_a[i]  / price_a[0]
//
// All active assets must have price series of identical length; the loader
// collaborator resolves gaps before handoff.
func CalculatePortfolioSeries(series map[string]PriceSeries, params map[string]FBISParams, allocations map[string]Allocation) (values, fbis []float64, err error) {
	weights, err := ActiveWeights(allocations)
	if err != nil {
		return nil, nil, err
	}

	assets := make([]string, 0, len(weights))
	for asset := range weights {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	length := -1
	for _, asset := range assets {
		s, ok := series[asset]
		if !ok {
			return nil, nil, fmt.Errorf("allocated asset %s has no price series: %w", asset, ErrUnknownAsset)
		}
		if s.Len() == 0 {
			return nil, nil, fmt.Errorf("allocated asset %s has empty price series: %w", asset, ErrInsufficientData)
		}
		if length < 0 {
			length = s.Len()
		} else if s.Len() != length {
			return nil, nil, fmt.Errorf("price series length mismatch for %s: %d vs %d: %w", asset, s.Len(), length, ErrInsufficientData)
		}
	}

	values = make([]float64, length)
	fbis = make([]float64, length)
	for _, asset := range assets {
		p, ok := params[asset]
		if !ok {
			return nil, nil, fmt.Errorf("allocated asset %s has no fbis parameters: %w", asset, ErrUnknownAsset)
		}

		prices := series[asset].Prices()
		assetFBIS, err := CalculateFBIS(prices, p.Period, p.Shift)
		if err != nil {
			return nil, nil, fmt.Errorf("fbis for %s: %w", asset, err)
		}

		w := weights[asset]
		base := prices[0]
		for i := 0; i < length; i++ {
			values[i] += w * prices[i] / base
			fbis[i] += w * assetFBIS[i] / base
		}
	}
	return values, fbis, nil
}

// AssetExposure is one allocated asset's distance-to-support exposure
type AssetExposure struct {
	AssetID     string  `json:"asset_id"`
	AssetClass  string  `json:"asset_class"`
	Weight      float64 `json:"weight"`
	DistancePct float64 `json:"distance_pct"`
	USDAtRisk   float64 `json:"usd_at_risk"`
}

// AssetClassSummary aggregates exposure over one asset class
type AssetClassSummary struct {
	Weight         float64 `json:"weight"`
	AvgDistancePct float64 `json:"avg_distance_pct"`
	USDAtRisk      float64 `json:"usd_at_risk"`
	Count          int     `json:"count"`
}

// CalculateExposure rolls per-asset distances up by asset class using weight
// sums. It re-weights already-computed distances and never re-derives
// volatility. USDAtRisk is the signed value change of a move to support:
// position value × (-distance), negative when the price is above FBIS.
func CalculateExposure(allocations map[string]Allocation, distances map[string]float64, portfolioValue float64) ([]AssetExposure, map[string]AssetClassSummary, error) {
	weights, err := ActiveWeights(allocations)
	if err != nil {
		return nil, nil, err
	}

	assets := make([]string, 0, len(weights))
	for asset := range weights {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	exposures := make([]AssetExposure, 0, len(assets))
	summary := make(map[string]AssetClassSummary)
	for _, asset := range assets {
		distance, ok := distances[asset]
		if !ok {
			return nil, nil, fmt.Errorf("allocated asset %s has no distance: %w", asset, ErrUnknownAsset)
		}

		w := weights[asset]
		class := allocations[asset].AssetClass
		if class == "" {
			class = "Unknown"
		}
		positionValue := portfolioValue * w

		exposures = append(exposures, AssetExposure{
			AssetID:     asset,
			AssetClass:  class,
			Weight:      w,
			DistancePct: distance,
			USDAtRisk:   positionValue * -distance,
		})

		s := summary[class]
		s.Weight += w
		s.AvgDistancePct += distance * w // weight-sum first, divided below
		s.USDAtRisk += positionValue * -distance
		s.Count++
		summary[class] = s
	}

	for class, s := range summary {
		if s.Weight > 0 {
			s.AvgDistancePct /= s.Weight
		}
		summary[class] = s
	}
	return exposures, summary, nil
}
