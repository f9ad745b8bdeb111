package satid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// VaR95Multiplier is the one-sided standard-normal quantile at 95% confidence
const VaR95Multiplier = 1.645

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// RiskStatistics are diagnostic probability/VaR figures for one horizon.
// They share the σ_horizon convention with the SATID score but are computed
// independently from it.
type RiskStatistics struct {
	HorizonLabel         string  `json:"horizon"`
	HorizonWeeks         float64 `json:"horizon_weeks"`
	ProbabilityReachFBIS float64 `json:"probability_reach_fbis"`
	VaR95                float64 `json:"var_95"`
}

// CalculateRiskStatistics models the probability of the price reaching FBIS
// within the horizon as a one-sided normal tail probability:
//
//	z    = distance_pct / (σ_weekly × sqrt(horizon_weeks))
//	prob = P(Z > z)     (upper tail, clamped to [0,1])
//
// VaR95 is the percentage move not expected to be exceeded with 95%
// confidence over the horizon: 1.645 × σ_horizon.
func CalculateRiskStatistics(distancePct, sigmaWeekly float64, horizon Horizon) (RiskStatistics, error) {
	if horizon.Weeks <= 0 {
		return RiskStatistics{}, fmt.Errorf("horizon %q has non-positive weeks %v", horizon.Label, horizon.Weeks)
	}

	sigmaHorizon := sigmaWeekly * math.Sqrt(horizon.Weeks)
	if sigmaHorizon == 0 {
		return RiskStatistics{}, fmt.Errorf("zero horizon volatility at %s: %w", horizon.Label, ErrDivisionUndefined)
	}

	z := distancePct / sigmaHorizon
	prob := stdNormal.Survival(z)
	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}

	return RiskStatistics{
		HorizonLabel:         horizon.Label,
		HorizonWeeks:         horizon.Weeks,
		ProbabilityReachFBIS: prob,
		VaR95:                VaR95Multiplier * sigmaHorizon,
	}, nil
}
