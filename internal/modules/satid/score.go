package satid

import (
	"fmt"
	"math"
)

const (
	// WeeksPerMonth is the fixed horizon approximation for one month. It is a
	// configuration constant, not derived from calendar math.
	WeeksPerMonth = 4.33

	// WeeksPerQuarter is the fixed horizon for three months
	WeeksPerQuarter = 13.0

	// PointsPerSigma is the score penalty per horizon-scaled standard
	// deviation of distance above FBIS. A move of exactly 1σ over the chosen
	// horizon always maps to a score of 75, regardless of the horizon.
	PointsPerSigma = 25.0
)

// Horizon is a forward-looking window over which weekly volatility is scaled
type Horizon struct {
	Label string  `json:"label"`
	Weeks float64 `json:"weeks"`
}

// Standard horizons
var (
	HorizonWeek    = Horizon{Label: "1-week", Weeks: 1.0}
	HorizonMonth   = Horizon{Label: "1-month", Weeks: WeeksPerMonth}
	HorizonQuarter = Horizon{Label: "3-month", Weeks: WeeksPerQuarter}
)

// DefaultScoreHorizons returns the horizons scored for every asset
func DefaultScoreHorizons() []Horizon {
	return []Horizon{HorizonWeek, HorizonMonth}
}

// DefaultStatHorizons returns the horizons used for probability/VaR statistics
func DefaultStatHorizons() []Horizon {
	return []Horizon{HorizonWeek, HorizonMonth, HorizonQuarter}
}

// Score is a SATID score record for one asset (or one portfolio) at one
// horizon. Scores are computed fresh per (asset, horizon) pair: the horizon
// changes SigmaHorizon and therefore the score.
type Score struct {
	AssetID      string    `json:"asset_id"`
	HorizonLabel string    `json:"horizon"`
	HorizonWeeks float64   `json:"horizon_weeks"`
	DistancePct  float64   `json:"distance_pct"`
	SigmaWeekly  float64   `json:"sigma_weekly"`
	SigmaHorizon float64   `json:"sigma_horizon"`
	ZScore       float64   `json:"z_score"`
	Value        float64   `json:"score"`
	RiskLevel    RiskLevel `json:"risk_level"`
}

// CalculateScore is the single authoritative SATID scoring function.
//
//	σ_horizon = σ_weekly × sqrt(horizon_weeks)
//	z         = distance_pct / σ_horizon
//	score     = clamp(100 - z×25, 0, 100)
//
// A zero σ_horizon makes the z-score undefined and is surfaced as
// ErrDivisionUndefined; it is never coerced to a numeric score.
func CalculateScore(assetID string, distancePct, sigmaWeekly float64, horizon Horizon) (Score, error) {
	if horizon.Weeks <= 0 {
		return Score{}, fmt.Errorf("horizon %q has non-positive weeks %v", horizon.Label, horizon.Weeks)
	}

	sigmaHorizon := sigmaWeekly * math.Sqrt(horizon.Weeks)
	if sigmaHorizon == 0 || math.IsNaN(sigmaHorizon) {
		return Score{}, fmt.Errorf("undefined horizon volatility %v for %s at %s: %w", sigmaHorizon, assetID, horizon.Label, ErrDivisionUndefined)
	}

	z := distancePct / sigmaHorizon
	value := 100 - z*PointsPerSigma
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	return Score{
		AssetID:      assetID,
		HorizonLabel: horizon.Label,
		HorizonWeeks: horizon.Weeks,
		DistancePct:  distancePct,
		SigmaWeekly:  sigmaWeekly,
		SigmaHorizon: sigmaHorizon,
		ZScore:       z,
		Value:        value,
		RiskLevel:    ClassifyRisk(value),
	}, nil
}
