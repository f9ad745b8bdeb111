package fbis

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/satidlabs/satid/internal/modules/satid"
)

// Scoring parameters. Breaches are penalized but not disqualifying: a breach
// of a well-placed support line carries signal.
const (
	SupportTestReward = 1.0
	BreachPenalty     = 3.0
	TouchTolerancePct = 2.5

	// MinOptimizationWeeks is the shortest uptrend worth fitting; below it
	// the optimizer falls back to the defaults.
	MinOptimizationWeeks = 10

	DefaultPeriod = 20
	DefaultShift  = -0.05
)

// ParamRange is the constrained grid searched for one asset class
type ParamRange struct {
	PeriodMin, PeriodMax, PeriodStep int
	ShiftMin, ShiftMax               float64
	ShiftStep                        float64
}

// constraintTable maps asset classes to their search grids. Tighter, slower
// classes (investment-grade bonds) sit close to the EMA; volatile classes
// (thematic, emerging) need longer periods and deeper shifts. Shift maxima
// are exclusive up to float representation (see Shifts).
var constraintTable = map[string]ParamRange{
	"large_cap":   {PeriodMin: 18, PeriodMax: 24, PeriodStep: 2, ShiftMin: -0.06, ShiftMax: -0.015, ShiftStep: 0.005},
	"growth_tech": {PeriodMin: 18, PeriodMax: 24, PeriodStep: 2, ShiftMin: -0.07, ShiftMax: -0.015, ShiftStep: 0.005},
	"bond_hy":     {PeriodMin: 16, PeriodMax: 20, PeriodStep: 2, ShiftMin: -0.03, ShiftMax: 0.005, ShiftStep: 0.005},
	"bond_ig":     {PeriodMin: 16, PeriodMax: 20, PeriodStep: 2, ShiftMin: -0.02, ShiftMax: 0.005, ShiftStep: 0.005},
	"sector":      {PeriodMin: 18, PeriodMax: 26, PeriodStep: 2, ShiftMin: -0.08, ShiftMax: -0.015, ShiftStep: 0.005},
	"emerging":    {PeriodMin: 18, PeriodMax: 24, PeriodStep: 2, ShiftMin: -0.10, ShiftMax: -0.025, ShiftStep: 0.005},
	"thematic":    {PeriodMin: 20, PeriodMax: 28, PeriodStep: 2, ShiftMin: -0.12, ShiftMax: -0.025, ShiftStep: 0.005},
}

// ConstraintsFor returns the search grid for an asset class. Unknown classes
// get the large-cap grid.
func ConstraintsFor(assetClass string) ParamRange {
	if r, ok := constraintTable[assetClass]; ok {
		return r
	}
	return constraintTable["large_cap"]
}

// Periods enumerates the grid's EMA periods
func (r ParamRange) Periods() []int {
	var periods []int
	for p := r.PeriodMin; p <= r.PeriodMax; p += r.PeriodStep {
		periods = append(periods, p)
	}
	return periods
}

// Shifts enumerates the grid's vertical shifts: min + k*step for
// k < ceil((max-min)/step). When float representation nudges the quotient
// just above an integer the grid gains a final candidate at the nominal
// maximum; truncating instead would drop shifts the fit must search.
func (r ParamRange) Shifts() []float64 {
	n := int(math.Ceil((r.ShiftMax - r.ShiftMin) / r.ShiftStep))
	shifts := make([]float64, 0, n)
	for k := 0; k < n; k++ {
		shifts = append(shifts, r.ShiftMin+float64(k)*r.ShiftStep)
	}
	return shifts
}

// Result is one asset's fitted parameters with the fit diagnostics
type Result struct {
	AssetID      string           `json:"asset_id"`
	AssetClass   string           `json:"asset_class"`
	Params       satid.FBISParams `json:"params"`
	SupportTests int              `json:"support_tests"`
	Breaches     int              `json:"breaches"`
	Score        float64          `json:"score"`
	TrendStart   int              `json:"trend_start"`
	Defaulted    bool             `json:"defaulted"`
}

// Optimizer grid-searches FBIS parameters over each asset's current uptrend
type Optimizer struct {
	log zerolog.Logger
}

// NewOptimizer creates an optimizer
func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{
		log: log.With().Str("component", "fbis_optimizer").Logger(),
	}
}

// Optimize fits period and shift for one asset from its weekly OHLC history.
// A candidate line earns a point for every support test (the low touches
// within tolerance while the close holds at or above the line) and loses
// three for every breach (close below the line); the highest-scoring pair
// wins. The EMA is computed over the full close history so the line carries
// its pre-trend memory, but only bars from the detected trend start are
// scored. Trends shorter than MinOptimizationWeeks return the defaults.
func (o *Optimizer) Optimize(assetID, assetClass string, highs, lows, closes []float64) (Result, error) {
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return Result{}, fmt.Errorf("asset %s: ohlc series lengths differ (%d/%d/%d): %w",
			assetID, len(highs), len(lows), len(closes), satid.ErrInsufficientData)
	}
	if len(closes) == 0 {
		return Result{}, fmt.Errorf("asset %s: empty price history: %w", assetID, satid.ErrInsufficientData)
	}

	trend := DetectTrendStart(highs, lows, closes)
	start := trend.StartIndex
	weeks := len(closes) - start

	result := Result{
		AssetID:    assetID,
		AssetClass: assetClass,
		TrendStart: start,
	}

	if weeks < MinOptimizationWeeks {
		o.log.Debug().
			Str("asset", assetID).
			Int("trend_weeks", weeks).
			Msg("Trend too short to fit, using default parameters")
		result.Params = satid.FBISParams{Period: DefaultPeriod, Shift: DefaultShift}
		result.Defaulted = true
		return result, nil
	}

	grid := ConstraintsFor(assetClass)
	bestScore := 0.0
	found := false

	for _, period := range grid.Periods() {
		ema, err := satid.CalculateEMA(closes, period)
		if err != nil {
			return Result{}, fmt.Errorf("asset %s: %w", assetID, err)
		}

		for _, shift := range grid.Shifts() {
			tests, breaches := 0, 0
			for i := start; i < len(closes); i++ {
				level := ema[i] * (1 + shift)
				distancePct := (lows[i] - level) / level * 100

				switch {
				case distancePct >= -TouchTolerancePct && distancePct <= TouchTolerancePct:
					// A touch only counts when the close holds the line.
					if closes[i] >= level {
						tests++
					}
				case closes[i] < level:
					breaches++
				}
			}

			score := float64(tests)*SupportTestReward - float64(breaches)*BreachPenalty
			if !found || score > bestScore {
				found = true
				bestScore = score
				result.Params = satid.FBISParams{Period: period, Shift: shift}
				result.SupportTests = tests
				result.Breaches = breaches
				result.Score = score
			}
		}
	}

	o.log.Debug().
		Str("asset", assetID).
		Str("asset_class", assetClass).
		Int("period", result.Params.Period).
		Float64("shift", result.Params.Shift).
		Int("support_tests", result.SupportTests).
		Int("breaches", result.Breaches).
		Float64("score", result.Score).
		Msg("FBIS parameters fitted")

	return result, nil
}

// OptimizeAll fits every asset in the batch, keyed by asset ID
func (o *Optimizer) OptimizeAll(assets map[string]OHLCHistory) (map[string]Result, error) {
	results := make(map[string]Result, len(assets))
	for assetID, h := range assets {
		r, err := o.Optimize(assetID, h.AssetClass, h.Highs, h.Lows, h.Closes)
		if err != nil {
			return nil, err
		}
		results[assetID] = r
	}
	return results, nil
}

// OHLCHistory is one asset's weekly history as parallel slices
type OHLCHistory struct {
	AssetClass string
	Highs      []float64
	Lows       []float64
	Closes     []float64
}
