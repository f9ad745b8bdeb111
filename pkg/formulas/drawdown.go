package formulas

// Drawdown describes the deepest peak-to-trough decline of a cumulative
// value series built from periodic returns.
type Drawdown struct {
	MaxDrawdown       float64 // Deepest decline as a negative fraction
	TroughIndex       int     // Return index at the trough
	PeriodsToRecovery int     // Periods from trough back to the prior peak, -1 if never recovered
}

// MaxDrawdown computes the maximum drawdown of the compounded value series
// 1, (1+r0), (1+r0)(1+r1), ... and the time taken to recover the prior peak.
func MaxDrawdown(returns []float64) Drawdown {
	if len(returns) == 0 {
		return Drawdown{PeriodsToRecovery: -1}
	}

	cumulative := make([]float64, len(returns))
	value := 1.0
	for i, r := range returns {
		value *= 1 + r
		cumulative[i] = value
	}

	runningMax := cumulative[0]
	maxDD := 0.0
	troughIdx := 0
	peakValue := runningMax

	for i, v := range cumulative {
		if v > runningMax {
			runningMax = v
		}
		dd := (v - runningMax) / runningMax
		if dd < maxDD {
			maxDD = dd
			troughIdx = i
			peakValue = runningMax
		}
	}

	recovery := -1
	for i := troughIdx + 1; i < len(cumulative); i++ {
		if cumulative[i] >= peakValue {
			recovery = i - troughIdx
			break
		}
	}

	return Drawdown{
		MaxDrawdown:       maxDD,
		TroughIndex:       troughIdx,
		PeriodsToRecovery: recovery,
	}
}
