// Package fbis finds the FBIS smoothing parameters (EMA period and vertical
// shift) that best describe an asset's support behavior. Parameters are fitted
// over the current uptrend only, so the package also detects where that trend
// began: a breakout above the downtrend resistance line, optionally confirmed
// by a higher low.
package fbis

import (
	"gonum.org/v1/gonum/stat"
)

const (
	// SwingWindow is the number of bars on each side a local extreme must
	// dominate to count as a swing point.
	SwingWindow = 4

	// MinLowerHighs is the minimum run length for a lower-highs sequence.
	MinLowerHighs = 2

	// ConfirmationWeeks bounds the window after a breakout in which a
	// higher low confirms the trend change.
	ConfirmationWeeks = 12
)

// SwingPoint is a local price extreme at a weekly bar index
type SwingPoint struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
}

// FindSwingHighs returns the local maxima of the high series: bars whose high
// equals the maximum over the surrounding window on both sides.
func FindSwingHighs(highs []float64, window int) []SwingPoint {
	var swings []SwingPoint
	for i := window; i < len(highs)-window; i++ {
		max := highs[i-window]
		for j := i - window + 1; j <= i+window; j++ {
			if highs[j] > max {
				max = highs[j]
			}
		}
		if highs[i] == max {
			swings = append(swings, SwingPoint{Index: i, Price: highs[i]})
		}
	}
	return swings
}

// FindSwingLows returns the local minima of the low series
func FindSwingLows(lows []float64, window int) []SwingPoint {
	var swings []SwingPoint
	for i := window; i < len(lows)-window; i++ {
		min := lows[i-window]
		for j := i - window + 1; j <= i+window; j++ {
			if lows[j] < min {
				min = lows[j]
			}
		}
		if lows[i] == min {
			swings = append(swings, SwingPoint{Index: i, Price: lows[i]})
		}
	}
	return swings
}

// LowerHighs extracts the longest strictly descending run of swing highs. Each
// candidate run starts at one swing high and extends while every next swing
// high is below the previous one; runs shorter than minHighs are discarded.
func LowerHighs(swingHighs []SwingPoint, minHighs int) []SwingPoint {
	if len(swingHighs) < minHighs {
		return nil
	}

	var best []SwingPoint
	for start := 0; start < len(swingHighs)-1; start++ {
		run := []SwingPoint{swingHighs[start]}
		for j := start + 1; j < len(swingHighs); j++ {
			if swingHighs[j].Price < run[len(run)-1].Price {
				run = append(run, swingHighs[j])
			} else {
				break
			}
		}
		if len(run) >= minHighs && len(run) > len(best) {
			best = run
		}
	}
	return best
}

// DowntrendLine is the linear resistance fitted through a lower-highs run.
// X coordinates are bar offsets from the run's first swing high.
type DowntrendLine struct {
	Origin    int     `json:"origin"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// FitDowntrendLine fits resistance through the lower highs by least squares.
// Returns false when fewer than two points are available.
func FitDowntrendLine(lowerHighs []SwingPoint) (DowntrendLine, bool) {
	if len(lowerHighs) < 2 {
		return DowntrendLine{}, false
	}

	origin := lowerHighs[0].Index
	xs := make([]float64, len(lowerHighs))
	ys := make([]float64, len(lowerHighs))
	for i, h := range lowerHighs {
		xs[i] = float64(h.Index - origin)
		ys[i] = h.Price
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return DowntrendLine{
		Origin:    origin,
		Slope:     slope,
		Intercept: intercept,
		RSquared:  stat.RSquared(xs, ys, nil, intercept, slope),
	}, true
}

// ResistanceAt evaluates the line at a weekly bar index
func (l DowntrendLine) ResistanceAt(index int) float64 {
	return l.Slope*float64(index-l.Origin) + l.Intercept
}

// DetectBreakout returns the first bar strictly after startAfter whose close
// exceeds the resistance line.
func DetectBreakout(closes []float64, line DowntrendLine, startAfter int) (SwingPoint, bool) {
	for i := startAfter + 1; i < len(closes); i++ {
		if closes[i] > line.ResistanceAt(i) {
			return SwingPoint{Index: i, Price: closes[i]}, true
		}
	}
	return SwingPoint{}, false
}

// ConfirmHigherLow checks whether the pullback low within weeksToWait bars
// after the breakout stays above the last pre-breakout swing low. On success
// it returns the index of that pullback low.
func ConfirmHigherLow(lows []float64, breakout SwingPoint, preBreakoutLow SwingPoint, weeksToWait int) (int, bool) {
	end := breakout.Index + weeksToWait
	if end > len(lows)-1 {
		end = len(lows) - 1
	}
	if breakout.Index+1 > end {
		return 0, false
	}

	lowIdx := breakout.Index + 1
	for i := breakout.Index + 2; i <= end; i++ {
		if lows[i] < lows[lowIdx] {
			lowIdx = i
		}
	}
	if lows[lowIdx] > preBreakoutLow.Price {
		return lowIdx, true
	}
	return 0, false
}

// TrendDetection describes where the current uptrend began and how that was
// established.
type TrendDetection struct {
	StartIndex int         `json:"start_index"`
	Breakout   *SwingPoint `json:"breakout,omitempty"`
	Confirmed  bool        `json:"confirmed"`
}

// DetectTrendStart locates the start of the current uptrend: a sequence of
// lower highs, a fitted resistance line, the first close breaking above it,
// and when possible a confirming higher low whose index becomes the start.
// Whenever the structure is absent the detector degrades to the index of the
// lowest close, which for a recovering series is the natural trend origin.
func DetectTrendStart(highs, lows, closes []float64) TrendDetection {
	fallback := TrendDetection{StartIndex: argminIndex(closes)}

	swingHighs := FindSwingHighs(highs, SwingWindow)
	if len(swingHighs) < MinLowerHighs {
		return fallback
	}

	lowerHighs := LowerHighs(swingHighs, MinLowerHighs)
	if len(lowerHighs) < MinLowerHighs {
		return fallback
	}

	line, ok := FitDowntrendLine(lowerHighs)
	if !ok {
		return fallback
	}

	breakout, ok := DetectBreakout(closes, line, lowerHighs[len(lowerHighs)-1].Index)
	if !ok {
		return fallback
	}

	swingLows := FindSwingLows(lows, SwingWindow)
	var preBreakout *SwingPoint
	for i := range swingLows {
		if swingLows[i].Index < breakout.Index {
			preBreakout = &swingLows[i]
		}
	}
	if preBreakout == nil {
		return TrendDetection{StartIndex: breakout.Index, Breakout: &breakout}
	}

	if lowIdx, confirmed := ConfirmHigherLow(lows, breakout, *preBreakout, ConfirmationWeeks); confirmed {
		return TrendDetection{StartIndex: lowIdx, Breakout: &breakout, Confirmed: true}
	}
	return TrendDetection{StartIndex: breakout.Index, Breakout: &breakout}
}

func argminIndex(values []float64) int {
	idx := 0
	for i, v := range values {
		if v < values[idx] {
			idx = i
		}
	}
	return idx
}
