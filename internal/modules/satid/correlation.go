package satid

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds pairwise Pearson correlation coefficients for a
// fixed set of assets. The matrix is symmetric with a unit diagonal.
type CorrelationMatrix struct {
	assets []string
	index  map[string]int
	data   *mat.SymDense
}

// CalculateCorrelationMatrix computes pairwise Pearson correlations over the
// return series of all assets, truncated to the shortest common tail so that
// assets with mismatched history lengths are compared over the same window.
func CalculateCorrelationMatrix(returnsByAsset map[string][]float64) (*CorrelationMatrix, error) {
	if len(returnsByAsset) == 0 {
		return nil, fmt.Errorf("no return series supplied: %w", ErrInsufficientData)
	}

	assets := make([]string, 0, len(returnsByAsset))
	for asset := range returnsByAsset {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	window := -1
	for _, asset := range assets {
		if n := len(returnsByAsset[asset]); window < 0 || n < window {
			window = n
		}
	}
	if window < 2 {
		return nil, fmt.Errorf("common return window has %d observations, need at least 2: %w", window, ErrInsufficientData)
	}

	// Align every series to its most recent `window` observations.
	aligned := make([][]float64, len(assets))
	for i, asset := range assets {
		r := returnsByAsset[asset]
		aligned[i] = r[len(r)-window:]
	}

	n := len(assets)
	index := make(map[string]int, n)
	for i, asset := range assets {
		index[asset] = i
	}

	data := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		data.SetSym(i, i, 1.0)
		for j := i + 1; j < n; j++ {
			data.SetSym(i, j, stat.Correlation(aligned[i], aligned[j], nil))
		}
	}

	return &CorrelationMatrix{assets: assets, index: index, data: data}, nil
}

// Assets returns the asset identifiers in matrix order
func (m *CorrelationMatrix) Assets() []string {
	out := make([]string, len(m.assets))
	copy(out, m.assets)
	return out
}

// At returns the correlation coefficient for a pair of assets
func (m *CorrelationMatrix) At(a, b string) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, fmt.Errorf("asset %q not in correlation matrix: %w", a, ErrUnknownAsset)
	}
	j, ok := m.index[b]
	if !ok {
		return 0, fmt.Errorf("asset %q not in correlation matrix: %w", b, ErrUnknownAsset)
	}
	return m.data.At(i, j), nil
}

// Pairs returns the matrix as a nested map for report serialization
func (m *CorrelationMatrix) Pairs() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m.assets))
	for i, a := range m.assets {
		row := make(map[string]float64, len(m.assets))
		for j, b := range m.assets {
			row[b] = m.data.At(i, j)
		}
		out[a] = row
	}
	return out
}

// CalculatePortfolioVolatility computes the Modern Portfolio Theory portfolio
// volatility from asset weights, individual weekly volatilities, and the
// pairwise correlation matrix:
//
//	variance = w' Σ w   with  Σ[i][j] = σ_i σ_j ρ_ij
//
// The variance is clamped at zero before the square root to guard against
// floating-point negative-zero artifacts. Every weighted asset must be
// present in both the volatility map and the correlation matrix.
func CalculatePortfolioVolatility(weights map[string]float64, volatilities map[string]float64, corr *CorrelationMatrix) (float64, error) {
	if corr == nil {
		return 0, fmt.Errorf("nil correlation matrix: %w", ErrInsufficientData)
	}
	if len(weights) == 0 {
		return 0, fmt.Errorf("no weights supplied: %w", ErrInvalidAllocation)
	}

	assets := make([]string, 0, len(weights))
	for asset := range weights {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	n := len(assets)
	w := mat.NewVecDense(n, nil)
	sigma := make([]float64, n)
	for i, asset := range assets {
		if _, ok := corr.index[asset]; !ok {
			return 0, fmt.Errorf("weighted asset %q missing from correlation matrix: %w", asset, ErrUnknownAsset)
		}
		vol, ok := volatilities[asset]
		if !ok {
			return 0, fmt.Errorf("weighted asset %q missing volatility: %w", asset, ErrUnknownAsset)
		}
		w.SetVec(i, weights[asset])
		sigma[i] = vol
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			rho, err := corr.At(assets[i], assets[j])
			if err != nil {
				return 0, err
			}
			cov.SetSym(i, j, sigma[i]*sigma[j]*rho)
		}
	}

	variance := mat.Inner(w, cov, w)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance), nil
}
