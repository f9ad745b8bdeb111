package satid

import "errors"

// Engine error taxonomy. These are recoverable-by-caller conditions: report
// generators decide whether to skip an asset or abort a run. The engine never
// substitutes a default value (zero volatility, NaN score) for any of them.
var (
	// ErrInsufficientData indicates fewer observations than a computation's
	// minimum requirement (e.g. volatility needs at least 2 returns).
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDivisionUndefined indicates a zero sigma made a z-score undefined.
	ErrDivisionUndefined = errors.New("division undefined")

	// ErrUnknownAsset indicates a weight or correlation reference to an asset
	// absent from the underlying data.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrInvalidAllocation indicates a weight outside [0,1] or a weight set
	// that cannot be normalized.
	ErrInvalidAllocation = errors.New("invalid allocation")
)
