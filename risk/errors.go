package risk

import "errors"

var (
	// ErrInsufficientData is returned when no finite percentage change can be
	// derived from the rows of a tick.
	ErrInsufficientData = errors.New("insufficient data")
	ErrPnLTooLow        = errors.New("pnl below floor")
	ErrExposureTooLow   = errors.New("risk exposure below floor")
)
