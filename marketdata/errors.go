package marketdata

import "errors"

var (
	// ErrConnection covers failures to open (or reach) the database.
	ErrConnection = errors.New("database connection failed")
	// ErrQuery covers failures running the statement or decoding its result,
	// including missing columns and non-numeric values.
	ErrQuery = errors.New("market data query failed")
)
