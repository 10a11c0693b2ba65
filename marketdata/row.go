package marketdata

import "time"

// Table is the fixed relation the dashboard reads from.
const Table = "market_data"

// Query is the static statement run on every fetch.
const Query = "SELECT * FROM " + Table + ";"

// Required column names.
const (
	ColTimestamp  = "timestamp"
	ColAssetValue = "asset_value"
	ColQuantity   = "quantity"
)

// MarketDataRow is one row of market_data. PnL is derived, not read.
type MarketDataRow struct {
	Timestamp  time.Time `json:"timestamp"`
	AssetValue float64   `json:"asset_value"`
	Quantity   float64   `json:"quantity"`
	PnL        float64   `json:"pnl"`
}

// Timestamps returns the timestamp axis of rows in result order.
func Timestamps(rows []MarketDataRow) []time.Time {
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.Timestamp
	}
	return out
}
