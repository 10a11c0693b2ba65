package risk

import "portfolio-dashboard/marketdata"

// CalculatePnL stores AssetValue*Quantity on every row and returns the sum.
// An empty slice yields 0.
func CalculatePnL(rows []marketdata.MarketDataRow) float64 {
	total := 0.0
	for i := range rows {
		rows[i].PnL = rows[i].AssetValue * rows[i].Quantity
		total += rows[i].PnL
	}
	return total
}

// CumulativePnL returns the running sum of the per-row PnL values. It expects
// CalculatePnL to have run on rows.
func CumulativePnL(rows []marketdata.MarketDataRow) []float64 {
	out := make([]float64, len(rows))
	acc := 0.0
	for i, r := range rows {
		acc += r.PnL
		out[i] = acc
	}
	return out
}
