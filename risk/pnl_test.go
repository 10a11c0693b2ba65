package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"portfolio-dashboard/marketdata"
)

func rowsFromValues(values ...float64) []marketdata.MarketDataRow {
	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	rows := make([]marketdata.MarketDataRow, len(values))
	for i, v := range values {
		rows[i] = marketdata.MarketDataRow{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			AssetValue: v,
			Quantity:   1,
		}
	}
	return rows
}

func TestCalculatePnL(t *testing.T) {
	rows := []marketdata.MarketDataRow{
		{AssetValue: 100, Quantity: 2},
		{AssetValue: 50.5, Quantity: -4},
		{AssetValue: 10, Quantity: 0.5},
	}
	got := CalculatePnL(rows)
	assert.InDelta(t, 200-202+5, got, 1e-9)
	assert.Equal(t, 200.0, rows[0].PnL)
	assert.Equal(t, -202.0, rows[1].PnL)
	assert.Equal(t, 5.0, rows[2].PnL)
}

func TestCalculatePnLEmpty(t *testing.T) {
	assert.Equal(t, 0.0, CalculatePnL(nil))
	assert.Equal(t, 0.0, CalculatePnL([]marketdata.MarketDataRow{}))
}

func TestCumulativePnL(t *testing.T) {
	rows := []marketdata.MarketDataRow{
		{AssetValue: 1, Quantity: 1},
		{AssetValue: 2, Quantity: 1},
		{AssetValue: 3, Quantity: -1},
	}
	CalculatePnL(rows)
	assert.Equal(t, []float64{1, 3, 0}, CumulativePnL(rows))
}
