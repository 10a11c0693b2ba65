package dashboard

import (
	"context"
	"sync"
	"time"

	"portfolio-dashboard/marketdata"
)

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func rowsFromValues(values ...float64) []marketdata.MarketDataRow {
	rows := make([]marketdata.MarketDataRow, len(values))
	for i, v := range values {
		rows[i] = marketdata.MarketDataRow{
			Timestamp:  baseTime.Add(time.Duration(i) * time.Minute),
			AssetValue: v,
			Quantity:   1,
		}
	}
	return rows
}

// stubSource returns a fresh copy of rows or err on every fetch.
type stubSource struct {
	mu    sync.Mutex
	rows  []marketdata.MarketDataRow
	err   error
	calls int
}

func (s *stubSource) Fetch(ctx context.Context) ([]marketdata.MarketDataRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]marketdata.MarketDataRow, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *stubSource) set(rows []marketdata.MarketDataRow, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows, s.err = rows, err
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
