package risk

import (
	"fmt"
	"math"
	"sort"

	"portfolio-dashboard/marketdata"
)

// ExposurePercentile is the percentile of the change distribution used by
// CalculateRiskExposure.
const ExposurePercentile = 5.0

// PercentChanges returns (v[i]-v[i-1])/v[i-1] for consecutive asset values.
// The first row has no change and non-finite results are dropped.
func PercentChanges(rows []marketdata.MarketDataRow) []float64 {
	if len(rows) < 2 {
		return nil
	}
	out := make([]float64, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		prev := rows[i-1].AssetValue
		chg := (rows[i].AssetValue - prev) / prev
		if math.IsNaN(chg) || math.IsInf(chg, 0) {
			continue
		}
		out = append(out, chg)
	}
	return out
}

// Percentile computes the p-th percentile (0..100) with linear interpolation
// between closest ranks. values is not modified.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("percentile of empty set: %w", ErrInsufficientData)
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, fmt.Errorf("percentile %v out of range [0,100]", p)
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

// CalculateRiskExposure returns the 5th percentile of the consecutive
// percentage changes of AssetValue scaled by sqrt(number of changes).
//
// The scaling is not a textbook VaR; it is kept as is so that figures stay
// comparable with historic dashboards.
func CalculateRiskExposure(rows []marketdata.MarketDataRow) (float64, error) {
	changes := PercentChanges(rows)
	if len(changes) == 0 {
		return 0, fmt.Errorf("%d rows gave no finite change: %w", len(rows), ErrInsufficientData)
	}
	p, err := Percentile(changes, ExposurePercentile)
	if err != nil {
		return 0, err
	}
	return p * math.Sqrt(float64(len(changes))), nil
}
