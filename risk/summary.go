package risk

import "portfolio-dashboard/marketdata"

// Summary is the outcome of the metrics engine for one tick.
type Summary struct {
	PnL          float64
	RiskExposure float64
	Changes      int
	Rows         int
}

// Summarize runs CalculatePnL and CalculateRiskExposure on rows. Rows get their
// PnL field populated even when the exposure cannot be computed.
func Summarize(rows []marketdata.MarketDataRow) (Summary, error) {
	s := Summary{Rows: len(rows)}
	s.PnL = CalculatePnL(rows)
	exp, err := CalculateRiskExposure(rows)
	if err != nil {
		return s, err
	}
	s.RiskExposure = exp
	s.Changes = len(PercentChanges(rows))
	return s, nil
}
