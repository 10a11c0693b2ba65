package risk

// Thresholds 用于在指标越过下限时触发告警。nil 表示不检查。
type Thresholds struct {
	PnLFloor      *float64
	ExposureFloor *float64
}

// Check returns ErrPnLTooLow or ErrExposureTooLow when s breaches a floor.
// P&L is checked first.
func (t Thresholds) Check(s Summary) error {
	if t.PnLFloor != nil && s.PnL < *t.PnLFloor {
		return ErrPnLTooLow
	}
	if t.ExposureFloor != nil && s.RiskExposure < *t.ExposureFloor {
		return ErrExposureTooLow
	}
	return nil
}
