package dashboard

import "time"

// ErrorState is shown on the page when the last tick failed.
type ErrorState struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Tick    uint64    `json:"tick"`
	At      time.Time `json:"at"`
}

// Snapshot is what the page renders: the figures of the last successful tick
// and, if the latest tick failed, its error.
type Snapshot struct {
	Tick         uint64      `json:"tick"`
	TickID       string      `json:"tickId"`
	GeneratedAt  time.Time   `json:"generatedAt"`
	Rows         int         `json:"rows"`
	PnL          float64     `json:"pnl"`
	RiskExposure float64     `json:"riskExposure"`
	Figures      Figures     `json:"figures"`
	Error        *ErrorState `json:"error,omitempty"`
}

// withError returns a copy of s (or an empty snapshot) carrying e.
func (s *Snapshot) withError(e ErrorState) *Snapshot {
	var next Snapshot
	if s != nil {
		next = *s
	}
	next.Error = &e
	return &next
}
