package dashboard

import (
	"fmt"
	"time"

	"portfolio-dashboard/marketdata"
	"portfolio-dashboard/risk"
)

// Policy decides how a scalar metric is laid out against the timestamp axis.
type Policy string

const (
	// PolicyBroadcast repeats the scalar for every timestamp (len(y) == len(x)).
	PolicyBroadcast Policy = "broadcast"
	// PolicyLatest plots a single point at the last timestamp.
	PolicyLatest Policy = "latest"
	// PolicyCumulative plots the running per-row P&L. The risk chart has no
	// per-row series and is broadcast.
	PolicyCumulative Policy = "cumulative"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyBroadcast, PolicyLatest, PolicyCumulative:
		return p, nil
	case "":
		return PolicyBroadcast, nil
	default:
		return "", fmt.Errorf("unknown chart policy %q", s)
	}
}

// Chart titles.
const (
	TitlePnL  = "P&L"
	TitleRisk = "Risk Exposure"
)

// Trace is one line series of a figure.
type Trace struct {
	X    []time.Time `json:"x"`
	Y    []float64   `json:"y"`
	Type string      `json:"type"`
}

type Layout struct {
	Title string `json:"title"`
}

// Figure is the chart descriptor rendered by the page.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Figures is the pair of charts published per tick.
type Figures struct {
	PnL  Figure `json:"pnl"`
	Risk Figure `json:"risk"`
}

// BuildFigures lays out the tick summary against the row timestamps.
// CalculatePnL must have run on rows for PolicyCumulative.
func BuildFigures(rows []marketdata.MarketDataRow, s risk.Summary, p Policy) Figures {
	x := marketdata.Timestamps(rows)

	var pnlX, riskX []time.Time
	var pnlY, riskY []float64
	switch p {
	case PolicyLatest:
		if len(x) > 0 {
			last := x[len(x)-1:]
			pnlX, pnlY = last, []float64{s.PnL}
			riskX, riskY = last, []float64{s.RiskExposure}
		} else {
			pnlX, riskX = []time.Time{}, []time.Time{}
			pnlY, riskY = []float64{}, []float64{}
		}
	case PolicyCumulative:
		pnlX, pnlY = x, risk.CumulativePnL(rows)
		riskX, riskY = x, repeat(s.RiskExposure, len(x))
	default:
		pnlX, pnlY = x, repeat(s.PnL, len(x))
		riskX, riskY = x, repeat(s.RiskExposure, len(x))
	}

	return Figures{
		PnL: Figure{
			Data:   []Trace{{X: pnlX, Y: pnlY, Type: "line"}},
			Layout: Layout{Title: TitlePnL},
		},
		Risk: Figure{
			Data:   []Trace{{X: riskX, Y: riskY, Type: "line"}},
			Layout: Layout{Title: TitleRisk},
		},
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
