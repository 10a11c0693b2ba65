package dashboard

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"portfolio-dashboard/infrastructure/alert"
	"portfolio-dashboard/infrastructure/logger"
	"portfolio-dashboard/infrastructure/monitor"
	"portfolio-dashboard/marketdata"
	"portfolio-dashboard/risk"
)

const alertKeyTickFailures = "tick_failures"

// RefresherConfig wires a Refresher. Source is required; nil Logger, Monitor
// and Alerts are replaced by no-op implementations.
type RefresherConfig struct {
	Source       marketdata.Source
	Policy       Policy
	QueryTimeout time.Duration // <= 0 means no deadline
	Logger       *logger.Logger
	Monitor      *monitor.Monitor
	Alerts       *alert.Manager
	Thresholds   risk.Thresholds
	MaxFailures  int
	Publish      func(*Snapshot)
}

// Refresher runs one fetch → compute → publish cycle per Tick. Ticks must be
// serialized by the caller; Scheduler does that.
type Refresher struct {
	cfg      RefresherConfig
	latest   atomic.Pointer[Snapshot]
	mu       sync.Mutex
	failures int
	now      func() time.Time
}

func NewRefresher(cfg RefresherConfig) (*Refresher, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("refresher: source is required")
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyBroadcast
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.Monitor == nil {
		cfg.Monitor = monitor.New(monitor.DefaultConfig())
	}
	if cfg.Alerts == nil {
		cfg.Alerts = alert.NewManager(nil, 0)
	}
	return &Refresher{cfg: cfg, now: time.Now}, nil
}

// Latest returns the last published snapshot, nil before the first tick.
func (r *Refresher) Latest() *Snapshot {
	return r.latest.Load()
}

// Tick executes tick number n. On failure the prior figures are kept and the
// published snapshot carries the error; the error is also returned.
func (r *Refresher) Tick(ctx context.Context, n uint64) (*Snapshot, error) {
	start := r.now()
	id := uuid.NewString()

	if r.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.QueryTimeout)
		defer cancel()
	}

	rows, err := r.cfg.Source.Fetch(ctx)
	if err != nil {
		return r.fail(n, id, start, err)
	}
	summary, err := risk.Summarize(rows)
	if err != nil {
		return r.fail(n, id, start, err)
	}
	if !finite(summary.PnL) || !finite(summary.RiskExposure) {
		return r.fail(n, id, start, fmt.Errorf("non-finite result pnl=%v exposure=%v: %w",
			summary.PnL, summary.RiskExposure, marketdata.ErrQuery))
	}

	snap := &Snapshot{
		Tick:         n,
		TickID:       id,
		GeneratedAt:  r.now(),
		Rows:         summary.Rows,
		PnL:          summary.PnL,
		RiskExposure: summary.RiskExposure,
		Figures:      BuildFigures(rows, summary, r.cfg.Policy),
	}
	r.publish(snap)

	elapsed := r.now().Sub(start)
	r.cfg.Monitor.RecordTick(elapsed.Seconds(), "")
	r.cfg.Monitor.UpdateSummary(summary.Rows, summary.PnL, summary.RiskExposure, float64(snap.GeneratedAt.Unix()))
	r.cfg.Logger.LogTick("tick_ok", n, map[string]interface{}{
		"tick_id":       id,
		"rows":          summary.Rows,
		"pnl":           summary.PnL,
		"risk_exposure": summary.RiskExposure,
		"elapsed_ms":    elapsed.Milliseconds(),
	})

	r.recovered(n)
	r.checkThresholds(n, summary)
	return snap, nil
}

func (r *Refresher) fail(n uint64, id string, start time.Time, err error) (*Snapshot, error) {
	kind := ErrorKind(err)
	prev := r.latest.Load()
	if prev == nil {
		prev = &Snapshot{Figures: BuildFigures(nil, risk.Summary{}, r.cfg.Policy)}
	}
	snap := prev.withError(ErrorState{Kind: kind, Message: err.Error(), Tick: n, At: r.now()})
	r.publish(snap)

	r.cfg.Monitor.RecordTick(r.now().Sub(start).Seconds(), kind)
	r.cfg.Logger.LogError(err, map[string]interface{}{
		"tick":    n,
		"tick_id": id,
		"kind":    kind,
	})

	r.mu.Lock()
	r.failures++
	failures := r.failures
	r.mu.Unlock()

	if r.cfg.MaxFailures > 0 && failures >= r.cfg.MaxFailures {
		_ = r.cfg.Alerts.Send(alert.Alert{
			Level:   alert.LevelError,
			Key:     alertKeyTickFailures,
			Message: "dashboard refresh failing",
			Fields: map[string]interface{}{
				"consecutive_failures": failures,
				"kind":                 kind,
				"error":                err.Error(),
			},
		})
	}
	return snap, fmt.Errorf("tick %d: %w", n, err)
}

func (r *Refresher) recovered(n uint64) {
	r.mu.Lock()
	failures := r.failures
	r.failures = 0
	r.mu.Unlock()

	if r.cfg.MaxFailures > 0 && failures >= r.cfg.MaxFailures {
		r.cfg.Alerts.Clear(alertKeyTickFailures)
		_ = r.cfg.Alerts.Send(alert.Alert{
			Level:   alert.LevelInfo,
			Message: "dashboard refresh recovered",
			Fields:  map[string]interface{}{"tick": n, "failed_ticks": failures},
		})
	}
}

func (r *Refresher) checkThresholds(n uint64, s risk.Summary) {
	err := r.cfg.Thresholds.Check(s)
	if err == nil {
		return
	}
	fields := map[string]interface{}{
		"tick":          n,
		"pnl":           s.PnL,
		"risk_exposure": s.RiskExposure,
	}
	r.cfg.Logger.LogRisk(err.Error(), fields)
	_ = r.cfg.Alerts.Send(alert.Alert{
		Level:   alert.LevelWarning,
		Key:     err.Error(),
		Message: err.Error(),
		Fields:  fields,
	})
}

func (r *Refresher) publish(s *Snapshot) {
	r.latest.Store(s)
	if r.cfg.Publish != nil {
		r.cfg.Publish(s)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
