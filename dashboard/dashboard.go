package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"portfolio-dashboard/infrastructure/alert"
	"portfolio-dashboard/infrastructure/logger"
	"portfolio-dashboard/infrastructure/monitor"
	"portfolio-dashboard/marketdata"
	"portfolio-dashboard/risk"
)

// Config 仪表盘配置
type Config struct {
	Title           string
	RefreshInterval time.Duration
	Policy          Policy
	QueryTimeout    time.Duration
	CORSOrigins     []string
	RefreshRate     float64 // manual refreshes per second
	RefreshBurst    int
	Thresholds      risk.Thresholds
	MaxFailures     int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Title:           "Portfolio Manager Dashboard",
		RefreshInterval: 5 * time.Second,
		Policy:          PolicyBroadcast,
		QueryTimeout:    30 * time.Second,
		RefreshRate:     1,
		RefreshBurst:    1,
		MaxFailures:     3,
	}
}

// Dashboard is the application context shared by the scheduler and the HTTP
// handlers.
type Dashboard struct {
	cfg       Config
	refresher *Refresher
	scheduler *Scheduler
	hub       *Hub
	limiter   *rate.Limiter
	logger    *logger.Logger
	monitor   *monitor.Monitor
	started   time.Time
}

// New wires the refresh loop for src. l, m and a may be nil.
func New(cfg Config, src marketdata.Source, l *logger.Logger, m *monitor.Monitor, a *alert.Manager) (*Dashboard, error) {
	if cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("refresh interval must be > 0, got %s", cfg.RefreshInterval)
	}
	if cfg.Title == "" {
		cfg.Title = DefaultConfig().Title
	}
	if cfg.RefreshBurst <= 0 {
		cfg.RefreshBurst = 1
	}
	if l == nil {
		l = logger.NewNop()
	}
	if m == nil {
		m = monitor.New(monitor.DefaultConfig())
	}

	hub := NewHub(l, m)
	ref, err := NewRefresher(RefresherConfig{
		Source:       src,
		Policy:       cfg.Policy,
		QueryTimeout: cfg.QueryTimeout,
		Logger:       l,
		Monitor:      m,
		Alerts:       a,
		Thresholds:   cfg.Thresholds,
		MaxFailures:  cfg.MaxFailures,
		Publish:      hub.Publish,
	})
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		cfg:       cfg,
		refresher: ref,
		scheduler: NewScheduler(cfg.RefreshInterval, ref, l),
		hub:       hub,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RefreshRate), cfg.RefreshBurst),
		logger:    l,
		monitor:   m,
		started:   time.Now(),
	}, nil
}

func (d *Dashboard) Scheduler() *Scheduler { return d.scheduler }
func (d *Dashboard) Refresher() *Refresher { return d.refresher }
func (d *Dashboard) Hub() *Hub             { return d.hub }

// Latest returns the last published snapshot.
func (d *Dashboard) Latest() *Snapshot {
	return d.refresher.Latest()
}

// Run drives the scheduler until ctx is cancelled, then disconnects
// websocket clients.
func (d *Dashboard) Run(ctx context.Context) error {
	defer d.hub.Close()
	return d.scheduler.Run(ctx)
}
