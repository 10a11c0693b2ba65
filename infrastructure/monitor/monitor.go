package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 刷新周期指标
	ticks        prometheus.Counter
	tickErrors   *prometheus.CounterVec
	tickDuration prometheus.Histogram
	lastSuccess  prometheus.Gauge

	// 数据源指标
	rowsFetched  prometheus.Gauge
	breakerState prometheus.Gauge

	// 风险指标
	pnl          prometheus.Gauge
	riskExposure prometheus.Gauge

	// 前端指标
	wsClients prometheus.Gauge
	alerts    *prometheus.CounterVec
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "portfolio",
		Subsystem: "dashboard",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ticks_total",
			Help:      "Refresh ticks executed.",
		}),
		tickErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tick_errors_total",
				Help:      "Failed refresh ticks by error kind.",
			},
			[]string{"kind"},
		),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a refresh tick (fetch + compute + publish).",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful tick.",
		}),
		rowsFetched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rows_fetched",
			Help:      "Rows returned by the last fetch.",
		}),
		breakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "breaker_state",
			Help:      "Data source breaker state (0=closed,1=half-open,2=open).",
		}),
		pnl: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "pnl",
			Help:      "Aggregate P&L of the last successful tick.",
		}),
		riskExposure: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "risk_exposure",
			Help:      "Risk exposure of the last successful tick.",
		}),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
		alerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "alerts_total",
				Help:      "Alerts raised by level.",
			},
			[]string{"level"},
		),
	}
}

// RecordTick records a finished tick. kind is empty on success.
func (m *Monitor) RecordTick(seconds float64, kind string) {
	m.ticks.Inc()
	m.tickDuration.Observe(seconds)
	if kind != "" {
		m.tickErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Monitor) UpdateSummary(rows int, pnl, exposure float64, unixSeconds float64) {
	m.rowsFetched.Set(float64(rows))
	m.pnl.Set(pnl)
	m.riskExposure.Set(exposure)
	m.lastSuccess.Set(unixSeconds)
}

func (m *Monitor) UpdateBreakerState(state int) {
	m.breakerState.Set(float64(state))
}

func (m *Monitor) AddWSClients(delta int) {
	m.wsClients.Add(float64(delta))
}

func (m *Monitor) RecordAlert(level string) {
	m.alerts.WithLabelValues(level).Inc()
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
