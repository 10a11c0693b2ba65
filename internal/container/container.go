package container

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"portfolio-dashboard/config"
	"portfolio-dashboard/dashboard"
	"portfolio-dashboard/infrastructure/alert"
	"portfolio-dashboard/infrastructure/logger"
	"portfolio-dashboard/infrastructure/monitor"
	"portfolio-dashboard/marketdata"
	"portfolio-dashboard/risk"
)

// Container 依赖注入容器，管理所有组件的生命周期
type Container struct {
	cfg        config.AppConfig
	configPath string

	// 基础设施
	logger  *logger.Logger
	monitor *monitor.Monitor
	alerts  *alert.Manager

	// 数据源与仪表盘
	source    *marketdata.Resilient
	dashboard *dashboard.Dashboard
	http      *httpServerComponent

	lifecycle *LifecycleManager
}

// New loads the config at configPath (defaults when empty) and returns an
// unbuilt container.
func New(configPath string) (*Container, error) {
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(cfg, configPath), nil
}

// NewWithConfig uses an already loaded config. configPath enables hot reload
// when non-empty.
func NewWithConfig(cfg config.AppConfig, configPath string) *Container {
	return &Container{
		cfg:        cfg,
		configPath: configPath,
		lifecycle:  NewLifecycleManager(),
	}
}

// Build 构建所有组件
func (c *Container) Build() error {
	if err := c.buildInfrastructure(); err != nil {
		return fmt.Errorf("build infrastructure failed: %w", err)
	}
	if err := c.buildSource(); err != nil {
		return fmt.Errorf("build source failed: %w", err)
	}
	if err := c.buildDashboard(); err != nil {
		return fmt.Errorf("build dashboard failed: %w", err)
	}
	if err := c.registerLifecycleComponents(); err != nil {
		return err
	}
	c.logger.Info("container built",
		zap.String("env", c.cfg.Env),
		zap.String("driver", c.cfg.Source.Driver),
		zap.String("listen", c.cfg.Dashboard.ListenAddr))
	return nil
}

func (c *Container) buildInfrastructure() error {
	var err error
	c.logger, err = logger.New(c.cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger failed: %w", err)
	}

	c.monitor = monitor.New(monitor.DefaultConfig())

	channels := []alert.Channel{alert.NewLogChannel("log", c.logger.Logger)}
	c.alerts = alert.NewManager(channels, time.Duration(c.cfg.Alert.ThrottleSeconds)*time.Second)
	c.alerts.OnSent(func(a alert.Alert) {
		c.monitor.RecordAlert(string(a.Level))
	})
	return nil
}

func (c *Container) buildSource() error {
	s := c.cfg.Source
	src, err := marketdata.New(marketdata.ConnConfig{
		Driver:      s.Driver,
		Host:        s.Host,
		Port:        s.Port,
		Database:    s.Database,
		User:        s.User,
		Password:    s.Password,
		SSLMode:     s.SSLMode,
		DialTimeout: time.Duration(s.DialTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	rc := marketdata.DefaultResilienceConfig()
	rc.Retries = s.Retries
	rc.InitialInterval = time.Duration(s.RetryInitialMs) * time.Millisecond
	rc.MaxInterval = time.Duration(s.RetryMaxMs) * time.Millisecond
	rc.BreakerEnabled = !s.Breaker.Disabled
	rc.BreakerFailures = s.Breaker.Failures
	rc.BreakerOpenFor = time.Duration(s.Breaker.OpenSeconds) * time.Second

	c.source = marketdata.NewResilient(src, rc, c.onBreakerState)
	return nil
}

func (c *Container) onBreakerState(from, to gobreaker.State) {
	c.monitor.UpdateBreakerState(int(to))
	c.logger.Warn("market data breaker state changed",
		zap.String("from", from.String()),
		zap.String("to", to.String()))
	if to == gobreaker.StateOpen {
		_ = c.alerts.Send(alert.Alert{
			Level:   alert.LevelCritical,
			Key:     "breaker_open",
			Message: "market data breaker open",
			Fields:  map[string]interface{}{"openSeconds": c.cfg.Source.Breaker.OpenSeconds},
		})
	}
}

func (c *Container) buildDashboard() error {
	d := c.cfg.Dashboard
	policy, err := dashboard.ParsePolicy(d.ChartPolicy)
	if err != nil {
		return err
	}

	var queryTimeout time.Duration
	if c.cfg.Source.QueryTimeoutMs > 0 {
		queryTimeout = time.Duration(c.cfg.Source.QueryTimeoutMs) * time.Millisecond
	}

	c.dashboard, err = dashboard.New(dashboard.Config{
		Title:           d.Title,
		RefreshInterval: time.Duration(d.RefreshIntervalMs) * time.Millisecond,
		Policy:          policy,
		QueryTimeout:    queryTimeout,
		CORSOrigins:     d.CORSOrigins,
		RefreshRate:     d.RefreshRate,
		RefreshBurst:    d.RefreshBurst,
		Thresholds: risk.Thresholds{
			PnLFloor:      c.cfg.Alert.PnLFloor,
			ExposureFloor: c.cfg.Alert.RiskExposureFloor,
		},
		MaxFailures: c.cfg.Alert.MaxConsecutiveFailures,
	}, c.source, c.logger, c.monitor, c.alerts)
	return err
}

func (c *Container) registerLifecycleComponents() error {
	if c.cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := c.dashboard.Router()
	if err != nil {
		return fmt.Errorf("build router failed: %w", err)
	}

	c.http = &httpServerComponent{
		name:    "dashboard_server",
		handler: router,
		addr:    c.cfg.Dashboard.ListenAddr,
		logger:  c.logger,
	}
	c.lifecycle.Register(c.http)
	c.lifecycle.Register(newSchedulerComponent(c.dashboard, c.logger))

	if c.configPath != "" {
		w := config.Watcher{Path: c.configPath}
		c.lifecycle.Register(newWatcherComponent(w, c.applyConfig, c.logger))
	}
	return nil
}

// applyConfig applies the hot-reloadable subset of cfg: the log level.
func (c *Container) applyConfig(cfg config.AppConfig) {
	prev := c.logger.Level()
	if err := c.logger.SetLevel(cfg.Log.Level); err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "reload_config"})
		return
	}
	if next := c.logger.Level(); next != prev {
		c.logger.Info("log level changed",
			zap.String("from", prev.String()),
			zap.String("to", next.String()))
	}
}

func (c *Container) Start(ctx context.Context) error {
	c.logger.Info("starting container...")

	if err := c.lifecycle.StartAll(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}

	c.logger.Info("container started", zap.String("addr", c.http.Addr()))
	return nil
}

func (c *Container) Stop() error {
	c.logger.Info("stopping container...")

	err := c.lifecycle.StopAll()
	if err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "stop"})
	}
	c.logger.Info("container stopped")
	_ = c.logger.Close()
	return err
}

func (c *Container) HealthCheck() error {
	return c.lifecycle.CheckHealth()
}

// Addr returns the address the dashboard server is bound to.
func (c *Container) Addr() string {
	return c.http.Addr()
}

func (c *Container) Dashboard() *dashboard.Dashboard {
	return c.dashboard
}

func (c *Container) Logger() *logger.Logger {
	return c.logger
}

func (c *Container) Config() config.AppConfig {
	return c.cfg
}
