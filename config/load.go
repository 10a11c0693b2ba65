package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"portfolio-dashboard/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env       string          `yaml:"env"`
	Debug     bool            `yaml:"debug"`
	Source    SourceConfig    `yaml:"source"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       logger.Config   `yaml:"log"`
	Alert     AlertConfig     `yaml:"alert"`
}

// SourceConfig describes the market_data database.
type SourceConfig struct {
	Driver         string        `yaml:"driver"` // postgres | clickhouse
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Database       string        `yaml:"database"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	SSLMode        string        `yaml:"sslMode"`
	DialTimeoutMs  int           `yaml:"dialTimeoutMs"`
	QueryTimeoutMs int           `yaml:"queryTimeoutMs"` // negative disables the deadline
	Retries        uint64        `yaml:"retries"`
	RetryInitialMs int           `yaml:"retryInitialMs"`
	RetryMaxMs     int           `yaml:"retryMaxMs"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

type BreakerConfig struct {
	Disabled    bool   `yaml:"disabled"`
	Failures    uint32 `yaml:"failures"`
	OpenSeconds int    `yaml:"openSeconds"`
}

// DashboardConfig controls the web view and the refresh loop.
type DashboardConfig struct {
	ListenAddr        string   `yaml:"listenAddr"`
	Title             string   `yaml:"title"`
	RefreshIntervalMs int      `yaml:"refreshIntervalMs"`
	ChartPolicy       string   `yaml:"chartPolicy"` // broadcast | latest | cumulative
	RefreshRate       float64  `yaml:"refreshRate"` // manual refreshes per second
	RefreshBurst      int      `yaml:"refreshBurst"`
	CORSOrigins       []string `yaml:"corsOrigins"`
}

// AlertConfig holds optional alert floors. Nil floors are not checked.
type AlertConfig struct {
	PnLFloor               *float64 `yaml:"pnlFloor"`
	RiskExposureFloor      *float64 `yaml:"riskExposureFloor"`
	MaxConsecutiveFailures int      `yaml:"maxConsecutiveFailures"`
	ThrottleSeconds        int      `yaml:"throttleSeconds"`
}

// Default returns the configuration used when no file is given. The database
// parameters match the historic hardcoded connection.
func Default() AppConfig {
	cfg := AppConfig{Env: "dev", Debug: true}
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	s := &cfg.Source
	if s.Driver == "" {
		s.Driver = "postgres"
	}
	if s.Host == "" {
		s.Host = "localhost"
	}
	if s.Port == 0 {
		if s.Driver == "clickhouse" {
			s.Port = 9000
		} else {
			s.Port = 5432
		}
	}
	if s.Database == "" {
		s.Database = "portfolio_db"
	}
	if s.User == "" {
		s.User = "user"
	}
	if s.Password == "" {
		s.Password = "password"
	}
	if s.SSLMode == "" && s.Driver == "postgres" {
		s.SSLMode = "disable"
	}
	if s.DialTimeoutMs == 0 {
		s.DialTimeoutMs = 5000
	}
	if s.QueryTimeoutMs == 0 {
		s.QueryTimeoutMs = 30000
	}
	if s.RetryInitialMs == 0 {
		s.RetryInitialMs = 500
	}
	if s.RetryMaxMs == 0 {
		s.RetryMaxMs = 5000
	}
	if s.Breaker.Failures == 0 {
		s.Breaker.Failures = 5
	}
	if s.Breaker.OpenSeconds == 0 {
		s.Breaker.OpenSeconds = 30
	}

	d := &cfg.Dashboard
	if d.ListenAddr == "" {
		d.ListenAddr = "127.0.0.1:8050"
	}
	if d.Title == "" {
		d.Title = "Portfolio Manager Dashboard"
	}
	if d.RefreshIntervalMs == 0 {
		d.RefreshIntervalMs = 5000
	}
	if d.ChartPolicy == "" {
		d.ChartPolicy = "broadcast"
	}
	if d.RefreshRate == 0 {
		d.RefreshRate = 1
	}
	if d.RefreshBurst == 0 {
		d.RefreshBurst = 1
	}

	def := logger.DefaultConfig()
	if cfg.Debug {
		def.Level = "debug"
		def.Format = "console"
	}
	l := &cfg.Log
	if l.Level == "" {
		l.Level = def.Level
	}
	if l.Format == "" {
		l.Format = def.Format
	}
	if len(l.Outputs) == 0 {
		l.Outputs = def.Outputs
	}
	if l.MaxSize == 0 {
		l.MaxSize = def.MaxSize
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = def.MaxBackups
	}
	if l.MaxAge == 0 {
		l.MaxAge = def.MaxAge
	}

	if cfg.Alert.MaxConsecutiveFailures == 0 {
		cfg.Alert.MaxConsecutiveFailures = 3
	}
	if cfg.Alert.ThrottleSeconds == 0 {
		cfg.Alert.ThrottleSeconds = 300
	}
}

// Load reads YAML config from path, fills defaults and validates.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config (or Default when path is empty), then
// overrides connection fields from the environment. A .env file in the working
// directory is read first when present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}
	if v := os.Getenv("PD_DB_DRIVER"); v != "" {
		cfg.Source.Driver = v
	}
	if v := os.Getenv("PD_DB_HOST"); v != "" {
		cfg.Source.Host = v
	}
	if v := os.Getenv("PD_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, ErrInvalid("PD_DB_PORT must be an integer")
		}
		cfg.Source.Port = port
	}
	if v := os.Getenv("PD_DB_NAME"); v != "" {
		cfg.Source.Database = v
	}
	if v := os.Getenv("PD_DB_USER"); v != "" {
		cfg.Source.User = v
	}
	if v := os.Getenv("PD_DB_PASSWORD"); v != "" {
		cfg.Source.Password = v
	}
	if v := os.Getenv("PD_LISTEN_ADDR"); v != "" {
		cfg.Dashboard.ListenAddr = v
	}
	return cfg, Validate(cfg)
}
