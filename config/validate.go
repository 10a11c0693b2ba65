package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

// Validate ensures required fields are present and in range.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return ErrInvalid("env is required")
	}
	s := cfg.Source
	switch s.Driver {
	case "postgres", "clickhouse":
	default:
		return ErrInvalid(fmt.Sprintf("source.driver %q must be postgres or clickhouse", s.Driver))
	}
	if s.Host == "" {
		return ErrInvalid("source.host is required")
	}
	if s.Port <= 0 || s.Port > 65535 {
		return ErrInvalid("source.port must be in 1..65535")
	}
	if s.Database == "" {
		return ErrInvalid("source.database is required")
	}
	if s.DialTimeoutMs < 0 {
		return ErrInvalid("source.dialTimeoutMs must be >= 0")
	}
	if s.RetryInitialMs < 0 || s.RetryMaxMs < 0 {
		return ErrInvalid("source retry intervals must be >= 0")
	}

	d := cfg.Dashboard
	if d.ListenAddr == "" {
		return ErrInvalid("dashboard.listenAddr is required")
	}
	if d.RefreshIntervalMs <= 0 {
		return ErrInvalid("dashboard.refreshIntervalMs must be > 0")
	}
	switch d.ChartPolicy {
	case "broadcast", "latest", "cumulative":
	default:
		return ErrInvalid(fmt.Sprintf("dashboard.chartPolicy %q must be broadcast, latest or cumulative", d.ChartPolicy))
	}
	if d.RefreshRate < 0 || d.RefreshBurst < 0 {
		return ErrInvalid("dashboard refresh rate limits must be >= 0")
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return ErrInvalid(fmt.Sprintf("log.level: %v", err))
	}
	if cfg.Alert.MaxConsecutiveFailures < 0 || cfg.Alert.ThrottleSeconds < 0 {
		return ErrInvalid("alert limits must be >= 0")
	}
	return nil
}
