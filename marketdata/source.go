package marketdata

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Source fetches the full market_data table. Every call opens and closes its
// own connection.
type Source interface {
	Fetch(ctx context.Context) ([]MarketDataRow, error)
}

// Driver names accepted by New.
const (
	DriverPostgres   = "postgres"
	DriverClickHouse = "clickhouse"
)

// ConnConfig holds the connection parameters of a Source.
type ConnConfig struct {
	Driver      string
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	SSLMode     string
	DialTimeout time.Duration
}

// Addr returns host:port.
func (c ConnConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// New returns the Source for cfg.Driver.
func New(cfg ConnConfig) (Source, error) {
	switch cfg.Driver {
	case "", DriverPostgres:
		return NewPostgres(cfg), nil
	case DriverClickHouse:
		return NewClickHouse(cfg), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]MarketDataRow, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]MarketDataRow, error) { return f(ctx) }
