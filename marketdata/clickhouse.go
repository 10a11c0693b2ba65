package marketdata

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// chConn is the part of driver.Conn used by ClickHouse.
type chConn interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Close() error
}

// ClickHouse reads market_data over the native protocol.
type ClickHouse struct {
	cfg  ConnConfig
	open func(opts *clickhouse.Options) (chConn, error)
}

func NewClickHouse(cfg ConnConfig) *ClickHouse {
	return &ClickHouse{
		cfg: cfg,
		open: func(opts *clickhouse.Options) (chConn, error) {
			return clickhouse.Open(opts)
		},
	}
}

func (c *ClickHouse) options() *clickhouse.Options {
	return &clickhouse.Options{
		Addr: []string{c.cfg.Addr()},
		Auth: clickhouse.Auth{
			Database: c.cfg.Database,
			Username: c.cfg.User,
			Password: c.cfg.Password,
		},
		Protocol:    clickhouse.Native,
		DialTimeout: c.cfg.DialTimeout,
	}
}

func (c *ClickHouse) Fetch(ctx context.Context) ([]MarketDataRow, error) {
	conn, err := c.open(c.options())
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w: %w", c.cfg.Addr(), c.cfg.Database, err, ErrConnection)
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w: %w", c.cfg.Addr(), err, ErrConnection)
	}
	rows, err := conn.Query(ctx, Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w: %w", err, ErrQuery)
	}
	return collectClickHouse(rows)
}

func collectClickHouse(rows driver.Rows) ([]MarketDataRow, error) {
	defer rows.Close()

	idx, err := indexColumns(rows.Columns())
	if err != nil {
		return nil, err
	}
	types := rows.ColumnTypes()

	var out []MarketDataRow
	for rows.Next() {
		dest := make([]any, len(types))
		for i, ct := range types {
			dest[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("row %d: %w: %w", len(out), err, ErrQuery)
		}
		vals := make([]any, len(dest))
		for i, d := range dest {
			vals[i] = reflect.ValueOf(d).Elem().Interface()
		}
		row, err := decodeRecord(idx, vals)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(out), err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w: %w", err, ErrQuery)
	}
	return out, nil
}
