package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
)

// pgConn is the part of *pgx.Conn used by Postgres.
type pgConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
}

// Postgres reads market_data over a fresh pgx connection per Fetch.
type Postgres struct {
	cfg     ConnConfig
	connect func(ctx context.Context, connString string) (pgConn, error)
}

func NewPostgres(cfg ConnConfig) *Postgres {
	return &Postgres{
		cfg: cfg,
		connect: func(ctx context.Context, connString string) (pgConn, error) {
			return pgx.Connect(ctx, connString)
		},
	}
}

// ConnString renders cfg as a postgres:// URL.
func (p *Postgres) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.cfg.User, p.cfg.Password),
		Host:   p.cfg.Addr(),
		Path:   "/" + p.cfg.Database,
	}
	q := u.Query()
	if p.cfg.SSLMode != "" {
		q.Set("sslmode", p.cfg.SSLMode)
	}
	if p.cfg.DialTimeout > 0 {
		// whole seconds; 0 would mean no timeout
		secs := int((p.cfg.DialTimeout + time.Second - 1) / time.Second)
		q.Set("connect_timeout", fmt.Sprintf("%d", secs))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (p *Postgres) Fetch(ctx context.Context) ([]MarketDataRow, error) {
	conn, err := p.connect(ctx, p.ConnString())
	if err != nil {
		return nil, fmt.Errorf("connect %s/%s: %w: %w", p.cfg.Addr(), p.cfg.Database, err, ErrConnection)
	}
	defer conn.Close(context.Background())

	rows, err := conn.Query(ctx, Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w: %w", err, ErrQuery)
	}
	return collectPgx(rows)
}

func collectPgx(rows pgx.Rows) ([]MarketDataRow, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	idx, err := indexColumns(names)
	if err != nil {
		return nil, err
	}

	var out []MarketDataRow
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %w", len(out), err, ErrQuery)
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
