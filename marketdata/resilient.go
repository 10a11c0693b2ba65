package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// ResilienceConfig controls Resilient. Zero Retries disables retrying.
type ResilienceConfig struct {
	Retries         uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	BreakerEnabled   bool
	BreakerFailures  uint32
	BreakerOpenFor   time.Duration
	BreakerHalfOpens uint32
}

// DefaultResilienceConfig never retries and opens the breaker after five
// consecutive connection failures.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		Retries:          0,
		InitialInterval:  500 * time.Millisecond,
		MaxInterval:      5 * time.Second,
		BreakerEnabled:   true,
		BreakerFailures:  5,
		BreakerOpenFor:   30 * time.Second,
		BreakerHalfOpens: 1,
	}
}

// Resilient wraps a Source with connection retries and a circuit breaker.
// Only ErrConnection is retried or counted against the breaker.
type Resilient struct {
	src     Source
	cfg     ResilienceConfig
	breaker *gobreaker.CircuitBreaker
}

// NewResilient wraps src. onState, if set, is called on breaker transitions.
func NewResilient(src Source, cfg ResilienceConfig, onState func(from, to gobreaker.State)) *Resilient {
	r := &Resilient{src: src, cfg: cfg}
	if cfg.BreakerEnabled {
		failures := cfg.BreakerFailures
		if failures == 0 {
			failures = 1
		}
		r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "market-data",
			MaxRequests: cfg.BreakerHalfOpens,
			Timeout:     cfg.BreakerOpenFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, ErrConnection)
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				if onState != nil {
					onState(from, to)
				}
			},
		})
	}
	return r
}

// State reports the breaker state; closed when the breaker is disabled.
func (r *Resilient) State() gobreaker.State {
	if r.breaker == nil {
		return gobreaker.StateClosed
	}
	return r.breaker.State()
}

func (r *Resilient) Fetch(ctx context.Context) ([]MarketDataRow, error) {
	if r.breaker == nil {
		return r.fetchWithRetry(ctx)
	}
	res, err := r.breaker.Execute(func() (interface{}, error) {
		return r.fetchWithRetry(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("breaker %s: %v: %w", r.breaker.Name(), err, ErrConnection)
	}
	if err != nil {
		return nil, err
	}
	rows, _ := res.([]MarketDataRow)
	return rows, nil
}

func (r *Resilient) fetchWithRetry(ctx context.Context) ([]MarketDataRow, error) {
	if r.cfg.Retries == 0 {
		return r.src.Fetch(ctx)
	}
	op := func() ([]MarketDataRow, error) {
		rows, err := r.src.Fetch(ctx)
		if err != nil && !errors.Is(err, ErrConnection) {
			return nil, backoff.Permanent(err)
		}
		return rows, err
	}
	return backoff.RetryWithData(op, r.newBackOff(ctx))
}

func (r *Resilient) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if r.cfg.InitialInterval > 0 {
		b.InitialInterval = r.cfg.InitialInterval
	}
	if r.cfg.MaxInterval > 0 {
		b.MaxInterval = r.cfg.MaxInterval
	}
	b.MaxElapsedTime = 0
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.1
	return backoff.WithContext(backoff.WithMaxRetries(b, r.cfg.Retries), ctx)
}
