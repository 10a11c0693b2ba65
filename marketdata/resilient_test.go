package marketdata

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls int
	errs  []error
}

func (s *countingSource) Fetch(context.Context) ([]MarketDataRow, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return []MarketDataRow{{AssetValue: 1, Quantity: 1}}, nil
}

func connErr() error { return fmt.Errorf("dial: %w", ErrConnection) }

func fastResilience() ResilienceConfig {
	cfg := DefaultResilienceConfig()
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 2 * time.Millisecond
	return cfg
}

func TestResilientNoRetryByDefault(t *testing.T) {
	src := &countingSource{errs: []error{connErr()}}
	r := NewResilient(src, fastResilience(), nil)

	_, err := r.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, 1, src.calls)
}

func TestResilientRetriesConnectionErrors(t *testing.T) {
	src := &countingSource{errs: []error{connErr(), connErr(), nil}}
	cfg := fastResilience()
	cfg.Retries = 3
	r := NewResilient(src, cfg, nil)

	rows, err := r.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 3, src.calls)
}

func TestResilientDoesNotRetryQueryErrors(t *testing.T) {
	src := &countingSource{errs: []error{fmt.Errorf("bad column: %w", ErrQuery)}}
	cfg := fastResilience()
	cfg.Retries = 3
	r := NewResilient(src, cfg, nil)

	_, err := r.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrQuery)
	assert.Equal(t, 1, src.calls)
}

func TestResilientBreakerOpens(t *testing.T) {
	src := &countingSource{errs: []error{connErr(), connErr(), connErr()}}
	cfg := fastResilience()
	cfg.BreakerFailures = 2
	cfg.BreakerOpenFor = time.Hour

	var transitions []gobreaker.State
	r := NewResilient(src, cfg, func(_, to gobreaker.State) {
		transitions = append(transitions, to)
	})

	for i := 0; i < 2; i++ {
		_, err := r.Fetch(context.Background())
		require.ErrorIs(t, err, ErrConnection)
	}
	assert.Equal(t, gobreaker.StateOpen, r.State())

	_, err := r.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrConnection)
	assert.True(t, errors.Is(err, ErrConnection))
	assert.Equal(t, 2, src.calls, "open breaker must not reach the source")
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}

func TestResilientQueryErrorsDoNotTripBreaker(t *testing.T) {
	qerr := fmt.Errorf("x: %w", ErrQuery)
	src := &countingSource{errs: []error{qerr, qerr, qerr}}
	cfg := fastResilience()
	cfg.BreakerFailures = 1
	r := NewResilient(src, cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := r.Fetch(context.Background())
		assert.ErrorIs(t, err, ErrQuery)
	}
	assert.Equal(t, gobreaker.StateClosed, r.State())
}
