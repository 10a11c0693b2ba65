package container

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-dashboard/infrastructure/logger"
)

type fakeComponent struct {
	name     string
	startErr error
	events   *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	*f.events = append(*f.events, "start:"+f.name)
	return nil
}

func (f *fakeComponent) Stop() error {
	*f.events = append(*f.events, "stop:"+f.name)
	return nil
}

func (f *fakeComponent) Health() error { return nil }

func TestLifecycleOrder(t *testing.T) {
	var events []string
	m := NewLifecycleManager()
	m.Register(&fakeComponent{name: "a", events: &events})
	m.Register(&fakeComponent{name: "b", events: &events})

	require.NoError(t, m.StartAll(context.Background()))
	require.NoError(t, m.StopAll())
	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, events)
}

func TestLifecycleRollback(t *testing.T) {
	var events []string
	m := NewLifecycleManager()
	m.Register(&fakeComponent{name: "a", events: &events})
	m.Register(&fakeComponent{name: "b", events: &events, startErr: errors.New("port busy")})

	err := m.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start b failed")
	assert.Equal(t, []string{"start:a", "stop:a"}, events)
}

func TestLoopComponent(t *testing.T) {
	ran := make(chan struct{})
	l := &loopComponent{
		name: "loop",
		log:  logger.NewNop(),
		run: func(ctx context.Context) error {
			close(ran)
			<-ctx.Done()
			return ctx.Err()
		},
	}
	assert.Error(t, l.Health())

	require.NoError(t, l.Start(context.Background()))
	<-ran
	assert.NoError(t, l.Health())

	require.NoError(t, l.Stop())
	assert.Error(t, l.Health())
	assert.NoError(t, l.Stop())
}

func TestHTTPServerComponentBindError(t *testing.T) {
	first := &httpServerComponent{name: "first", addr: "127.0.0.1:0", logger: logger.NewNop()}
	require.NoError(t, first.Start(context.Background()))
	defer first.Stop()

	second := &httpServerComponent{name: "second", addr: first.Addr(), logger: logger.NewNop()}
	assert.Error(t, second.Start(context.Background()))
	assert.Error(t, second.Health())
}
