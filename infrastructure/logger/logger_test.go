package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Outputs = []string{"file"}
	cfg.OutputFile = filepath.Join(dir, "dashboard.log")
	cfg.ErrorFile = filepath.Join(dir, "dashboard_errors.log")

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("hello")
	l.LogError(errors.New("boom"), map[string]interface{}{"kind": "connection"})
	_ = l.Close()

	out, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "hello")

	errOut, err := os.ReadFile(cfg.ErrorFile)
	require.NoError(t, err)
	assert.Contains(t, string(errOut), "boom")
	assert.NotContains(t, string(errOut), "hello")
}

func TestSetLevel(t *testing.T) {
	l, err := New(Config{Level: "info", Outputs: []string{}})
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, l.Level())

	require.NoError(t, l.SetLevel("error"))
	assert.Equal(t, zapcore.ErrorLevel, l.Level())
	assert.Error(t, l.SetLevel("nope"))

	child := l.WithFields(map[string]interface{}{"component": "test"})
	require.NoError(t, child.SetLevel("debug"))
	assert.Equal(t, zapcore.DebugLevel, l.Level(), "children share the level")
}

func TestEventHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core))

	l.LogTick("tick_done", 7, map[string]interface{}{"rows": 3})
	l.LogRisk("exposure_floor", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "tick_event", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, uint64(7), ctx["tick"])
	assert.Equal(t, "tick_done", ctx["event"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}
