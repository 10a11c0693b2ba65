package monitor

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTick(t *testing.T) {
	m := New(DefaultConfig())

	m.RecordTick(0.1, "")
	m.RecordTick(0.2, "connection")
	m.RecordTick(0.3, "connection")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tickErrors.WithLabelValues("connection")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.tickErrors.WithLabelValues("query")))
}

func TestUpdateSummary(t *testing.T) {
	m := New(DefaultConfig())
	m.UpdateSummary(3, 304, -0.07, 1700000000)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.rowsFetched))
	assert.Equal(t, 304.0, testutil.ToFloat64(m.pnl))
	assert.Equal(t, -0.07, testutil.ToFloat64(m.riskExposure))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.lastSuccess))
}

func TestGaugesAndHandler(t *testing.T) {
	m := New(DefaultConfig())
	m.UpdateBreakerState(2)
	m.AddWSClients(2)
	m.AddWSClients(-1)
	m.RecordAlert("WARNING")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.breakerState))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alerts.WithLabelValues("WARNING")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_dashboard_ticks_total")
}
