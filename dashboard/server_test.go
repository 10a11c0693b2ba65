package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-dashboard/marketdata"
)

func newTestDashboard(t *testing.T, src marketdata.Source) (*Dashboard, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := DefaultConfig()
	cfg.RefreshRate = 0.001
	cfg.RefreshBurst = 1
	d, err := New(cfg, src, nil, nil, nil)
	require.NoError(t, err)
	router, err := d.Router()
	require.NoError(t, err)
	return d, router
}

func doRequest(router http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestNewRejectsZeroInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RefreshInterval = 0
	_, err := New(cfg, &stubSource{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestIndexPage(t *testing.T) {
	_, router := newTestDashboard(t, &stubSource{})

	w := doRequest(router, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<h1>Portfolio Manager Dashboard</h1>")
	assert.Contains(t, body, `id="live-pnl"`)
	assert.Contains(t, body, `id="live-risk"`)
	assert.Regexp(t, `const refreshMs = \s*5000\s*;`, body)
}

func TestFiguresEndpoint(t *testing.T) {
	d, router := newTestDashboard(t, &stubSource{rows: rowsFromValues(100, 105, 99)})

	w := doRequest(router, http.MethodGet, "/api/figures")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	_, err := d.Scheduler().RunOnce(context.Background())
	require.NoError(t, err)

	w = doRequest(router, http.MethodGet, "/api/figures")
	require.Equal(t, http.StatusOK, w.Code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.Tick)
	assert.Equal(t, TitlePnL, snap.Figures.PnL.Layout.Title)
	assert.Len(t, snap.Figures.Risk.Data[0].Y, 3)
	assert.Nil(t, snap.Error)
}

func TestRefreshEndpointRateLimited(t *testing.T) {
	src := &stubSource{rows: rowsFromValues(100, 105, 99)}
	_, router := newTestDashboard(t, src)

	w := doRequest(router, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, src.Calls())

	w = doRequest(router, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, src.Calls())
}

func TestRefreshEndpointReportsFailure(t *testing.T) {
	src := &stubSource{err: fmt.Errorf("dial: %w", marketdata.ErrConnection)}
	_, router := newTestDashboard(t, src)

	w := doRequest(router, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusBadGateway, w.Code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.NotNil(t, snap.Error)
	assert.Equal(t, KindConnection, snap.Error.Kind)
}

func TestHealthAndMetrics(t *testing.T) {
	d, router := newTestDashboard(t, &stubSource{rows: rowsFromValues(100, 105, 99)})
	_, err := d.Scheduler().RunOnce(context.Background())
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["lastTick"])

	w = doRequest(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "portfolio_dashboard_ticks_total 1"))
}
