package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vovakirdan/ircserv/internal/metrics"
)

type fixedStats struct {
	clients, channels int
}

func (s fixedStats) ClientCount() int { return s.clients }

func (s fixedStats) ChannelCount() int { return s.channels }

func newTestServer(t *testing.T, reg *prometheus.Registry) *http.Server {
	t.Helper()
	logger := zerolog.Nop()
	return NewServer(":0", fixedStats{clients: 3, channels: 2}, reg, &logger)
}

func TestHealthReportsCounts(t *testing.T) {
	srv := newTestServer(t, metrics.NewRegistry())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	srv.Handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, HealthResponse{Status: "ok", Clients: 3, Channels: 2}, body)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := metrics.NewRegistry()
	set := metrics.NewSet(reg)
	set.Connections.Opened()
	srv := newTestServer(t, reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	srv.Handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.Contains(resp.Body.String(), "ircserv_"), "namespaced metrics exported")
}

func TestUnknownPath(t *testing.T) {
	srv := newTestServer(t, metrics.NewRegistry())

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	resp := httptest.NewRecorder()
	srv.Handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}
