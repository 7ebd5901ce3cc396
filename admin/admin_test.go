// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrprotocol/levr/health"
	"github.com/levrprotocol/levr/log"
)

func newAdminServer(t *testing.T) (*httptest.Server, *slog.LevelVar, *health.Health) {
	logLevel := &slog.LevelVar{}
	logLevel.Set(log.LevelInfo)
	healthStatus := health.New()

	server := httptest.NewServer(HTTPHandler(logLevel, healthStatus))
	t.Cleanup(server.Close)
	return server, logLevel, healthStatus
}

func TestGetLogLevel(t *testing.T) {
	server, _, _ := newAdminServer(t)

	resp, err := http.Get(server.URL + "/admin/loglevel")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body logLevelResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INFO", body.CurrentLevel)
}

func TestSetLogLevel(t *testing.T) {
	server, logLevel, _ := newAdminServer(t)

	payload, _ := json.Marshal(logLevelRequest{Level: "debug"})
	resp, err := http.Post(server.URL+"/admin/loglevel", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, log.LevelDebug, logLevel.Level())
}

func TestSetInvalidLogLevel(t *testing.T) {
	server, logLevel, _ := newAdminServer(t)

	payload, _ := json.Marshal(logLevelRequest{Level: "loud"})
	resp, err := http.Post(server.URL+"/admin/loglevel", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, log.LevelInfo, logLevel.Level())
}

func TestHealthEndpoint(t *testing.T) {
	server, _, healthStatus := newAdminServer(t)

	resp, err := http.Get(server.URL + "/admin/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	healthStatus.APIReady(true)
	healthStatus.SweepCompleted()

	resp, err = http.Get(server.URL + "/admin/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status health.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Healthy)
}
