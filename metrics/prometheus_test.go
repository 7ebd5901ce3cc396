// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopByDefault(t *testing.T) {
	// the default service drops everything and exposes no handler
	Counter("noop_counter_test").Add(1)
	Gauge("noop_gauge_test").Set(5)
	assert.Nil(t, HTTPHandler())
}

func TestPrometheusMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	Counter("claims_count").Add(3)
	CounterVec("credited_amounts", []string{"token"}).AddWithLabel(7, map[string]string{"token": "0x01"})
	Gauge("total_staked_gauge").Set(42)
	Histogram("api_request_duration_ms", BucketHTTPReqs).Observe(12)

	server := httptest.NewServer(HTTPHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "levr_metrics_claims_count 3"), text)
	assert.Contains(t, text, `levr_metrics_credited_amounts{token="0x01"} 7`)
	assert.Contains(t, text, "levr_metrics_total_staked_gauge 42")
}

func TestGetOrCreateReturnsSameMeter(t *testing.T) {
	InitializePrometheusMetrics()

	first := Counter("same_meter_count")
	second := Counter("same_meter_count")
	assert.Equal(t, first, second)
}
