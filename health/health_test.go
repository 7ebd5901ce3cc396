// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshNodeIsUnhealthy(t *testing.T) {
	h := New()

	status := h.Status(0)
	assert.False(t, status.Healthy)
	assert.False(t, status.APIReady)
	assert.Nil(t, status.LastSweep)
}

func TestHealthyAfterSignals(t *testing.T) {
	h := New()
	h.APIReady(true)
	h.SweepCompleted()

	status := h.Status(0)
	assert.True(t, status.Healthy)
	require.NotNil(t, status.LastSweep)
	assert.WithinDuration(t, time.Now(), *status.LastSweep, time.Second)
}

func TestStaleSweepIsUnhealthy(t *testing.T) {
	h := New()
	h.APIReady(true)
	h.lastSweep = time.Now().Add(-time.Hour)

	assert.False(t, h.Status(time.Minute).Healthy)
	assert.True(t, h.Status(2*time.Hour).Healthy)
}

func TestAPIDownIsUnhealthy(t *testing.T) {
	h := New()
	h.APIReady(true)
	h.SweepCompleted()
	h.APIReady(false)

	assert.False(t, h.Status(0).Healthy)
}

func TestEventDelivered(t *testing.T) {
	h := New()
	assert.Nil(t, h.Status(0).LastEventTime)

	h.EventDelivered()
	require.NotNil(t, h.Status(0).LastEventTime)
}
