// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package health tracks liveness signals of a running engine node.
package health

import (
	"sync"
	"time"
)

// defaultMaxSweepAge is how stale the reward sweep may get before the node
// reports unhealthy.
const defaultMaxSweepAge = 5 * time.Minute

type Status struct {
	Healthy       bool       `json:"healthy"`
	APIReady      bool       `json:"apiReady"`
	LastSweep     *time.Time `json:"lastSweep"`
	LastEventTime *time.Time `json:"lastEventTime"`
}

// Health collects signals reported by the node's components.
type Health struct {
	lock      sync.RWMutex
	apiReady  bool
	lastSweep time.Time
	lastEvent time.Time
}

func New() *Health {
	return &Health{}
}

// APIReady marks the API server as up or down.
func (h *Health) APIReady(ready bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.apiReady = ready
}

// SweepCompleted records a finished reward sweep.
func (h *Health) SweepCompleted() {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastSweep = time.Now()
}

// EventDelivered records the delivery of engine events to the sink.
func (h *Health) EventDelivered() {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastEvent = time.Now()
}

// Status reports the node's health. maxSweepAge <= 0 selects the default.
func (h *Health) Status(maxSweepAge time.Duration) *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	if maxSweepAge <= 0 {
		maxSweepAge = defaultMaxSweepAge
	}

	status := &Status{
		APIReady: h.apiReady,
		Healthy:  h.apiReady && !h.lastSweep.IsZero() && time.Since(h.lastSweep) <= maxSweepAge,
	}
	if !h.lastSweep.IsZero() {
		t := h.lastSweep
		status.LastSweep = &t
	}
	if !h.lastEvent.IsZero() {
		t := h.lastEvent
		status.LastEventTime = &t
	}
	return status
}
