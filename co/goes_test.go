// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoesWait(t *testing.T) {
	var goes Goes
	var n int32
	for i := 0; i < 10; i++ {
		goes.Go(func() {
			atomic.AddInt32(&n, 1)
		})
	}
	goes.Wait()
	assert.Equal(t, int32(10), atomic.LoadInt32(&n))
}

func TestGoesDone(t *testing.T) {
	var goes Goes
	release := make(chan struct{})
	goes.Go(func() { <-release })

	select {
	case <-goes.Done():
		t.Fatal("done before goroutine returned")
	case <-time.After(10 * time.Millisecond):
	}

	close(release)
	select {
	case <-goes.Done():
	case <-time.After(time.Second):
		t.Fatal("done never closed")
	}
}
