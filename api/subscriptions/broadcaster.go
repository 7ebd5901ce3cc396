// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"sync"

	"github.com/levrprotocol/levr/staking"
)

// subBufSize bounds the per-subscriber queue. A subscriber that cannot keep
// up loses events rather than stalling the engine.
const subBufSize = 256

// Broadcaster is an event sink that forwards every appended event to an
// inner sink and then fans it out to live subscribers.
type Broadcaster struct {
	inner staking.EventSink

	mu   sync.Mutex
	subs map[chan *staking.Event]struct{}
}

var _ staking.EventSink = (*Broadcaster)(nil)

// NewBroadcaster wraps the inner sink. A nil inner sink is allowed and
// makes the broadcaster fan-out only.
func NewBroadcaster(inner staking.EventSink) *Broadcaster {
	return &Broadcaster{
		inner: inner,
		subs:  make(map[chan *staking.Event]struct{}),
	}
}

func (b *Broadcaster) Append(events []*staking.Event) error {
	if b.inner != nil {
		if err := b.inner.Append(events); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default: // slow subscriber, drop
			}
		}
	}
	return nil
}

// Subscribe registers a new subscriber channel.
func (b *Broadcaster) Subscribe() chan *staking.Event {
	ch := make(chan *staking.Event, subBufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes the subscriber channel.
func (b *Broadcaster) Unsubscribe(ch chan *staking.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, ch)
}
