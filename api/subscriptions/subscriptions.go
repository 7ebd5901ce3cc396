// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams live engine events over websocket.
package subscriptions

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/levrprotocol/levr/api/restutil"
	"github.com/levrprotocol/levr/log"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	pingPeriod = 10 * time.Second
	writeWait  = 5 * time.Second
)

// Subscriptions upgrades clients to websocket and feeds them engine events
// as they happen.
type Subscriptions struct {
	broadcaster *Broadcaster
	upgrader    *websocket.Upgrader

	done chan struct{}
	wg   sync.WaitGroup
}

func New(broadcaster *Broadcaster, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		broadcaster: broadcaster,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	kinds := map[string]bool{}
	for _, k := range req.URL.Query()["kind"] {
		kinds[k] = true
	}

	// register before the handshake completes so no event published right
	// after the client's dial returns is missed
	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already responded
		return nil
	}
	defer conn.Close()

	s.wg.Add(1)
	defer s.wg.Done()

	// reader loop detects client-side close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-req.Context().Done():
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case ev := <-ch:
			if len(kinds) > 0 && !kinds[ev.Kind] {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug("failed to write event", "err", err)
				return nil
			}
		}
	}
}

// Close terminates all live subscriber connections.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("GET /subscriptions/events").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvents))
}
