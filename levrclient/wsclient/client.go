// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package wsclient subscribes to the live event feed of an engine node.
package wsclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/levrprotocol/levr/levrclient/common"
	"github.com/levrprotocol/levr/staking"
)

type Client struct {
	host   string
	scheme string
}

func NewClient(rawURL string) (*Client, error) {
	var host string
	var scheme string

	switch {
	case strings.Contains(rawURL, "https://") || strings.Contains(rawURL, "wss://"):
		host = strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "wss://")
		scheme = "wss"
	case strings.Contains(rawURL, "http://") || strings.Contains(rawURL, "ws://"):
		host = strings.TrimPrefix(strings.TrimPrefix(rawURL, "http://"), "ws://")
		scheme = "ws"
	default:
		return nil, fmt.Errorf("invalid url")
	}

	return &Client{
		host:   strings.TrimSuffix(host, "/"),
		scheme: scheme,
	}, nil
}

// SubscribeEvents opens the event feed. query carries optional filters such
// as "kind=stake".
func (c *Client) SubscribeEvents(query string) (<-chan common.EventWrapper[*staking.Event], error) {
	conn, err := c.connect("/subscriptions/events", query)
	if err != nil {
		return nil, fmt.Errorf("unable to connect - %w", err)
	}

	return subscribe[staking.Event](conn), nil
}

// subscribe pumps messages from the websocket connection into a typed
// channel. The channel closes when the connection drops.
func subscribe[T any](conn *websocket.Conn) <-chan common.EventWrapper[*T] {
	eventChan := make(chan common.EventWrapper[*T])

	go func() {
		defer close(eventChan)
		defer conn.Close()

		for {
			var data T
			if err := conn.ReadJSON(&data); err != nil {
				eventChan <- common.EventWrapper[*T]{Error: fmt.Errorf("%w: %w", common.ErrUnexpectedMsg, err)}
				return
			}
			eventChan <- common.EventWrapper[*T]{Data: &data}
		}
	}()

	return eventChan
}

func (c *Client) connect(endpoint, rawQuery string) (*websocket.Conn, error) {
	u := url.URL{
		Scheme:   c.scheme,
		Host:     c.host,
		Path:     endpoint,
		RawQuery: rawQuery,
	}

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		resp.Body.Close()
	}
	return conn, nil
}
