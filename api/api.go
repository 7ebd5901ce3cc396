// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/levrprotocol/levr/api/events"
	"github.com/levrprotocol/levr/api/rewards"
	"github.com/levrprotocol/levr/api/stakes"
	"github.com/levrprotocol/levr/api/subscriptions"
	"github.com/levrprotocol/levr/eventdb"
	"github.com/levrprotocol/levr/log"
	"github.com/levrprotocol/levr/staking"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
	EventsLimit     uint64
	SoloMode        bool
}

// New return api router
func New(
	engine *staking.Staking,
	eventDB *eventdb.EventDB,
	broadcaster *subscriptions.Broadcaster,
	engineLock *sync.Mutex,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	// one lock serializes all mutating engine operations; callers running
	// engine operations outside the API must share it
	if engineLock == nil {
		engineLock = new(sync.Mutex)
	}

	stakes.New(engine, engineLock, opts.SoloMode).
		Mount(router, "/stakes")
	rewards.New(engine, engineLock, opts.SoloMode).
		Mount(router, "/rewards")
	events.New(eventDB, opts.EventsLimit).
		Mount(router, "/events")
	subs := subscriptions.New(broadcaster, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
