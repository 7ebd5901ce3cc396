// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/levrprotocol/levr/admin"
	"github.com/levrprotocol/levr/api"
	"github.com/levrprotocol/levr/api/subscriptions"
	"github.com/levrprotocol/levr/eventdb"
	"github.com/levrprotocol/levr/health"
	"github.com/levrprotocol/levr/kv"
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/log"
	"github.com/levrprotocol/levr/metrics"
	"github.com/levrprotocol/levr/staking"
	"github.com/levrprotocol/levr/state"
	"github.com/levrprotocol/levr/token"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

// accrualInterval is how often the background scanner sweeps tracked
// reward tokens for untracked balance.
const accrualInterval = time.Minute

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "levr",
		Usage:     "Staking and reward distribution engine of the LEVR Protocol",
		Copyright: "2025 The LEVR Protocol developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			persistFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	configPath := ctx.String(configFlag.Name)
	if configPath == "" {
		return fmt.Errorf("config file not specified, use -%s to specify", configFlag.Name)
	}
	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeMetrics := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		logger.Info("metrics server started", "url", url)
		defer closeMetrics()
	}

	healthStatus := health.New()
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeAdmin, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, healthStatus)
		if err != nil {
			return err
		}
		logger.Info("admin server started", "url", url)
		defer closeAdmin()
	}

	var mainDB *kv.LevelDB
	var eventDB *eventdb.EventDB
	if ctx.Bool(persistFlag.Name) {
		dataDir := makeDataDir(ctx)
		mainDB = openMainDB(dataDir)
		eventDB = openEventDB(dataDir)
	} else {
		mainDB = openMemMainDB()
		eventDB = openMemEventDB()
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	st := state.New(mainDB)
	engine, broadcaster, err := buildEngine(config, st, eventDB)
	if err != nil {
		return err
	}

	var engineLock sync.Mutex
	apiHandler, closeAPI := api.New(engine, eventDB, broadcaster, &engineLock, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EventsLimit:     ctx.Uint64(apiEventsLimitFlag.Name),
		SoloMode:        true,
	})
	defer func() { logger.Info("closing API..."); closeAPI() }()

	apiURL, closeAPIServer := startAPIServer(ctx, apiHandler)
	healthStatus.APIReady(true)
	defer func() {
		logger.Info("stopping API server...")
		healthStatus.APIReady(false)
		closeAPIServer()
	}()

	printStartupMessage(config, apiURL, ctx.Bool(persistFlag.Name))

	// first sweep runs at startup so restarts pick up rewards that arrived
	// while the node was down
	sweepRewards(engine, &engineLock)
	healthStatus.SweepCompleted()

	group, groupCtx := errgroup.WithContext(handleExitSignal())
	group.Go(func() error {
		ticker := time.NewTicker(accrualInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				sweepRewards(engine, &engineLock)
				healthStatus.SweepCompleted()
			}
		}
	})
	return group.Wait()
}

func buildEngine(config *Config, st *state.State, eventDB *eventdb.EventDB) (*staking.Staking, *subscriptions.Broadcaster, error) {
	registry := token.NewRegistry()
	var underlying token.Token
	underlyingAddr := config.underlyingAddress()

	addLedger := func(addr levr.Address) {
		ledger := token.NewLedger(addr, st)
		registry.Add(ledger)
		if addr == underlyingAddr {
			underlying = ledger
		}
	}
	addLedger(underlyingAddr)
	for _, tc := range config.Tokens {
		addr := levr.MustParseAddress(tc.Address)
		if addr != underlyingAddr {
			addLedger(addr)
		}
	}

	broadcaster := subscriptions.NewBroadcaster(eventDB)
	engine := staking.New(
		config.engineAddress(), st, underlying, registry,
		staking.WithEventSink(broadcaster),
	)

	admin := config.adminAddress()
	if err := engine.Initialize(admin); err != nil {
		if err != staking.ErrAlreadyInitialized {
			return nil, nil, err
		}
		logger.Info("engine already initialized, skipping setup")
		return engine, broadcaster, nil
	}

	now := uint64(time.Now().Unix())
	for _, tc := range config.Tokens {
		if !tc.Whitelisted {
			continue
		}
		if err := engine.WhitelistToken(admin, levr.MustParseAddress(tc.Address), now); err != nil {
			return nil, nil, err
		}
	}
	return engine, broadcaster, nil
}

// sweepRewards runs reward detection over every tracked token.
func sweepRewards(engine *staking.Staking, lock *sync.Mutex) {
	tracked, err := engine.TrackedTokens()
	if err != nil {
		logger.Warn("failed to list tracked tokens", "err", err)
		return
	}
	now := uint64(time.Now().Unix())
	for _, tk := range tracked {
		lock.Lock()
		err := engine.AccrueRewards(tk, now)
		lock.Unlock()
		if err != nil {
			logger.Warn("reward sweep failed", "token", tk, "err", err)
		}
	}
}

func printStartupMessage(config *Config, apiURL string, persist bool) {
	storage := "memory"
	if persist {
		storage = "disk"
	}
	fmt.Printf(`Starting levr %v
    Engine       [ %v ]
    Underlying   [ %v ]
    Admin        [ %v ]
    Storage      [ %v ]
    API portal   [ %v ]
`,
		fullVersion(),
		config.Engine,
		config.Underlying,
		config.Admin,
		storage,
		apiURL)
}
