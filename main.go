package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/dal"
	"github.com/joltify-finance/token-staking/service"
	"github.com/joltify-finance/token-staking/stakemgr"
	"github.com/joltify-finance/token-staking/stakingserver"
	"github.com/joltify-finance/token-staking/tokenledger"
	"github.com/joltify-finance/token-staking/utils"
)

var (
	cfg *config
)

func startProfileServer() {
	listenAddr := net.JoinHostPort("localhost", cfg.ProfilePort)
	stkdLog.Infof("Profile server listening on %s", listenAddr)
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	stkdLog.Errorf("%v", http.ListenAndServe(listenAddr, mux))
}

// openDatabase connects to the configured database.
func openDatabase() (*gorm.DB, error) {
	err := dal.InitDB(&dal.DBConfig{
		Type:         cfg.DbType,
		Username:     cfg.DbUsername,
		Password:     cfg.DbPassword,
		Address:      cfg.DbAddress,
		DatabaseName: cfg.DbName,
		Path:         cfg.DbPath,
	}, !cfg.DisableAutoCreateDB)
	if err != nil {
		return nil, err
	}
	return dal.GlobalDBClient, nil
}

// setupLedger builds the token ledger and the staking ledger on top of db
// and restores the persisted state.  The faucet is only returned on networks
// with an in-process token.
func setupLedger(ctx context.Context, db *gorm.DB) (*stakemgr.Ledger, tokenAdmin, stakingserver.Faucet, error) {
	var (
		token tokenAdmin
		fc    stakingserver.Faucet
	)
	if netParams.UseMemTokenLedger {
		mem := memTokenAdmin{tokenledger.NewMemLedger(simnetTokenAddress)}
		mem.MemLedger.GrantMinter(simnetFaucetAddress)
		token = mem
		fc = &faucet{token: mem, minter: simnetFaucetAddress, pool: cfg.poolAddress}
		stkdLog.Infof("Using the in-process token, faucet minter %v", simnetFaucetAddress.Hex())
	} else {
		token = service.NewTokenLedgerService(db)
	}

	ledger, err := stakemgr.New(&stakemgr.Config{
		PoolAddress: cfg.poolAddress,
		Token:       token,
		Store:       service.NewLedgerStore(db),
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if err := ledger.Load(ctx); err != nil {
		return nil, nil, nil, err
	}
	return ledger, token, fc, nil
}

// initializeLedger creates the pool from the --initparams file when the
// persisted state has none yet.
func initializeLedger(ctx context.Context, ledger *stakemgr.Ledger, token tokenAdmin) error {
	if ledger.Initialized() {
		if cfg.InitParams != "" {
			stkdLog.Infof("Pool already initialized, ignoring %v", cfg.InitParams)
		}
		return nil
	}
	if cfg.InitParams == "" {
		stkdLog.Warnf("Pool is not initialized, restart with --initparams to create it")
		return nil
	}

	admin, params, err := loadInitParams(cfg.InitParams, cfg.poolAddress, cfg.splitMode)
	if err != nil {
		return fmt.Errorf("load init params: %w", err)
	}
	var extra []common.Address
	if netParams.UseMemTokenLedger {
		extra = append(extra, simnetFaucetAddress)
	}
	if err := bootstrapToken(ctx, token, params.Token, cfg.poolAddress, extra...); err != nil {
		return fmt.Errorf("bootstrap token: %w", err)
	}
	return ledger.Initialize(ctx, admin, params)
}

func stakingMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg

	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Catch interrupt signals from here on, so that a SIGINT during a slow
	// database connect still shuts down through interruptHandlersDone.
	addInterruptHandler(func() {})

	defer stkdLog.Info("Shutdown complete")
	defer utils.MyRecover()

	// Enable http profiling server if requested.
	if cfg.ProfilePort != "" {
		go func() {
			startProfileServer()
		}()
	}

	db, err := openDatabase()
	if err != nil {
		stkdLog.Errorf("Unable to open database: %v", err)
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	ctx := context.Background()
	ledger, token, fc, err := setupLedger(ctx, db)
	if err != nil {
		stkdLog.Errorf("Unable to load the staking ledger: %v", err)
		return err
	}
	if err := initializeLedger(ctx, ledger, token); err != nil {
		stkdLog.Errorf("Unable to initialize the pool: %v", err)
		return err
	}

	svr, err := newServer(cfg, ledger, db, fc)
	if err != nil {
		stkdLog.Errorf("Unable to start server: %v", err)
		return err
	}
	svr.Start(cfg.TraceEvents)
	addInterruptHandler(func() {
		stkdLog.Infof("Gracefully shutting down the server...")
		svr.Stop()
	})

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as the REST
	// API.
	<-interruptHandlersDone
	return nil
}

func main() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Bursts of settlement allocate many short lived big integers.  This
	// limits the garbage collector from excessively overallocating.
	debug.SetGCPercent(10)

	if err := stakingMain(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
