package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/eventbus"
	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/restapi"
	"github.com/joltify-finance/token-staking/scheduler"
	"github.com/joltify-finance/token-staking/stakemgr"
	"github.com/joltify-finance/token-staking/stakingserver"
)

// server wires the staking ledger to its transports and background jobs.
type server struct {
	ledger *stakemgr.Ledger

	rpcServer  *stakingserver.StakingServer
	restServer *restapi.Server
	pubsub     *eventbus.PubSub
	publisher  *eventbus.Publisher
	scheduler  *scheduler.Scheduler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newServer(cfg *config, ledger *stakemgr.Ledger, db *gorm.DB, fc stakingserver.Faucet) (*server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &server{ledger: ledger, ctx: ctx, cancel: cancel}

	rpcCfg := &stakingserver.Config{
		DisableTLS:           cfg.DisableTLS,
		ListenersString:      cfg.Listeners,
		StartupTime:          time.Now().Unix(),
		RPCUser:              cfg.RPCUser,
		RPCPass:              cfg.RPCPass,
		RPCLimitUser:         cfg.RPCLimitUser,
		RPCLimitPass:         cfg.RPCLimitPass,
		RPCMaxClients:        cfg.RPCMaxClients,
		RPCMaxWebsockets:     cfg.RPCMaxWebsockets,
		RPCMaxConcurrentReqs: cfg.RPCMaxConcurrentReqs,
		RPCKey:               cfg.RPCKey,
		RPCCert:              cfg.RPCCert,
		ExternalIPs:          cfg.ExternalIPs,
		SignatureWindow:      cfg.SignatureWindow,
		ReplayCacheSize:      cfg.ReplayCacheSize,
		Ledger:               ledger,
		DB:                   db,
		Faucet:               fc,
	}
	rpcServer, err := stakingserver.NewStakingServer(rpcCfg)
	if err != nil {
		cancel()
		return nil, err
	}
	s.rpcServer = rpcServer

	if !cfg.DisableREST {
		s.restServer, err = restapi.NewServer(ledger, db, cfg.RESTListen, cfg.RESTToken)
		if err != nil {
			s.closeListeners()
			return nil, err
		}
	}

	if cfg.EventBus != defaultEventBus {
		s.pubsub, err = eventbus.NewPubSub(&eventbus.Config{
			Backend:       cfg.EventBus,
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			Topic:         cfg.EventTopic,
		})
		if err != nil {
			s.closeListeners()
			return nil, err
		}
		s.publisher = eventbus.NewPublisher(s.pubsub.Publisher, s.pubsub.Topic, cfg.EventQueueSize)
		ledger.Subscribe(s.publisher)
	}

	var retention int64
	if cfg.SnapshotRetention > 0 {
		retention = int64(cfg.SnapshotRetention / time.Second)
	}
	snapshotSpec := cfg.SnapshotSpec
	if db == nil {
		snapshotSpec = ""
	}
	if snapshotSpec != "" || cfg.PruneSpec != "" {
		s.scheduler, err = scheduler.New(&scheduler.Config{
			SnapshotSpec:      snapshotSpec,
			PruneSpec:         cfg.PruneSpec,
			SnapshotRetention: retention,
			Ledger:            ledger,
			DB:                db,
		})
		if err != nil {
			s.closeListeners()
			return nil, err
		}
	}

	return s, nil
}

// closeListeners releases what newServer acquired when a later step fails.
func (s *server) closeListeners() {
	s.cancel()
	if s.restServer != nil {
		s.restServer.Close()
	}
	if s.pubsub != nil {
		s.pubsub.Close()
	}
	// Start was never called, so Stop only closes the listeners.
	s.rpcServer.Stop()
}

// traceEvents logs every event carried by the bus.
func (s *server) traceEvents() {
	defer s.wg.Done()
	err := eventbus.Consume(s.ctx, s.pubsub.Subscriber, s.pubsub.Topic, func(ev *model.Event) error {
		stkdLog.Infof("Event bus: %v at %d", ev.Type, ev.Timestamp)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		stkdLog.Errorf("Event bus consumer stopped: %v", err)
	}
}

// Start begins serving requests and running the background jobs.
func (s *server) Start(traceEvents bool) {
	if s.publisher != nil {
		s.publisher.Start()
		if traceEvents {
			s.wg.Add(1)
			go s.traceEvents()
		}
	}

	s.rpcServer.Start()

	if s.restServer != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.restServer.Run(s.ctx); err != nil {
				stkdLog.Errorf("REST API stopped: %v", err)
				requestShutdown()
			}
		}()
	}

	if s.scheduler != nil {
		s.scheduler.Start()
	}
}

// Stop shuts the subsystems down in the reverse order of Start.
func (s *server) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if err := s.rpcServer.Stop(); err != nil {
		stkdLog.Errorf("Unable to stop RPC server: %v", err)
	}

	s.cancel()
	s.wg.Wait()

	if s.publisher != nil {
		s.publisher.Stop()
		stkdLog.Infof("Event bus publisher stopped, %d %s dropped", s.publisher.Dropped(),
			pickNoun(int(s.publisher.Dropped()), "event", "events"))
	}
	if s.pubsub != nil {
		if err := s.pubsub.Close(); err != nil {
			stkdLog.Errorf("Unable to close event bus: %v", err)
		}
	}
}
