// Package scheduler runs the periodic maintenance of the pool: snapshots of
// the pool statistics and the pruning of history nothing can reach.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/service"
)

const jobTimeout = time.Minute

// Ledger is the part of stakemgr.Ledger the jobs need.
type Ledger interface {
	Now() int64
	Stats(ctx context.Context) (*model.PoolStats, error)
	PruneHistory(ctx context.Context) (int, error)
}

type Config struct {
	// SnapshotSpec is a cron spec with seconds.  Empty disables snapshots.
	SnapshotSpec string
	// PruneSpec is a cron spec with seconds.  Empty disables pruning.
	PruneSpec string
	// SnapshotRetention is how long snapshots are kept, in seconds.  Zero
	// keeps them forever.
	SnapshotRetention int64

	Ledger Ledger
	DB     *gorm.DB
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
}

// cronLogger routes the cron library logging to the subsystem logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Tracef("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Errorf("cron: %s %v: %v", msg, keysAndValues, err)
}

// New returns a scheduler with the jobs of cfg registered.
func New(cfg *Config) (*Scheduler, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("scheduler: nil ledger")
	}
	if cfg.SnapshotSpec != "" && cfg.DB == nil {
		return nil, errors.New("scheduler: snapshots need a database")
	}

	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		cfg:    *cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.SnapshotSpec != "" {
		if _, err := s.cron.AddFunc(cfg.SnapshotSpec, s.snapshotTask); err != nil {
			cancel()
			return nil, fmt.Errorf("register snapshot task: %w", err)
		}
	}
	if cfg.PruneSpec != "" {
		if _, err := s.cron.AddFunc(cfg.PruneSpec, s.pruneTask); err != nil {
			cancel()
			return nil, fmt.Errorf("register prune task: %w", err)
		}
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Infof("Scheduler started with %d jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	log.Infof("Scheduler stopped")
}

func (s *Scheduler) snapshotTask() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	if err := s.SnapshotNow(ctx); err != nil {
		log.Errorf("Snapshot task failed: %v", err)
	}
}

func (s *Scheduler) pruneTask() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	if err := s.PruneNow(ctx); err != nil {
		log.Errorf("Prune task failed: %v", err)
	}
}

// SnapshotNow stores the current pool statistics.
func (s *Scheduler) SnapshotNow(ctx context.Context) error {
	if s.cfg.DB == nil {
		return errors.New("scheduler: snapshots need a database")
	}
	stats, err := s.cfg.Ledger.Stats(ctx)
	if err != nil {
		return err
	}
	if err := service.GetQueryService().SaveSnapshot(ctx, s.cfg.DB, stats); err != nil {
		return err
	}
	log.Debugf("Pool snapshot at %d: staked %v, apr %v, %d open accounts",
		stats.Timestamp, stats.TotalStaked, stats.APR, stats.OpenAccounts)
	return nil
}

// PruneNow drops the rate history entries no open deposit needs and the
// snapshots older than the retention.
func (s *Scheduler) PruneNow(ctx context.Context) error {
	dropped, err := s.cfg.Ledger.PruneHistory(ctx)
	if err != nil {
		return err
	}
	if dropped > 0 {
		log.Infof("Pruned %d rate history entries", dropped)
	}

	if s.cfg.DB == nil || s.cfg.SnapshotRetention <= 0 {
		return nil
	}
	before := s.cfg.Ledger.Now() - s.cfg.SnapshotRetention
	n, err := service.GetQueryService().PruneSnapshots(ctx, s.cfg.DB, before)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Infof("Pruned %d snapshots older than %d", n, before)
	}
	return nil
}
