package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/dal"
	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/service"
)

type stubLedger struct {
	mtx     sync.Mutex
	now     int64
	pruned  int
	prunes  int
	failErr error
}

func (l *stubLedger) Now() int64 {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.now
}

func (l *stubLedger) Stats(context.Context) (*model.PoolStats, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.failErr != nil {
		return nil, l.failErr
	}
	return &model.PoolStats{
		Timestamp:    l.now,
		TotalStaked:  sdkmath.NewInt(1000),
		TotalSupply:  sdkmath.NewInt(10000),
		APR:          sdkmath.NewInt(75),
		SupplyRate:   sdkmath.ZeroInt(),
		Accounts:     2,
		OpenAccounts: 1,
	}, nil
}

func (l *stubLedger) PruneHistory(context.Context) (int, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.prunes++
	return l.pruned, nil
}

func newDB(t *testing.T) *gorm.DB {
	db, err := dal.OpenDB(&dal.DBConfig{Type: dal.DBTypeSQLite, Path: ":memory:"}, true)
	require.NoError(t, err)
	return db
}

func snapshotCount(t *testing.T, db *gorm.DB) int64 {
	_, total, err := service.GetQueryService().GetSnapshots(context.Background(), db, 1, 100, true)
	require.NoError(t, err)
	return total
}

func TestNewRejects(t *testing.T) {
	_, err := New(&Config{})
	require.Error(t, err)

	_, err = New(&Config{Ledger: &stubLedger{}, SnapshotSpec: "0 * * * * *"})
	require.Error(t, err)

	_, err = New(&Config{Ledger: &stubLedger{}, PruneSpec: "not a spec"})
	require.Error(t, err)

	s, err := New(&Config{Ledger: &stubLedger{}, DB: newDB(t), SnapshotSpec: "0 */5 * * * *", PruneSpec: "0 0 * * * *"})
	require.NoError(t, err)
	require.Len(t, s.cron.Entries(), 2)
}

func TestSnapshotAndPrune(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	ledger := &stubLedger{now: 1000, pruned: 3}
	s, err := New(&Config{Ledger: ledger, DB: db, SnapshotRetention: 2000})
	require.NoError(t, err)

	require.NoError(t, s.SnapshotNow(ctx))
	ledger.now = 5000
	require.NoError(t, s.SnapshotNow(ctx))
	require.Equal(t, int64(2), snapshotCount(t, db))

	snaps, _, err := service.GetQueryService().GetSnapshots(ctx, db, 1, 10, true)
	require.NoError(t, err)
	require.Equal(t, int64(1000), snaps[0].Timestamp)
	require.Equal(t, "1000", snaps[0].TotalStaked.String())
	require.Equal(t, int64(1), snaps[0].OpenAccounts)

	// Snapshots before now - retention go away.
	ledger.now = 6000
	require.NoError(t, s.PruneNow(ctx))
	require.Equal(t, 1, ledger.prunes)
	require.Equal(t, int64(1), snapshotCount(t, db))

	ledger.failErr = errors.New("boom")
	require.Error(t, s.SnapshotNow(ctx))
	require.Equal(t, int64(1), snapshotCount(t, db))
}

func TestPruneWithoutDatabase(t *testing.T) {
	ledger := &stubLedger{now: 1000}
	s, err := New(&Config{Ledger: ledger, SnapshotRetention: 10})
	require.NoError(t, err)
	require.NoError(t, s.PruneNow(context.Background()))
	require.Equal(t, 1, ledger.prunes)
	require.Error(t, s.SnapshotNow(context.Background()))
}

func TestCronRunsJobs(t *testing.T) {
	db := newDB(t)
	ledger := &stubLedger{now: 1000}
	s, err := New(&Config{Ledger: ledger, DB: db, SnapshotSpec: "* * * * * *", PruneSpec: "* * * * * *"})
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		ledger.mtx.Lock()
		prunes := ledger.prunes
		ledger.mtx.Unlock()
		return prunes > 0 && snapshotCount(t, db) > 0
	}, 5*time.Second, 50*time.Millisecond)
}
