package stakemgr

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/model"
)

// Now returns the ledger time.
func (l *Ledger) Now() int64 {
	return l.clock.Now()
}

// Initialized reports whether Initialize has succeeded.
func (l *Ledger) Initialized() bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.state.Pool != nil
}

// Params resolves every governed value at the current time.
func (l *Ledger) Params() (*model.Params, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	pool, err := l.poolState()
	if err != nil {
		return nil, err
	}
	return pool.ParamsAt(l.clock.Now()), nil
}

func (l *Ledger) ForcedWithdrawalFee() (sdkmath.Int, error) {
	p, err := l.Params()
	if err != nil {
		return sdkmath.Int{}, err
	}
	return p.ForcedWithdrawalFee, nil
}

func (l *Ledger) WithdrawalLockDuration() (int64, error) {
	p, err := l.Params()
	if err != nil {
		return 0, err
	}
	return p.WithdrawalLockDuration, nil
}

func (l *Ledger) LPRewardAddress() (common.Address, error) {
	p, err := l.Params()
	if err != nil {
		return common.Address{}, err
	}
	return p.LPRewardAddress, nil
}

// APR returns the APR curve live now.
func (l *Ledger) APR() (emission.Curve, error) {
	p, err := l.Params()
	if err != nil {
		return emission.Curve{}, err
	}
	return p.APR, nil
}

func (l *Ledger) TotalSupplyFactor() (emission.Curve, error) {
	p, err := l.Params()
	if err != nil {
		return emission.Curve{}, err
	}
	return p.TotalSupplyFactor, nil
}

func (l *Ledger) UpdateDelayTime() (int64, error) {
	p, err := l.Params()
	if err != nil {
		return 0, err
	}
	return p.UpdateDelayTime, nil
}

func (l *Ledger) TotalStaked() (sdkmath.Int, error) {
	p, err := l.Params()
	if err != nil {
		return sdkmath.Int{}, err
	}
	return p.TotalStaked, nil
}

func (l *Ledger) StartTime() (int64, error) {
	p, err := l.Params()
	if err != nil {
		return 0, err
	}
	return p.StartTime, nil
}

func (l *Ledger) Admin() (common.Address, error) {
	p, err := l.Params()
	if err != nil {
		return common.Address{}, err
	}
	return p.Admin, nil
}

// Account returns the stake of addr.  Unknown holders are Empty.
func (l *Ledger) Account(addr common.Address) model.Account {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.state.Account(addr)
}

// PendingChanges lists the governed values that are not live yet.
func (l *Ledger) PendingChanges() ([]model.PendingChange, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	pool, err := l.poolState()
	if err != nil {
		return nil, err
	}
	return pool.PendingAt(l.clock.Now()), nil
}

// RateHistory returns the APR log, pending entries included.
func (l *Ledger) RateHistory() ([]emission.Entry, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	pool, err := l.poolState()
	if err != nil {
		return nil, err
	}
	return pool.APRHistory.Entries(), nil
}

// AccruedEmission returns what a deposit or withdrawal by addr would settle
// now.
func (l *Ledger) AccruedEmission(ctx context.Context, addr common.Address) (emission.Accrual, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	pool, err := l.poolState()
	if err != nil {
		return emission.Accrual{}, err
	}
	acct := l.state.Account(addr)
	return l.settle(ctx, pool, &acct, l.clock.Now())
}

// Supply returns the total supply of the staked token.
func (l *Ledger) Supply(ctx context.Context) (sdkmath.Int, error) {
	return l.token.TotalSupply(ctx)
}

// Stats summarizes the pool at the current time.
func (l *Ledger) Stats(ctx context.Context) (*model.PoolStats, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	pool, err := l.poolState()
	if err != nil {
		return nil, err
	}
	now := l.clock.Now()
	supply, err := l.token.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	apr, err := pool.APRHistory.At(now).ValueAt(now - pool.StartTime)
	if err != nil {
		return nil, err
	}
	supplyRate, err := emission.SupplyRateAt(pool.TotalSupplyFactor.Get(now), pool.StartTime, now,
		supply, pool.TotalStaked)
	if err != nil {
		return nil, err
	}

	stats := &model.PoolStats{
		Timestamp:   now,
		TotalStaked: pool.TotalStaked,
		TotalSupply: supply,
		APR:         apr,
		SupplyRate:  supplyRate,
		Accounts:    int64(len(l.state.Accounts)),
	}
	for _, acct := range l.state.Accounts {
		if acct.IsEmpty() {
			continue
		}
		stats.OpenAccounts++
		if stats.OldestDepositDate == 0 || acct.DepositDate < stats.OldestDepositDate {
			stats.OldestDepositDate = acct.DepositDate
		}
	}
	return stats, nil
}

// PruneHistory drops the APR entries no open deposit can reach any more.
// It returns the number of dropped entries.
func (l *Ledger) PruneHistory(ctx context.Context) (int, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	pool, err := l.poolState()
	if err != nil {
		return 0, err
	}
	before := l.clock.Now()
	for _, acct := range l.state.Accounts {
		if !acct.IsEmpty() && acct.DepositDate < before {
			before = acct.DepositDate
		}
	}

	newPool := pool.Clone()
	n := newPool.APRHistory.Prune(before)
	if n == 0 {
		return 0, nil
	}
	if err := l.commit(ctx, &Changeset{Pool: newPool, HistoryChanged: true}, nil); err != nil {
		return 0, err
	}

	log.Infof("Pruned %d rate history %s before %d", n, pickNoun(n, "entry", "entries"), before)
	return n, nil
}

func pickNoun(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
