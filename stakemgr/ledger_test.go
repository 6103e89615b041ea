package stakemgr

import (
	"context"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/tokenledger"
)

const (
	day   = constdef.SecondsPerDay
	start = int64(1_700_000_000)
)

var (
	tokenAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	poolAddr  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	adminAddr = common.HexToAddress("0x3000000000000000000000000000000000000003")
	lpAddr    = common.HexToAddress("0x4000000000000000000000000000000000000004")
	aliceAddr = common.HexToAddress("0xa000000000000000000000000000000000000001")
	bobAddr   = common.HexToAddress("0xb000000000000000000000000000000000000002")
	faucet    = common.HexToAddress("0xf000000000000000000000000000000000000000")
)

func milli(n int64) sdkmath.Int {
	return sdkmath.NewIntWithDecimal(n, constdef.ScaleExp-3)
}

func tokens(n int64) sdkmath.Int {
	return sdkmath.NewIntWithDecimal(n, constdef.ScaleExp)
}

func intOf(t *testing.T, s string) sdkmath.Int {
	v, ok := sdkmath.NewIntFromString(s)
	require.True(t, ok, s)
	return v
}

func defaultInitParams() *InitParams {
	return &InitParams{
		Token:                  tokenAddr,
		ForcedWithdrawalFee:    milli(30),
		WithdrawalLockDuration: 2 * day,
		LPRewardAddress:        lpAddr,
		APR:                    emission.NewCurve(milli(75), milli(5), milli(5)),
		TotalSupplyFactor:      emission.ZeroCurve(),
		UpdateDelayTime:        0,
	}
}

type fixture struct {
	ctx    context.Context
	clock  *ManualClock
	token  *tokenledger.MemLedger
	store  *MemStore
	ledger *Ledger
	events []*model.Event
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		ctx:   context.Background(),
		clock: NewManualClock(start),
		token: tokenledger.NewMemLedger(tokenAddr),
		store: NewMemStore(),
	}
	f.token.GrantMinter(poolAddr)
	f.token.GrantMinter(faucet)
	for _, holder := range []common.Address{aliceAddr, bobAddr} {
		require.NoError(t, f.token.Mint(f.ctx, faucet, holder, tokens(10)))
		require.NoError(t, f.token.Approve(holder, poolAddr, tokens(10)))
	}

	l, err := New(&Config{
		PoolAddress: poolAddr,
		Token:       f.token,
		Store:       f.store,
		Clock:       f.clock,
		Sinks: []EventSink{EventSinkFunc(func(ev *model.Event) {
			f.events = append(f.events, ev)
		})},
	})
	require.NoError(t, err)
	f.ledger = l
	return f
}

func newInitializedFixture(t *testing.T, p *InitParams) *fixture {
	f := newFixture(t)
	require.NoError(t, f.ledger.Initialize(f.ctx, adminAddr, p))
	return f
}

func (f *fixture) balanceOf(t *testing.T, addr common.Address) sdkmath.Int {
	v, err := f.token.BalanceOf(f.ctx, addr)
	require.NoError(t, err)
	return v
}

// requireSolvent checks that the pool holds exactly what it owes.
func (f *fixture) requireSolvent(t *testing.T) {
	staked, err := f.ledger.TotalStaked()
	require.NoError(t, err)
	require.Equal(t, staked.String(), f.balanceOf(t, poolAddr).String())
}

func TestInitialize(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	p, err := f.ledger.Params()
	require.NoError(t, err)
	require.Equal(t, milli(30).String(), p.ForcedWithdrawalFee.String())
	require.Equal(t, 2*day, p.WithdrawalLockDuration)
	require.Equal(t, lpAddr, p.LPRewardAddress)
	require.True(t, p.APR.Equal(defaultInitParams().APR))
	require.True(t, p.TotalSupplyFactor.Equal(emission.ZeroCurve()))
	require.Equal(t, int64(0), p.UpdateDelayTime)
	require.Equal(t, start, p.StartTime)
	require.Equal(t, adminAddr, p.Admin)
	require.Equal(t, tokenAddr, p.Token)
	require.True(t, p.TotalStaked.IsZero())
	require.Equal(t, constdef.DefaultUserShareRate.String(), p.UserShareRate.String())

	history, err := f.ledger.RateHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, start, history[0].Timestamp)

	err = f.ledger.Initialize(f.ctx, adminAddr, defaultInitParams())
	require.True(t, errors.Is(err, errcode.ErrAlreadyInitialized))
	err = f.ledger.Initialize(f.ctx, bobAddr, defaultInitParams())
	require.True(t, errors.Is(err, errcode.ErrAlreadyInitialized))
}

func TestInitializeRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *InitParams)
		want   error
	}{
		{"token_not_contract", func(p *InitParams) { p.Token = aliceAddr }, errcode.ErrNotAContract},
		{"zero_token", func(p *InitParams) { p.Token = common.Address{} }, errcode.ErrZeroAddress},
		{"fee_above_one", func(p *InitParams) { p.ForcedWithdrawalFee = tokens(1).AddRaw(1) }, errcode.ErrInvalidParameter},
		{"negative_fee", func(p *InitParams) { p.ForcedWithdrawalFee = sdkmath.NewInt(-1) }, errcode.ErrInvalidParameter},
		{"lock_above_30_days", func(p *InitParams) { p.WithdrawalLockDuration = 30*day + 1 }, errcode.ErrInvalidParameter},
		{"negative_lock", func(p *InitParams) { p.WithdrawalLockDuration = -1 }, errcode.ErrInvalidParameter},
		{"zero_lp", func(p *InitParams) { p.LPRewardAddress = common.Address{} }, errcode.ErrZeroAddress},
		{"lp_is_pool", func(p *InitParams) { p.LPRewardAddress = poolAddr }, errcode.ErrSelfReferentialAddress},
		{"apr_above_half_max", func(p *InitParams) { p.APR = emission.Flat(milli(75).AddRaw(1)) }, errcode.ErrInvalidParameter},
		{"apr_min_above_init", func(p *InitParams) { p.APR = emission.NewCurve(milli(10), milli(20), milli(1)) }, errcode.ErrInvalidParameter},
		{"factor_above_one", func(p *InitParams) { p.TotalSupplyFactor = emission.Flat(tokens(2)) }, errcode.ErrInvalidParameter},
		{"negative_delay", func(p *InitParams) { p.UpdateDelayTime = -1 }, errcode.ErrInvalidParameter},
		{"user_share_above_one", func(p *InitParams) { p.UserShareRate = tokens(2) }, errcode.ErrInvalidParameter},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			p := defaultInitParams()
			test.mutate(p)
			err := f.ledger.Initialize(f.ctx, adminAddr, p)
			require.True(t, errors.Is(err, test.want), "got %v", err)
			require.False(t, f.ledger.Initialized())

			// a rejected call leaves the pool open for a valid one
			require.NoError(t, f.ledger.Initialize(f.ctx, adminAddr, defaultInitParams()))
		})
	}
}

func TestNotInitialized(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.True(t, errors.Is(err, errcode.ErrNotInitialized))
	_, err = f.ledger.Withdraw(f.ctx, aliceAddr, tokens(1))
	require.True(t, errors.Is(err, errcode.ErrNotInitialized))
	_, err = f.ledger.SetForcedWithdrawalFee(f.ctx, adminAddr, milli(1))
	require.True(t, errors.Is(err, errcode.ErrNotInitialized))
	_, err = f.ledger.Params()
	require.True(t, errors.Is(err, errcode.ErrNotInitialized))
}

func TestDepositIntoEmptyAccount(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	res, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	require.Equal(t, tokens(1).String(), res.Balance.String())
	require.True(t, res.AccruedEmission.IsZero())
	require.Equal(t, int64(0), res.PrevDepositDuration)

	acct := f.ledger.Account(aliceAddr)
	require.Equal(t, tokens(1).String(), acct.Balance.String())
	require.Equal(t, start, acct.DepositDate)
	require.Equal(t, tokens(9).String(), f.balanceOf(t, aliceAddr).String())
	f.requireSolvent(t)

	_, err = f.ledger.Deposit(f.ctx, aliceAddr, sdkmath.ZeroInt())
	require.True(t, errors.Is(err, errcode.ErrInvalidAmount))
}

func TestDepositTwiceAccrues(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)

	f.clock.Advance(2 * day)
	pending, err := f.ledger.AccruedEmission(f.ctx, aliceAddr)
	require.NoError(t, err)
	require.Equal(t, "409132420091324", pending.Total.String())
	require.Equal(t, "368219178082191", pending.UserShare.String())

	res, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	require.Equal(t, "368219178082191", res.AccruedEmission.String())
	require.Equal(t, 2*day, res.PrevDepositDuration)
	require.Equal(t, tokens(2).Add(res.AccruedEmission).String(), res.Balance.String())

	require.Equal(t, "40913242009133", f.balanceOf(t, lpAddr).String())
	f.requireSolvent(t)

	acct := f.ledger.Account(aliceAddr)
	require.Equal(t, start+2*day, acct.DepositDate)
}

func TestWithdrawBeforeLockPaysFee(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	f.clock.Advance(day)

	res, err := f.ledger.Withdraw(f.ctx, aliceAddr, milli(500))
	require.NoError(t, err)
	require.Equal(t, "184520547945205", res.AccruedEmission.String())
	require.Equal(t, "15005535616438356", res.Fee.String())
	require.Equal(t, "485178984931506849", res.Amount.String())
	require.Equal(t, milli(500).String(), res.Balance.String())
	require.Equal(t, day, res.LastDepositDuration)

	require.Equal(t, tokens(9).Add(res.Amount).String(), f.balanceOf(t, aliceAddr).String())
	// protocol share of the accrual plus the fee
	lp := intOf(t, "205022831050228").Sub(res.AccruedEmission).Add(res.Fee)
	require.Equal(t, lp.String(), f.balanceOf(t, lpAddr).String())
	f.requireSolvent(t)

	acct := f.ledger.Account(aliceAddr)
	require.Equal(t, start+day, acct.DepositDate)
}

func TestWithdrawFeeBoundary(t *testing.T) {
	tests := []struct {
		name    string
		elapsed int64
		feeFree bool
	}{
		{"one_second_before", 2*day - 1, false},
		{"at_lock_end", 2 * day, true},
		{"after_lock_end", 3 * day, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newInitializedFixture(t, defaultInitParams())
			_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
			require.NoError(t, err)
			f.clock.Advance(test.elapsed)

			res, err := f.ledger.Withdraw(f.ctx, aliceAddr, milli(100))
			require.NoError(t, err)
			if test.feeFree {
				require.True(t, res.Fee.IsZero())
				return
			}
			want := milli(100).Add(res.AccruedEmission).Mul(milli(30)).Quo(constdef.Scale)
			require.True(t, res.Fee.IsPositive())
			require.Equal(t, want.String(), res.Fee.String())
		})
	}
}

func TestWithdrawAllEmptiesAccount(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(2))
	require.NoError(t, err)
	f.clock.Advance(10 * day)

	res, err := f.ledger.WithdrawAll(f.ctx, aliceAddr)
	require.NoError(t, err)
	require.True(t, res.Balance.IsZero())
	require.True(t, res.Fee.IsZero())
	require.Equal(t, tokens(2).Add(res.AccruedEmission).String(), res.Amount.String())

	acct := f.ledger.Account(aliceAddr)
	require.True(t, acct.IsEmpty())
	require.True(t, acct.Balance.IsZero())
	f.requireSolvent(t)

	_, err = f.ledger.WithdrawAll(f.ctx, aliceAddr)
	require.True(t, errors.Is(err, errcode.ErrInvalidAmount))

	// the account starts over like a new one
	dep, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	require.Equal(t, int64(0), dep.PrevDepositDuration)
	require.True(t, dep.AccruedEmission.IsZero())
}

func TestWithdrawRejects(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	f.clock.Advance(day)

	_, err = f.ledger.Withdraw(f.ctx, aliceAddr, sdkmath.ZeroInt())
	require.True(t, errors.Is(err, errcode.ErrInvalidAmount))
	_, err = f.ledger.Withdraw(f.ctx, aliceAddr, tokens(1).AddRaw(1))
	require.True(t, errors.Is(err, errcode.ErrInsufficientBalance))
	_, err = f.ledger.Withdraw(f.ctx, bobAddr, tokens(1))
	require.True(t, errors.Is(err, errcode.ErrInsufficientBalance))

	acct := f.ledger.Account(aliceAddr)
	require.Equal(t, tokens(1).String(), acct.Balance.String())
	require.Equal(t, start, acct.DepositDate)
	require.Len(t, f.store.Events(), 2)
}

func TestWithdrawFailsWhenTotalStakedShort(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)

	// persisted total below the account balance
	f.store.state.Pool.TotalStaked = milli(100)
	require.NoError(t, f.ledger.Load(f.ctx))

	_, err = f.ledger.Withdraw(f.ctx, aliceAddr, milli(500))
	require.True(t, errors.Is(err, errcode.ErrInsufficientBalance), "got %v", err)

	staked, err := f.ledger.TotalStaked()
	require.NoError(t, err)
	require.Equal(t, milli(100).String(), staked.String())
	require.Equal(t, tokens(1).String(), f.ledger.Account(aliceAddr).Balance.String())
	require.Equal(t, tokens(9).String(), f.balanceOf(t, aliceAddr).String())
}

func TestZeroAPRFreezesAccrual(t *testing.T) {
	p := defaultInitParams()
	p.UpdateDelayTime = day
	f := newInitializedFixture(t, p)

	_, err := f.ledger.SetBasicAPR(f.ctx, adminAddr, sdkmath.ZeroInt())
	require.NoError(t, err)
	f.clock.Advance(day)

	_, err = f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	f.clock.Advance(300 * day)

	res, err := f.ledger.Withdraw(f.ctx, aliceAddr, milli(500))
	require.NoError(t, err)
	require.True(t, res.AccruedEmission.IsZero())
	require.True(t, res.Fee.IsZero())
	require.Equal(t, milli(500).String(), res.Amount.String())
	require.Equal(t, milli(500).String(), res.Balance.String())

	for _, later := range []int64{day, 100 * day, 1000 * day} {
		f.clock.Advance(later)
		a, err := f.ledger.AccruedEmission(f.ctx, aliceAddr)
		require.NoError(t, err)
		require.True(t, a.Total.IsZero())
		require.True(t, a.UserShare.IsZero())
	}
}

func TestAccrualSpansRateChange(t *testing.T) {
	p := defaultInitParams()
	p.APR = emission.Flat(milli(50))
	p.UpdateDelayTime = day
	f := newInitializedFixture(t, p)

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	set, err := f.ledger.SetBasicAPR(f.ctx, adminAddr, milli(20))
	require.NoError(t, err)
	require.Equal(t, start+day, set.EffectiveAt)

	f.clock.Advance(3 * day)
	a, err := f.ledger.AccruedEmission(f.ctx, aliceAddr)
	require.NoError(t, err)
	require.Equal(t, "246575342465753", a.Total.String())
	require.Equal(t, "221917808219177", a.UserShare.String())
}

func TestSupplyRateAddsToAPR(t *testing.T) {
	p := defaultInitParams()
	p.APR = emission.Flat(milli(50))
	p.TotalSupplyFactor = emission.Flat(milli(500))
	f := newInitializedFixture(t, p)

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	f.clock.Advance(2 * day)

	stats, err := f.ledger.Stats(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "7500000000000000", stats.SupplyRate.String())
	require.Equal(t, milli(50).String(), stats.APR.String())
	require.Equal(t, int64(1), stats.OpenAccounts)
	require.Equal(t, start, stats.OldestDepositDate)

	a, err := f.ledger.AccruedEmission(f.ctx, aliceAddr)
	require.NoError(t, err)
	require.Equal(t, "315068493150684", a.Total.String())
	require.Equal(t, "283561643835615", a.UserShare.String())
}

func TestMaxRateCeilingSplit(t *testing.T) {
	p := defaultInitParams()
	p.SplitMode = emission.SplitMaxRateCeiling
	f := newInitializedFixture(t, p)

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	f.clock.Advance(2 * day)

	res, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	require.Equal(t, "409132420091324", res.AccruedEmission.String())
	require.Equal(t, "412785388127854", f.balanceOf(t, lpAddr).String())
	f.requireSolvent(t)
}

func TestFailedTokenEffectsLeaveNoTrace(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	f.clock.Advance(2 * day)

	// allowance is 9 tokens now
	_, err = f.ledger.Deposit(f.ctx, aliceAddr, tokens(10))
	require.True(t, errors.Is(err, errcode.ErrInsufficientAllowance))

	acct := f.ledger.Account(aliceAddr)
	require.Equal(t, tokens(1).String(), acct.Balance.String())
	require.Equal(t, start, acct.DepositDate)
	require.True(t, f.balanceOf(t, lpAddr).IsZero())
	require.Len(t, f.store.Events(), 2)
	f.requireSolvent(t)

	st, err := f.store.Load(f.ctx)
	require.NoError(t, err)
	require.Equal(t, tokens(1).String(), st.Accounts[aliceAddr].Balance.String())
}

func TestPoolStaysSolvent(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	steps := []struct {
		holder   common.Address
		advance  int64
		deposit  int64
		withdraw int64
	}{
		{aliceAddr, 0, 3, 0},
		{bobAddr, day, 2, 0},
		{aliceAddr, day / 2, 0, 1},
		{bobAddr, 5 * day, 1, 0},
		{aliceAddr, 40 * day, 0, 2},
		{bobAddr, 400 * day, 0, 3},
	}
	for _, step := range steps {
		f.clock.Advance(step.advance)
		if step.deposit > 0 {
			_, err := f.ledger.Deposit(f.ctx, step.holder, tokens(step.deposit))
			require.NoError(t, err)
		}
		if step.withdraw > 0 {
			_, err := f.ledger.Withdraw(f.ctx, step.holder, tokens(step.withdraw))
			require.NoError(t, err)
		}
		f.requireSolvent(t)
	}

	staked, err := f.ledger.TotalStaked()
	require.NoError(t, err)
	sum := f.ledger.Account(aliceAddr).Balance.Add(f.ledger.Account(bobAddr).Balance)
	require.Equal(t, sum.String(), staked.String())
}

func TestLoadRestoresState(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())
	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)

	l, err := New(&Config{PoolAddress: poolAddr, Token: f.token, Store: f.store, Clock: f.clock})
	require.NoError(t, err)
	require.NoError(t, l.Load(f.ctx))
	require.True(t, l.Initialized())
	require.Equal(t, tokens(1).String(), l.Account(aliceAddr).Balance.String())

	f.clock.Advance(2 * day)
	a, err := l.AccruedEmission(f.ctx, aliceAddr)
	require.NoError(t, err)
	require.Equal(t, "368219178082191", a.UserShare.String())
}

func TestEventsReachSinks(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	_, err = f.ledger.Withdraw(f.ctx, aliceAddr, milli(100))
	require.NoError(t, err)
	_, err = f.ledger.SetWithdrawalLockDuration(f.ctx, adminAddr, day)
	require.NoError(t, err)

	require.Len(t, f.events, 4)
	require.Equal(t, model.EventOwnershipTransfer, f.events[0].Type)
	require.Equal(t, model.EventDeposited, f.events[1].Type)
	require.Equal(t, aliceAddr, f.events[1].Sender())
	require.Equal(t, model.EventWithdrawn, f.events[2].Type)
	require.Equal(t, model.EventType("WithdrawalLockDurationSet"), f.events[3].Type)
	require.Equal(t, "86400", f.events[3].ParamSet.Value)
	require.Equal(t, adminAddr, f.events[3].Sender())
}
