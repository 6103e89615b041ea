package service

import (
	"context"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/dal"
	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/stakemgr"
)

const day = constdef.SecondsPerDay

var (
	tokenAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	poolAddr  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	adminAddr = common.HexToAddress("0x3000000000000000000000000000000000000003")
	lpAddr    = common.HexToAddress("0x4000000000000000000000000000000000000004")
	aliceAddr = common.HexToAddress("0xa000000000000000000000000000000000000001")
	faucet    = common.HexToAddress("0xf000000000000000000000000000000000000000")
)

func tokens(n int64) sdkmath.Int {
	return sdkmath.NewIntWithDecimal(n, constdef.ScaleExp)
}

func milli(n int64) sdkmath.Int {
	return sdkmath.NewIntWithDecimal(n, constdef.ScaleExp-3)
}

type env struct {
	ctx    context.Context
	db     *gorm.DB
	clock  *stakemgr.ManualClock
	token  *TokenLedgerService
	store  *LedgerStore
	ledger *stakemgr.Ledger
}

func newEnv(t *testing.T) *env {
	db, err := dal.OpenDB(&dal.DBConfig{Type: dal.DBTypeSQLite, Path: ":memory:"}, true)
	require.NoError(t, err)

	e := &env{
		ctx:   context.Background(),
		db:    db,
		clock: stakemgr.NewManualClock(1_700_000_000),
		token: NewTokenLedgerService(db),
		store: NewLedgerStore(db),
	}
	require.NoError(t, e.token.Register(e.ctx, tokenAddr))
	require.NoError(t, e.token.GrantMinter(e.ctx, poolAddr))
	require.NoError(t, e.token.GrantMinter(e.ctx, faucet))
	require.NoError(t, e.token.Mint(e.ctx, faucet, aliceAddr, tokens(10)))
	require.NoError(t, e.token.Approve(e.ctx, aliceAddr, poolAddr, tokens(5)))

	e.ledger = e.newLedger(t)
	return e
}

func (e *env) newLedger(t *testing.T) *stakemgr.Ledger {
	l, err := stakemgr.New(&stakemgr.Config{
		PoolAddress: poolAddr,
		Token:       e.token,
		Store:       e.store,
		Clock:       e.clock,
	})
	require.NoError(t, err)
	require.NoError(t, l.Load(e.ctx))
	return l
}

func (e *env) initialize(t *testing.T) {
	err := e.ledger.Initialize(e.ctx, adminAddr, &stakemgr.InitParams{
		Token:                  tokenAddr,
		ForcedWithdrawalFee:    milli(30),
		WithdrawalLockDuration: 2 * day,
		LPRewardAddress:        lpAddr,
		APR:                    emission.NewCurve(milli(75), milli(5), milli(5)),
		TotalSupplyFactor:      emission.ZeroCurve(),
		UpdateDelayTime:        day,
	})
	require.NoError(t, err)
}

func (e *env) balanceOf(t *testing.T, addr common.Address) string {
	v, err := e.token.BalanceOf(e.ctx, addr)
	require.NoError(t, err)
	return v.String()
}

func TestLedgerStoreRoundTrip(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)

	_, err := e.ledger.Deposit(e.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	_, err = e.ledger.SetBasicAPR(e.ctx, adminAddr, milli(20))
	require.NoError(t, err)
	e.clock.Advance(2 * day)
	res, err := e.ledger.Deposit(e.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	require.True(t, res.AccruedEmission.IsPositive())

	reloaded := e.newLedger(t)
	require.True(t, reloaded.Initialized())

	want, err := e.ledger.Params()
	require.NoError(t, err)
	got, err := reloaded.Params()
	require.NoError(t, err)
	require.Equal(t, want.TotalStaked.String(), got.TotalStaked.String())
	require.Equal(t, want.Admin, got.Admin)
	require.Equal(t, want.StartTime, got.StartTime)
	require.True(t, want.APR.Equal(got.APR))

	wantHistory, err := e.ledger.RateHistory()
	require.NoError(t, err)
	gotHistory, err := reloaded.RateHistory()
	require.NoError(t, err)
	require.Len(t, gotHistory, len(wantHistory))

	acct := reloaded.Account(aliceAddr)
	require.Equal(t, res.Balance.String(), acct.Balance.String())
	require.Equal(t, e.clock.Now(), acct.DepositDate)

	require.Equal(t, got.TotalStaked.String(), e.balanceOf(t, poolAddr))

	stored, err := e.store.Account(e.ctx, aliceAddr)
	require.NoError(t, err)
	require.Equal(t, res.Balance.String(), stored.Balance.String())
}

func TestLedgerStoreRollsBackTokenFailure(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)

	_, err := e.ledger.Deposit(e.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	e.clock.Advance(3 * day)

	// only 4 tokens of allowance left
	_, err = e.ledger.Deposit(e.ctx, aliceAddr, tokens(5))
	require.True(t, errors.Is(err, errcode.ErrInsufficientAllowance), "got %v", err)

	require.Equal(t, "0", e.balanceOf(t, lpAddr))
	require.Equal(t, tokens(1).String(), e.balanceOf(t, poolAddr))

	events, total, err := GetQueryService().GetEvents(e.ctx, e.db, nil, 1, 10, true)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, model.EventOwnershipTransfer, events[0].Type)
	require.Equal(t, model.EventDeposited, events[1].Type)

	reloaded := e.newLedger(t)
	acct := reloaded.Account(aliceAddr)
	require.Equal(t, tokens(1).String(), acct.Balance.String())
}

func TestWithdrawPersistsTokenMoves(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)

	_, err := e.ledger.Deposit(e.ctx, aliceAddr, tokens(2))
	require.NoError(t, err)
	e.clock.Advance(day)

	res, err := e.ledger.Withdraw(e.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	require.True(t, res.Fee.IsPositive())

	require.Equal(t, tokens(8).Add(res.Amount).String(), e.balanceOf(t, aliceAddr))
	staked, err := e.ledger.TotalStaked()
	require.NoError(t, err)
	require.Equal(t, staked.String(), e.balanceOf(t, poolAddr))

	supply, err := e.token.TotalSupply(e.ctx)
	require.NoError(t, err)
	a, err := e.token.BalanceOf(e.ctx, aliceAddr)
	require.NoError(t, err)
	p, err := e.token.BalanceOf(e.ctx, poolAddr)
	require.NoError(t, err)
	lp, err := e.token.BalanceOf(e.ctx, lpAddr)
	require.NoError(t, err)
	require.Equal(t, supply.String(), a.Add(p).Add(lp).String())

	accounts, total, err := GetQueryService().GetAccounts(e.ctx, e.db, 1, 10, true, true)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, aliceAddr, accounts[0].Address)
}

func TestSnapshots(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)
	q := GetQueryService()

	for i := 0; i < 3; i++ {
		stats, err := e.ledger.Stats(e.ctx)
		require.NoError(t, err)
		require.NoError(t, q.SaveSnapshot(e.ctx, e.db, stats))
		e.clock.Advance(day)
	}

	n, err := q.PruneSnapshots(e.ctx, e.db, 1_700_000_000+day)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	snaps, total, err := q.GetSnapshots(e.ctx, e.db, 0, 0, false)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, int64(1_700_000_000+2*day), snaps[0].Timestamp)
	require.Equal(t, tokens(10).String(), snaps[0].TotalSupply.String())
}

func TestTokenLedgerService(t *testing.T) {
	e := newEnv(t)

	ok, err := e.token.IsContract(e.ctx, tokenAddr)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = e.token.IsContract(e.ctx, aliceAddr)
	require.NoError(t, err)
	require.False(t, ok)

	err = e.token.Mint(e.ctx, aliceAddr, aliceAddr, tokens(1))
	require.True(t, errors.Is(err, errcode.ErrNotMinter))

	err = e.token.Transfer(e.ctx, aliceAddr, lpAddr, tokens(11))
	require.True(t, errors.Is(err, errcode.ErrInsufficientBalance))

	require.NoError(t, e.token.TransferFrom(e.ctx, aliceAddr, poolAddr, tokens(2)))
	left, err := e.token.Allowance(e.ctx, aliceAddr, poolAddr)
	require.NoError(t, err)
	require.Equal(t, tokens(3).String(), left.String())
	require.Equal(t, tokens(8).String(), e.balanceOf(t, aliceAddr))
	require.Equal(t, tokens(2).String(), e.balanceOf(t, poolAddr))

	// a failing call inside a transaction takes the earlier calls with it
	err = e.db.Transaction(func(tx *gorm.DB) error {
		ctx := dal.WithTx(e.ctx, tx)
		if err := e.token.Transfer(ctx, aliceAddr, lpAddr, tokens(1)); err != nil {
			return err
		}
		return e.token.Transfer(ctx, lpAddr, aliceAddr, tokens(5))
	})
	require.Error(t, err)
	require.Equal(t, tokens(8).String(), e.balanceOf(t, aliceAddr))
	require.Equal(t, "0", e.balanceOf(t, lpAddr))
}
