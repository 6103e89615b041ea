// Package stakemgr is the staking ledger: deposits, withdrawals, settlement
// of the accrued emission and the time locked governance of the pool.
package stakemgr

import (
	"context"
	"errors"
	"sync"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/timelock"
	"github.com/joltify-finance/token-staking/tokenledger"
)

// Config holds the collaborators of a Ledger.
type Config struct {
	// PoolAddress is the custody account of the pool on the token ledger.
	PoolAddress common.Address
	Token       tokenledger.Ledger
	// Store defaults to a MemStore.
	Store Store
	// Clock defaults to the system clock.
	Clock Clock
	Sinks []EventSink
}

// Ledger is the staking pool.  Every exported method is serialized by one
// lock, and every mutation either commits fully or not at all.
type Ledger struct {
	mtx    sync.Mutex
	pool   common.Address
	token  tokenledger.Ledger
	store  Store
	clock  Clock
	sinks  []EventSink
	state  *model.LedgerState
	engine *emission.Engine
}

// New returns a ledger with an empty state.  Call Load to restore a
// persisted one.
func New(cfg *Config) (*Ledger, error) {
	if cfg.Token == nil {
		return nil, errors.New("stakemgr: nil token ledger")
	}
	if cfg.PoolAddress == (common.Address{}) {
		return nil, errorsmod.Wrap(errcode.ErrZeroAddress, "pool address")
	}
	l := &Ledger{
		pool:  cfg.PoolAddress,
		token: cfg.Token,
		store: cfg.Store,
		clock: cfg.Clock,
		sinks: append([]EventSink(nil), cfg.Sinks...),
		state: model.NewLedgerState(),
	}
	if l.store == nil {
		l.store = NewMemStore()
	}
	if l.clock == nil {
		l.clock = SystemClock{}
	}
	return l, nil
}

// Load replaces the in-memory state with the one persisted in the store.
func (l *Ledger) Load(ctx context.Context) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	st, err := l.store.Load(ctx)
	if err != nil {
		return err
	}
	if st.Accounts == nil {
		st.Accounts = make(map[common.Address]*model.Account)
	}
	if st.Pool != nil {
		engine, err := emission.NewEngine(st.Pool.SplitMode, st.Pool.UserShareRate)
		if err != nil {
			return err
		}
		l.engine = engine
		log.Infof("Loaded pool %v with %d accounts, total staked %v", l.pool.Hex(), len(st.Accounts), st.Pool.TotalStaked)
	}
	l.state = st
	return nil
}

// PoolAddress returns the custody address of the pool.
func (l *Ledger) PoolAddress() common.Address {
	return l.pool
}

func (l *Ledger) poolState() (*model.PoolState, error) {
	if l.state.Pool == nil {
		return nil, errcode.ErrNotInitialized
	}
	return l.state.Pool, nil
}

// commit writes cs through the store and, once the store accepted it, makes
// it the live state.
func (l *Ledger) commit(ctx context.Context, cs *Changeset, effects func(ctx context.Context, tl tokenledger.Ledger) error) error {
	var run func(ctx context.Context) error
	if effects != nil {
		run = func(ctx context.Context) error {
			return tokenledger.Atomic(ctx, l.token, effects)
		}
	}
	if err := l.store.Commit(ctx, cs, run); err != nil {
		return err
	}

	if cs.Pool != nil {
		l.state.Pool = cs.Pool
	}
	for _, acct := range cs.Accounts {
		l.state.Accounts[acct.Address] = acct
	}
	l.notify(cs.Events)
	return nil
}

// Initialize creates the pool.  sender becomes the admin.
func (l *Ledger) Initialize(ctx context.Context, sender common.Address, p *InitParams) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if l.state.Pool != nil {
		return errcode.ErrAlreadyInitialized
	}
	if p.Token == (common.Address{}) {
		return errorsmod.Wrap(errcode.ErrZeroAddress, "token")
	}
	isContract, err := l.token.IsContract(ctx, p.Token)
	if err != nil {
		return err
	}
	if !isContract {
		return errorsmod.Wrapf(errcode.ErrNotAContract, "%v", p.Token.Hex())
	}
	if err := p.Validate(l.pool); err != nil {
		return err
	}
	engine, err := emission.NewEngine(p.SplitMode, p.UserShareRate)
	if err != nil {
		return err
	}

	now := l.clock.Now()
	pool := &model.PoolState{
		Token:                  p.Token,
		Pool:                   l.pool,
		Admin:                  sender,
		StartTime:              now,
		SplitMode:              engine.Mode,
		UserShareRate:          engine.UserShareRate,
		TotalStaked:            sdkmath.ZeroInt(),
		ForcedWithdrawalFee:    timelock.New(p.ForcedWithdrawalFee),
		WithdrawalLockDuration: timelock.New(p.WithdrawalLockDuration),
		LPRewardAddress:        timelock.New(p.LPRewardAddress),
		TotalSupplyFactor:      timelock.New(p.TotalSupplyFactor),
		UpdateDelayTime:        timelock.New(p.UpdateDelayTime),
		APRHistory:             emission.NewHistory(now, p.APR),
	}
	ev := &model.Event{
		Type:      model.EventOwnershipTransfer,
		Timestamp: now,
		OwnershipTransferred: &model.OwnershipTransferred{
			NewOwner: sender,
		},
	}
	err = l.commit(ctx, &Changeset{Pool: pool, HistoryChanged: true, Events: []*model.Event{ev}}, nil)
	if err != nil {
		return err
	}
	l.engine = engine

	log.Infof("Pool initialized at %d, token %v, admin %v, split mode %v",
		now, p.Token.Hex(), sender.Hex(), engine.Mode)
	return nil
}

// settle returns what acct has accrued at now.
func (l *Ledger) settle(ctx context.Context, pool *model.PoolState, acct *model.Account, now int64) (emission.Accrual, error) {
	if acct.IsEmpty() || acct.Balance.IsZero() {
		return emission.ZeroAccrual(), nil
	}
	supply, err := l.token.TotalSupply(ctx)
	if err != nil {
		return emission.Accrual{}, err
	}
	return l.engine.Accrue(emission.AccrualInput{
		DepositDate:  acct.DepositDate,
		Now:          now,
		StartTime:    pool.StartTime,
		Principal:    acct.Balance,
		TotalSupply:  supply,
		TotalStaked:  pool.TotalStaked,
		SupplyFactor: pool.TotalSupplyFactor.Get(now),
		History:      pool.APRHistory,
	})
}

// mintAccrual mints the user share to the pool and the rest to the LP reward
// address.
func (l *Ledger) mintAccrual(ctx context.Context, tl tokenledger.Ledger, lp common.Address, a emission.Accrual) error {
	if err := tl.Mint(ctx, l.pool, l.pool, a.UserShare); err != nil {
		return err
	}
	return tl.Mint(ctx, l.pool, lp, a.ProtocolShare())
}

// Deposit settles the accrual of sender, adds it and amount to the balance
// and pulls amount into the pool.
func (l *Ledger) Deposit(ctx context.Context, sender common.Address, amount sdkmath.Int) (*model.Deposited, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	pool, err := l.poolState()
	if err != nil {
		return nil, err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return nil, errorsmod.Wrapf(errcode.ErrInvalidAmount, "deposit amount %v", amount)
	}

	now := l.clock.Now()
	acct := l.state.Account(sender)
	accrual, err := l.settle(ctx, pool, &acct, now)
	if err != nil {
		return nil, err
	}

	added, err := amount.SafeAdd(accrual.UserShare)
	if err != nil {
		return nil, errcode.Overflow(err, "deposit")
	}
	balance, err := acct.Balance.SafeAdd(added)
	if err != nil {
		return nil, errcode.Overflow(err, "balance")
	}
	staked, err := pool.TotalStaked.SafeAdd(added)
	if err != nil {
		return nil, errcode.Overflow(err, "total staked")
	}

	var prevDuration int64
	if !acct.IsEmpty() {
		prevDuration = now - acct.DepositDate
	}

	newPool := pool.Clone()
	newPool.TotalStaked = staked
	newAcct := &model.Account{Address: sender, Balance: balance, DepositDate: now}
	res := &model.Deposited{
		Sender:              sender,
		Amount:              amount,
		Balance:             balance,
		AccruedEmission:     accrual.UserShare,
		PrevDepositDuration: prevDuration,
	}
	cs := &Changeset{
		Pool:     newPool,
		Accounts: []*model.Account{newAcct},
		Events:   []*model.Event{{Type: model.EventDeposited, Timestamp: now, Deposited: res}},
	}
	lp := pool.LPRewardAddress.Get(now)
	err = l.commit(ctx, cs, func(ctx context.Context, tl tokenledger.Ledger) error {
		if err := tl.TransferFrom(ctx, sender, l.pool, amount); err != nil {
			return err
		}
		return l.mintAccrual(ctx, tl, lp, accrual)
	})
	if err != nil {
		log.Debugf("Deposit of %v by %v rejected: %v", amount, sender.Hex(), err)
		return nil, err
	}

	log.Debugf("Deposit of %v by %v, accrued %v/%v, balance %v",
		amount, sender.Hex(), accrual.UserShare, accrual.Total, balance)
	return res, nil
}

// Withdraw settles the accrual of sender and pays out amount plus the
// accrual, less the forced withdrawal fee while the stake is still locked.
func (l *Ledger) Withdraw(ctx context.Context, sender common.Address, amount sdkmath.Int) (*model.Withdrawn, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	return l.withdraw(ctx, sender, amount)
}

// WithdrawAll withdraws the whole balance of sender.
func (l *Ledger) WithdrawAll(ctx context.Context, sender common.Address) (*model.Withdrawn, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	acct := l.state.Account(sender)
	return l.withdraw(ctx, sender, acct.Balance)
}

func (l *Ledger) withdraw(ctx context.Context, sender common.Address, amount sdkmath.Int) (*model.Withdrawn, error) {
	pool, err := l.poolState()
	if err != nil {
		return nil, err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return nil, errorsmod.Wrapf(errcode.ErrInvalidAmount, "withdraw amount %v", amount)
	}

	now := l.clock.Now()
	acct := l.state.Account(sender)
	accrual, err := l.settle(ctx, pool, &acct, now)
	if err != nil {
		return nil, err
	}

	settled, err := acct.Balance.SafeAdd(accrual.UserShare)
	if err != nil {
		return nil, errcode.Overflow(err, "settled balance")
	}
	gross, err := amount.SafeAdd(accrual.UserShare)
	if err != nil {
		return nil, errcode.Overflow(err, "withdraw")
	}
	if gross.GT(settled) {
		return nil, errorsmod.Wrapf(errcode.ErrInsufficientBalance, "withdraw %v, balance %v", amount, acct.Balance)
	}

	fee := sdkmath.ZeroInt()
	if now-acct.DepositDate < pool.WithdrawalLockDuration.Get(now) {
		fee, err = gross.SafeMul(pool.ForcedWithdrawalFee.Get(now))
		if err != nil {
			return nil, errcode.Overflow(err, "withdrawal fee")
		}
		fee = fee.Quo(constdef.Scale)
	}
	payout := gross.Sub(fee)
	balance := settled.Sub(gross)

	newAcct := &model.Account{Address: sender, Balance: balance}
	if balance.IsPositive() {
		newAcct.DepositDate = now
	}
	newPool := pool.Clone()
	newPool.TotalStaked, err = pool.TotalStaked.SafeSub(amount)
	if err != nil {
		return nil, errcode.Overflow(err, "total staked")
	}
	if newPool.TotalStaked.IsNegative() {
		return nil, errorsmod.Wrapf(errcode.ErrInsufficientBalance, "total staked %v below withdrawal %v",
			pool.TotalStaked, amount)
	}

	res := &model.Withdrawn{
		Sender:              sender,
		Amount:              payout,
		LastDepositDuration: now - acct.DepositDate,
		Fee:                 fee,
		Balance:             balance,
		AccruedEmission:     accrual.UserShare,
	}
	cs := &Changeset{
		Pool:     newPool,
		Accounts: []*model.Account{newAcct},
		Events:   []*model.Event{{Type: model.EventWithdrawn, Timestamp: now, Withdrawn: res}},
	}
	lp := pool.LPRewardAddress.Get(now)
	err = l.commit(ctx, cs, func(ctx context.Context, tl tokenledger.Ledger) error {
		if err := l.mintAccrual(ctx, tl, lp, accrual); err != nil {
			return err
		}
		if err := tl.Transfer(ctx, l.pool, lp, fee); err != nil {
			return err
		}
		return tl.Transfer(ctx, l.pool, sender, payout)
	})
	if err != nil {
		log.Debugf("Withdraw of %v by %v rejected: %v", amount, sender.Hex(), err)
		return nil, err
	}

	log.Debugf("Withdraw of %v by %v, accrued %v/%v, fee %v, balance %v",
		amount, sender.Hex(), accrual.UserShare, accrual.Total, fee, balance)
	return res, nil
}
