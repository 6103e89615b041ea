package tokenledger

import (
	"context"
	"sync"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/errcode"
)

type memState struct {
	balances   map[common.Address]sdkmath.Int
	allowances map[common.Address]map[common.Address]sdkmath.Int
	supply     sdkmath.Int
	minters    map[common.Address]struct{}
	contracts  map[common.Address]struct{}
}

func newMemState() *memState {
	return &memState{
		balances:   make(map[common.Address]sdkmath.Int),
		allowances: make(map[common.Address]map[common.Address]sdkmath.Int),
		supply:     sdkmath.ZeroInt(),
		minters:    make(map[common.Address]struct{}),
		contracts:  make(map[common.Address]struct{}),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for holder, m := range s.allowances {
		cm := make(map[common.Address]sdkmath.Int, len(m))
		for spender, v := range m {
			cm[spender] = v
		}
		c.allowances[holder] = cm
	}
	c.supply = s.supply
	for k := range s.minters {
		c.minters[k] = struct{}{}
	}
	for k := range s.contracts {
		c.contracts[k] = struct{}{}
	}
	return c
}

func (s *memState) balance(addr common.Address) sdkmath.Int {
	if v, ok := s.balances[addr]; ok {
		return v
	}
	return sdkmath.ZeroInt()
}

func (s *memState) allowance(holder, spender common.Address) sdkmath.Int {
	if v, ok := s.allowances[holder][spender]; ok {
		return v
	}
	return sdkmath.ZeroInt()
}

func checkAmount(amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errorsmod.Wrapf(errcode.ErrInvalidAmount, "token amount %v", amount)
	}
	return nil
}

func (s *memState) mint(minter, to common.Address, amount sdkmath.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if _, ok := s.minters[minter]; !ok {
		return errorsmod.Wrapf(errcode.ErrNotMinter, "%v", minter.Hex())
	}
	if amount.IsZero() {
		return nil
	}
	supply, err := s.supply.SafeAdd(amount)
	if err != nil {
		return errcode.Overflow(err, "token supply")
	}
	bal, err := s.balance(to).SafeAdd(amount)
	if err != nil {
		return errcode.Overflow(err, "token balance")
	}
	s.supply = supply
	s.balances[to] = bal
	return nil
}

func (s *memState) transfer(from, to common.Address, amount sdkmath.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	fromBal := s.balance(from)
	if fromBal.LT(amount) {
		return errorsmod.Wrapf(errcode.ErrInsufficientBalance, "token balance of %v is %v, need %v",
			from.Hex(), fromBal, amount)
	}
	s.balances[from] = fromBal.Sub(amount)
	toBal, err := s.balance(to).SafeAdd(amount)
	if err != nil {
		return errcode.Overflow(err, "token balance")
	}
	s.balances[to] = toBal
	return nil
}

func (s *memState) transferFrom(holder, spender common.Address, amount sdkmath.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	allowed := s.allowance(holder, spender)
	if allowed.LT(amount) {
		return errorsmod.Wrapf(errcode.ErrInsufficientAllowance, "allowance of %v for %v is %v, need %v",
			holder.Hex(), spender.Hex(), allowed, amount)
	}
	if err := s.transfer(holder, spender, amount); err != nil {
		return err
	}
	s.allowances[holder][spender] = allowed.Sub(amount)
	return nil
}

// memView exposes a memState as a Ledger without locking.  It is only handed
// out inside Batch.
type memView struct {
	st *memState
}

func (v memView) Mint(_ context.Context, minter, to common.Address, amount sdkmath.Int) error {
	return v.st.mint(minter, to, amount)
}

func (v memView) TransferFrom(_ context.Context, holder, spender common.Address, amount sdkmath.Int) error {
	return v.st.transferFrom(holder, spender, amount)
}

func (v memView) Transfer(_ context.Context, from, to common.Address, amount sdkmath.Int) error {
	return v.st.transfer(from, to, amount)
}

func (v memView) BalanceOf(_ context.Context, addr common.Address) (sdkmath.Int, error) {
	return v.st.balance(addr), nil
}

func (v memView) TotalSupply(_ context.Context) (sdkmath.Int, error) {
	return v.st.supply, nil
}

func (v memView) IsContract(_ context.Context, addr common.Address) (bool, error) {
	_, ok := v.st.contracts[addr]
	return ok, nil
}

// MemLedger is an in-memory ERC20-like token.  It is safe for concurrent use.
type MemLedger struct {
	mu sync.Mutex
	st *memState
}

// NewMemLedger returns a token deployed at tokenAddr.
func NewMemLedger(tokenAddr common.Address) *MemLedger {
	st := newMemState()
	st.contracts[tokenAddr] = struct{}{}
	return &MemLedger{st: st}
}

// RegisterContract marks addr as deployed code.
func (m *MemLedger) RegisterContract(addr common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.contracts[addr] = struct{}{}
}

// GrantMinter allows addr to mint.
func (m *MemLedger) GrantMinter(addr common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.minters[addr] = struct{}{}
}

// Approve sets the allowance holder grants spender.
func (m *MemLedger) Approve(holder, spender common.Address, amount sdkmath.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.allowances[holder] == nil {
		m.st.allowances[holder] = make(map[common.Address]sdkmath.Int)
	}
	m.st.allowances[holder][spender] = amount
	return nil
}

// Allowance returns what holder still allows spender to pull.
func (m *MemLedger) Allowance(holder, spender common.Address) sdkmath.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.allowance(holder, spender)
}

func (m *MemLedger) Mint(ctx context.Context, minter, to common.Address, amount sdkmath.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.st}.Mint(ctx, minter, to, amount)
}

func (m *MemLedger) TransferFrom(ctx context.Context, holder, spender common.Address, amount sdkmath.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.st}.TransferFrom(ctx, holder, spender, amount)
}

func (m *MemLedger) Transfer(ctx context.Context, from, to common.Address, amount sdkmath.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.st}.Transfer(ctx, from, to, amount)
}

func (m *MemLedger) BalanceOf(ctx context.Context, addr common.Address) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.st}.BalanceOf(ctx, addr)
}

func (m *MemLedger) TotalSupply(ctx context.Context) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.st}.TotalSupply(ctx)
}

func (m *MemLedger) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.st}.IsContract(ctx, addr)
}

// Batch runs fn against the ledger and rolls every change back if fn fails.
func (m *MemLedger) Batch(ctx context.Context, fn func(ctx context.Context, l Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(ctx, memView{m.st}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

var (
	_ Ledger  = (*MemLedger)(nil)
	_ Batcher = (*MemLedger)(nil)
)
