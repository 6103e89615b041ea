package stakemgr

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/model"
)

// Changeset is everything one ledger call writes.
type Changeset struct {
	// Pool is the new pool state, nil when the call did not touch it.
	Pool *model.PoolState
	// HistoryChanged is set when Pool.APRHistory must be rewritten.
	HistoryChanged bool
	Accounts       []*model.Account
	Events         []*model.Event
}

// Store persists the ledger.  Commit must write cs and run effects as one
// unit: if effects fails nothing of cs may be visible afterwards.
type Store interface {
	Load(ctx context.Context) (*model.LedgerState, error)
	Commit(ctx context.Context, cs *Changeset, effects func(ctx context.Context) error) error
}

// MemStore keeps the ledger in memory.
type MemStore struct {
	mtx    sync.Mutex
	state  *model.LedgerState
	events []*model.Event
}

func NewMemStore() *MemStore {
	return &MemStore{state: model.NewLedgerState()}
}

func (s *MemStore) Load(_ context.Context) (*model.LedgerState, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return copyState(s.state), nil
}

func (s *MemStore) Commit(ctx context.Context, cs *Changeset, effects func(ctx context.Context) error) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if effects != nil {
		if err := effects(ctx); err != nil {
			return err
		}
	}

	if cs.Pool != nil {
		s.state.Pool = cs.Pool.Clone()
	}
	for _, acct := range cs.Accounts {
		a := *acct
		s.state.Accounts[a.Address] = &a
	}
	s.events = append(s.events, cs.Events...)
	return nil
}

// Events returns every event committed so far.
func (s *MemStore) Events() []*model.Event {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	res := make([]*model.Event, len(s.events))
	copy(res, s.events)
	return res
}

func copyState(st *model.LedgerState) *model.LedgerState {
	c := &model.LedgerState{Accounts: make(map[common.Address]*model.Account, len(st.Accounts))}
	if st.Pool != nil {
		c.Pool = st.Pool.Clone()
	}
	for addr, acct := range st.Accounts {
		a := *acct
		c.Accounts[addr] = &a
	}
	return c
}

var _ Store = (*MemStore)(nil)
