package model

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/timelock"
)

// PoolState is the singleton pool configuration.  Token, Pool, StartTime and
// the split settings are fixed at initialization; every other economic
// parameter is governed and only changes after the update delay.
type PoolState struct {
	Token         common.Address
	Pool          common.Address
	Admin         common.Address
	StartTime     int64
	SplitMode     emission.SplitMode
	UserShareRate sdkmath.Int
	TotalStaked   sdkmath.Int

	ForcedWithdrawalFee    timelock.Param[sdkmath.Int]
	WithdrawalLockDuration timelock.Param[int64]
	LPRewardAddress        timelock.Param[common.Address]
	TotalSupplyFactor      timelock.Param[emission.Curve]
	UpdateDelayTime        timelock.Param[int64]

	APRHistory *emission.History
}

// Clone returns a copy that can be mutated without touching p.
func (p *PoolState) Clone() *PoolState {
	c := *p
	c.APRHistory = p.APRHistory.Clone()
	return &c
}

// Params is the set of governed values live at a point in time.
type Params struct {
	Token                  common.Address `json:"token"`
	Pool                   common.Address `json:"pool"`
	Admin                  common.Address `json:"admin"`
	StartTime              int64          `json:"start_time"`
	SplitMode              string         `json:"split_mode"`
	UserShareRate          sdkmath.Int    `json:"user_share_rate"`
	TotalStaked            sdkmath.Int    `json:"total_staked"`
	ForcedWithdrawalFee    sdkmath.Int    `json:"forced_withdrawal_fee"`
	WithdrawalLockDuration int64          `json:"withdrawal_lock_duration"`
	LPRewardAddress        common.Address `json:"lp_reward_address"`
	APR                    emission.Curve `json:"apr"`
	TotalSupplyFactor      emission.Curve `json:"total_supply_factor"`
	UpdateDelayTime        int64          `json:"update_delay_time"`
}

// ParamsAt resolves every governed value at now.
func (p *PoolState) ParamsAt(now int64) *Params {
	return &Params{
		Token:                  p.Token,
		Pool:                   p.Pool,
		Admin:                  p.Admin,
		StartTime:              p.StartTime,
		SplitMode:              p.SplitMode.String(),
		UserShareRate:          p.UserShareRate,
		TotalStaked:            p.TotalStaked,
		ForcedWithdrawalFee:    p.ForcedWithdrawalFee.Get(now),
		WithdrawalLockDuration: p.WithdrawalLockDuration.Get(now),
		LPRewardAddress:        p.LPRewardAddress.Get(now),
		APR:                    p.APRHistory.At(now),
		TotalSupplyFactor:      p.TotalSupplyFactor.Get(now),
		UpdateDelayTime:        p.UpdateDelayTime.Get(now),
	}
}

// PendingChange describes a governed value that is not live yet.
type PendingChange struct {
	Param       string `json:"param"`
	Value       string `json:"value"`
	EffectiveAt int64  `json:"effective_at"`
}

// PendingAt lists the changes still waiting at now.
func (p *PoolState) PendingAt(now int64) []PendingChange {
	var res []PendingChange
	if c, ok := p.ForcedWithdrawalFee.PendingAt(now); ok {
		res = append(res, PendingChange{ParamForcedWithdrawalFee, c.Value.String(), c.EffectiveAt})
	}
	if c, ok := p.WithdrawalLockDuration.PendingAt(now); ok {
		res = append(res, PendingChange{ParamWithdrawalLockDuration, FormatInt64(c.Value), c.EffectiveAt})
	}
	if c, ok := p.LPRewardAddress.PendingAt(now); ok {
		res = append(res, PendingChange{ParamLPRewardAddress, c.Value.Hex(), c.EffectiveAt})
	}
	if c, ok := p.TotalSupplyFactor.PendingAt(now); ok {
		res = append(res, PendingChange{ParamTotalSupplyFactor, FormatCurve(c.Value), c.EffectiveAt})
	}
	if c, ok := p.UpdateDelayTime.PendingAt(now); ok {
		res = append(res, PendingChange{ParamUpdateDelayTime, FormatInt64(c.Value), c.EffectiveAt})
	}
	if e, ok := p.APRHistory.PendingAt(now); ok {
		res = append(res, PendingChange{ParamAPR, FormatCurve(e.Curve), e.Timestamp})
	}
	return res
}

// LedgerState is everything the staking ledger owns.  Pool is nil until the
// pool is initialized.
type LedgerState struct {
	Pool     *PoolState
	Accounts map[common.Address]*Account
}

// NewLedgerState returns an uninitialized state.
func NewLedgerState() *LedgerState {
	return &LedgerState{Accounts: make(map[common.Address]*Account)}
}

// Account returns a copy of the account of addr; unknown holders are Empty.
func (s *LedgerState) Account(addr common.Address) Account {
	if a, ok := s.Accounts[addr]; ok {
		return *a
	}
	return Account{Address: addr, Balance: sdkmath.ZeroInt()}
}
