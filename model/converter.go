package model

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/dal/do"
	"github.com/joltify-finance/token-staking/emission"
)

// ParseInt parses a base 10 amount.
func ParseInt(name, s string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

func marshalString(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func ConvertPoolToDO(p *PoolState) (*do.PoolInfo, error) {
	if p == nil {
		return nil, nil
	}
	info := &do.PoolInfo{
		Token:         p.Token.Hex(),
		Pool:          p.Pool.Hex(),
		Admin:         p.Admin.Hex(),
		StartTime:     p.StartTime,
		SplitMode:     p.SplitMode.String(),
		UserShareRate: p.UserShareRate.String(),
		TotalStaked:   p.TotalStaked.String(),
	}

	var err error
	if info.ForcedWithdrawalFee, err = marshalString(p.ForcedWithdrawalFee); err != nil {
		return nil, err
	}
	if info.WithdrawalLockDuration, err = marshalString(p.WithdrawalLockDuration); err != nil {
		return nil, err
	}
	if info.LPRewardAddress, err = marshalString(p.LPRewardAddress); err != nil {
		return nil, err
	}
	if info.TotalSupplyFactor, err = marshalString(p.TotalSupplyFactor); err != nil {
		return nil, err
	}
	if info.UpdateDelayTime, err = marshalString(p.UpdateDelayTime); err != nil {
		return nil, err
	}
	return info, nil
}

// ConvertPoolFromDO rebuilds the pool from its row and its rate history.
func ConvertPoolFromDO(info *do.PoolInfo, history []*do.RateHistoryInfo) (*PoolState, error) {
	if info == nil {
		return nil, nil
	}
	mode, err := emission.ParseSplitMode(info.SplitMode)
	if err != nil {
		return nil, err
	}
	p := &PoolState{
		Token:     common.HexToAddress(info.Token),
		Pool:      common.HexToAddress(info.Pool),
		Admin:     common.HexToAddress(info.Admin),
		StartTime: info.StartTime,
		SplitMode: mode,
	}
	if p.UserShareRate, err = ParseInt("user share rate", info.UserShareRate); err != nil {
		return nil, err
	}
	if p.TotalStaked, err = ParseInt("total staked", info.TotalStaked); err != nil {
		return nil, err
	}

	columns := []struct {
		name string
		raw  string
		dst  interface{}
	}{
		{"forced_withdrawal_fee", info.ForcedWithdrawalFee, &p.ForcedWithdrawalFee},
		{"withdrawal_lock_duration", info.WithdrawalLockDuration, &p.WithdrawalLockDuration},
		{"lp_reward_address", info.LPRewardAddress, &p.LPRewardAddress},
		{"total_supply_factor", info.TotalSupplyFactor, &p.TotalSupplyFactor},
		{"update_delay_time", info.UpdateDelayTime, &p.UpdateDelayTime},
	}
	for _, col := range columns {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("invalid %s: %v", col.name, err)
		}
	}

	entries := make([]emission.Entry, 0, len(history))
	for _, h := range history {
		e, err := ConvertRateHistoryFromDO(h)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if p.APRHistory, err = emission.RestoreHistory(entries); err != nil {
		return nil, err
	}
	return p, nil
}

func ConvertRateHistoryToDO(h *emission.History) []*do.RateHistoryInfo {
	entries := h.Entries()
	res := make([]*do.RateHistoryInfo, 0, len(entries))
	for _, e := range entries {
		res = append(res, &do.RateHistoryInfo{
			Timestamp:    e.Timestamp,
			InitVal:      e.Curve.InitVal.String(),
			MinVal:       e.Curve.MinVal.String(),
			DescPerMonth: e.Curve.DescPerMonth.String(),
		})
	}
	return res
}

func ConvertRateHistoryFromDO(info *do.RateHistoryInfo) (emission.Entry, error) {
	initVal, err := ParseInt("initVal", info.InitVal)
	if err != nil {
		return emission.Entry{}, err
	}
	minVal, err := ParseInt("minVal", info.MinVal)
	if err != nil {
		return emission.Entry{}, err
	}
	desc, err := ParseInt("descPerMonth", info.DescPerMonth)
	if err != nil {
		return emission.Entry{}, err
	}
	return emission.Entry{Timestamp: info.Timestamp, Curve: emission.NewCurve(initVal, minVal, desc)}, nil
}

func ConvertAccountToDO(a *Account) *do.AccountInfo {
	if a == nil {
		return nil
	}
	return &do.AccountInfo{
		Address:     a.Address.Hex(),
		Balance:     a.Balance.String(),
		DepositDate: a.DepositDate,
	}
}

func ConvertAccountFromDO(info *do.AccountInfo) (*Account, error) {
	balance, err := ParseInt("balance", info.Balance)
	if err != nil {
		return nil, err
	}
	return &Account{
		Address:     common.HexToAddress(info.Address),
		Balance:     balance,
		DepositDate: info.DepositDate,
	}, nil
}

func ConvertEventToDO(e *Event) (*do.EventInfo, error) {
	payload, err := marshalString(e)
	if err != nil {
		return nil, err
	}
	return &do.EventInfo{
		Type:      string(e.Type),
		Sender:    e.Sender().Hex(),
		Timestamp: e.Timestamp,
		Payload:   payload,
	}, nil
}

func ConvertEventFromDO(info *do.EventInfo) (*Event, error) {
	e := &Event{}
	if err := json.Unmarshal([]byte(info.Payload), e); err != nil {
		return nil, fmt.Errorf("invalid event %d: %v", info.ID, err)
	}
	return e, nil
}

func ConvertStatsToDO(s *PoolStats) *do.PoolSnapshotInfo {
	return &do.PoolSnapshotInfo{
		Timestamp:    s.Timestamp,
		TotalStaked:  s.TotalStaked.String(),
		TotalSupply:  s.TotalSupply.String(),
		APR:          s.APR.String(),
		SupplyRate:   s.SupplyRate.String(),
		Accounts:     s.Accounts,
		OpenAccounts: s.OpenAccounts,
	}
}

func ConvertStatsFromDO(info *do.PoolSnapshotInfo) (*PoolStats, error) {
	s := &PoolStats{
		Timestamp:    info.Timestamp,
		Accounts:     info.Accounts,
		OpenAccounts: info.OpenAccounts,
	}
	var err error
	if s.TotalStaked, err = ParseInt("total staked", info.TotalStaked); err != nil {
		return nil, err
	}
	if s.TotalSupply, err = ParseInt("total supply", info.TotalSupply); err != nil {
		return nil, err
	}
	if s.APR, err = ParseInt("apr", info.APR); err != nil {
		return nil, err
	}
	if s.SupplyRate, err = ParseInt("supply rate", info.SupplyRate); err != nil {
		return nil, err
	}
	return s, nil
}
