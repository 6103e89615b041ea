package restapi

import (
	sdkmath "cosmossdk.io/math"

	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/utils"
)

// Amount is a token amount both as the raw fixed point integer and in
// token units.
type Amount struct {
	Raw   string `json:"raw"`
	Value string `json:"value"`
}

func newAmount(v sdkmath.Int) Amount {
	if v.IsNil() {
		v = sdkmath.ZeroInt()
	}
	return Amount{Raw: v.String(), Value: utils.FormatUnits(v)}
}

// Rate is a fixed point rate both raw and as a percentage.
type Rate struct {
	Raw     string `json:"raw"`
	Percent string `json:"percent"`
}

func newRate(v sdkmath.Int) Rate {
	if v.IsNil() {
		v = sdkmath.ZeroInt()
	}
	return Rate{Raw: v.String(), Percent: utils.FormatPercent(v)}
}

type CurveView struct {
	InitVal      Rate `json:"init_val"`
	MinVal       Rate `json:"min_val"`
	DescPerMonth Rate `json:"desc_per_month"`
}

func newCurveView(c emission.Curve) CurveView {
	return CurveView{
		InitVal:      newRate(c.InitVal),
		MinVal:       newRate(c.MinVal),
		DescPerMonth: newRate(c.DescPerMonth),
	}
}

type PoolView struct {
	Now                    int64     `json:"now"`
	Token                  string    `json:"token"`
	Pool                   string    `json:"pool"`
	Admin                  string    `json:"admin"`
	StartTime              int64     `json:"start_time"`
	SplitMode              string    `json:"split_mode"`
	UserShareRate          Rate      `json:"user_share_rate"`
	ForcedWithdrawalFee    Rate      `json:"forced_withdrawal_fee"`
	WithdrawalLockDuration int64     `json:"withdrawal_lock_duration"`
	LPRewardAddress        string    `json:"lp_reward_address"`
	APR                    CurveView `json:"apr"`
	TotalSupplyFactor      CurveView `json:"total_supply_factor"`
	UpdateDelayTime        int64     `json:"update_delay_time"`

	TotalStaked  Amount `json:"total_staked"`
	TotalSupply  Amount `json:"total_supply"`
	LiveAPR      Rate   `json:"live_apr"`
	SupplyRate   Rate   `json:"supply_rate"`
	Accounts     int64  `json:"accounts"`
	OpenAccounts int64  `json:"open_accounts"`
}

func newPoolView(p *model.Params, s *model.PoolStats) *PoolView {
	return &PoolView{
		Now:                    s.Timestamp,
		Token:                  p.Token.Hex(),
		Pool:                   p.Pool.Hex(),
		Admin:                  p.Admin.Hex(),
		StartTime:              p.StartTime,
		SplitMode:              p.SplitMode,
		UserShareRate:          newRate(p.UserShareRate),
		ForcedWithdrawalFee:    newRate(p.ForcedWithdrawalFee),
		WithdrawalLockDuration: p.WithdrawalLockDuration,
		LPRewardAddress:        p.LPRewardAddress.Hex(),
		APR:                    newCurveView(p.APR),
		TotalSupplyFactor:      newCurveView(p.TotalSupplyFactor),
		UpdateDelayTime:        p.UpdateDelayTime,
		TotalStaked:            newAmount(s.TotalStaked),
		TotalSupply:            newAmount(s.TotalSupply),
		LiveAPR:                newRate(s.APR),
		SupplyRate:             newRate(s.SupplyRate),
		Accounts:               s.Accounts,
		OpenAccounts:           s.OpenAccounts,
	}
}

type AccountView struct {
	Address          string `json:"address"`
	Balance          Amount `json:"balance"`
	DepositDate      int64  `json:"deposit_date"`
	Open             bool   `json:"open"`
	AccruedTotal     Amount `json:"accrued_total"`
	AccruedUserShare Amount `json:"accrued_user_share"`
}

func newAccountView(a *model.Account) *AccountView {
	return &AccountView{
		Address:     a.Address.Hex(),
		Balance:     newAmount(a.Balance),
		DepositDate: a.DepositDate,
		Open:        !a.IsEmpty(),
	}
}

type SnapshotView struct {
	Timestamp         int64  `json:"timestamp"`
	TotalStaked       Amount `json:"total_staked"`
	TotalSupply       Amount `json:"total_supply"`
	APR               Rate   `json:"apr"`
	SupplyRate        Rate   `json:"supply_rate"`
	Accounts          int64  `json:"accounts"`
	OpenAccounts      int64  `json:"open_accounts"`
	OldestDepositDate int64  `json:"oldest_deposit_date"`
}

func newSnapshotView(s *model.PoolStats) *SnapshotView {
	return &SnapshotView{
		Timestamp:         s.Timestamp,
		TotalStaked:       newAmount(s.TotalStaked),
		TotalSupply:       newAmount(s.TotalSupply),
		APR:               newRate(s.APR),
		SupplyRate:        newRate(s.SupplyRate),
		Accounts:          s.Accounts,
		OpenAccounts:      s.OpenAccounts,
		OldestDepositDate: s.OldestDepositDate,
	}
}

type RateEntryView struct {
	Timestamp int64     `json:"timestamp"`
	Curve     CurveView `json:"curve"`
}

// Page wraps one page of a listing.
type Page struct {
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Num   int         `json:"num"`
	Items interface{} `json:"items"`
}
