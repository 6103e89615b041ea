package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/errcode"
)

var (
	testPool  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testToken = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testLP    = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	testAdmin = common.HexToAddress("0x00000000000000000000000000000000000000dd")
)

const validInitParams = `
admin: "0x00000000000000000000000000000000000000dd"
token: "0x00000000000000000000000000000000000000bb"
forced_withdrawal_fee: 5e16
withdrawal_lock_duration: 72h
lp_reward_address: "0x00000000000000000000000000000000000000cc"
apr:
  init: 5e16
  min: 1e16
  desc_per_month: 1e15
total_supply_factor:
  init: 1e17
  min: 5e16
update_delay_time: 24h
`

func writeInitParams(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "init.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadInitParams(t *testing.T) {
	path := writeInitParams(t, validInitParams)
	admin, p, err := loadInitParams(path, testPool, emission.SplitMaxRateCeiling)
	require.NoError(t, err)

	require.Equal(t, testAdmin, admin)
	require.Equal(t, testToken, p.Token)
	require.Equal(t, testLP, p.LPRewardAddress)
	require.Equal(t, "50000000000000000", p.ForcedWithdrawalFee.String())
	require.Equal(t, int64(72*3600), p.WithdrawalLockDuration)
	require.Equal(t, int64(24*3600), p.UpdateDelayTime)
	require.Equal(t, sdkmath.NewIntWithDecimal(5, 16), p.APR.InitVal)
	require.Equal(t, sdkmath.NewIntWithDecimal(1, 15), p.APR.DescPerMonth)
	require.True(t, p.TotalSupplyFactor.DescPerMonth.IsZero())
	require.Equal(t, emission.SplitMaxRateCeiling, p.SplitMode)
	require.True(t, p.UserShareRate.IsNil())
}

func TestLoadInitParamsSplitMode(t *testing.T) {
	path := writeInitParams(t, validInitParams+"split_mode: FixedShare\nuser_share_rate: 8e17\n")
	_, p, err := loadInitParams(path, testPool, emission.SplitMaxRateCeiling)
	require.NoError(t, err)
	require.Equal(t, emission.SplitFixedShare, p.SplitMode)
	require.Equal(t, sdkmath.NewIntWithDecimal(8, 17), p.UserShareRate)
}

func TestLoadInitParamsErrors(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		is       error
	}{
		{name: "bad admin", old: `admin: "0x00000000000000000000000000000000000000dd"`, new: `admin: "nope"`},
		{name: "fractional fee", old: "forced_withdrawal_fee: 5e16", new: "forced_withdrawal_fee: 0.5"},
		{name: "fee wider than 256 bits", old: "forced_withdrawal_fee: 5e16", new: "forced_withdrawal_fee: 1e100"},
		{name: "sub-second lock", old: "withdrawal_lock_duration: 72h", new: "withdrawal_lock_duration: 1500ms"},
		{name: "unknown field", old: "update_delay_time: 24h", new: "update_delay: 24h"},
		{name: "missing curve value", old: "  min: 1e16\n", new: ""},
		{
			name: "fee above one",
			old:  "forced_withdrawal_fee: 5e16",
			new:  "forced_withdrawal_fee: 2e18",
			is:   errcode.ErrInvalidParameter,
		},
		{
			name: "apr above ceiling",
			old:  "  init: 5e16",
			new:  "  init: 9e16",
			is:   errcode.ErrInvalidParameter,
		},
		{
			name: "lp reward is the pool",
			old:  `lp_reward_address: "0x00000000000000000000000000000000000000cc"`,
			new:  `lp_reward_address: "0x00000000000000000000000000000000000000aa"`,
			is:   errcode.ErrSelfReferentialAddress,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			content := strings.Replace(validInitParams, test.old, test.new, 1)
			require.NotEqual(t, validInitParams, content)
			_, _, err := loadInitParams(writeInitParams(t, content), testPool, emission.SplitFixedShare)
			require.Error(t, err)
			if test.is != nil {
				require.True(t, errors.Is(err, test.is), "got %v", err)
			}
		})
	}
}

func TestLoadInitParamsMissingFile(t *testing.T) {
	_, _, err := loadInitParams(filepath.Join(t.TempDir(), "missing.yaml"), testPool, emission.SplitFixedShare)
	require.Error(t, err)
}
