package stakemgr

import (
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/model"
)

func TestSettersRequireAdmin(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	calls := map[string]func() error{
		"fee": func() error {
			_, err := f.ledger.SetForcedWithdrawalFee(f.ctx, aliceAddr, milli(1))
			return err
		},
		"lock": func() error {
			_, err := f.ledger.SetWithdrawalLockDuration(f.ctx, aliceAddr, day)
			return err
		},
		"lp": func() error {
			_, err := f.ledger.SetLPRewardAddress(f.ctx, aliceAddr, bobAddr)
			return err
		},
		"apr": func() error {
			_, err := f.ledger.SetAPR(f.ctx, aliceAddr, emission.Flat(milli(1)))
			return err
		},
		"basic_apr": func() error {
			_, err := f.ledger.SetBasicAPR(f.ctx, aliceAddr, milli(1))
			return err
		},
		"desc": func() error {
			_, err := f.ledger.SetMonthlyDescRate(f.ctx, aliceAddr, milli(1))
			return err
		},
		"factor": func() error {
			_, err := f.ledger.SetTotalSupplyFactor(f.ctx, aliceAddr, emission.Flat(milli(1)))
			return err
		},
		"delay": func() error {
			_, err := f.ledger.SetUpdateDelayTime(f.ctx, aliceAddr, day)
			return err
		},
		"admin": func() error {
			return f.ledger.TransferAdmin(f.ctx, aliceAddr, aliceAddr)
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.True(t, errors.Is(err, errcode.ErrUnauthorized), "got %v", err)
			require.Contains(t, err.Error(), "Ownable: caller is not the owner")
		})
	}

	require.Len(t, f.store.Events(), 1)
}

func TestSettersRejectOutOfBounds(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())
	before, err := f.ledger.Params()
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"fee_above_one", func() error {
			_, err := f.ledger.SetForcedWithdrawalFee(f.ctx, adminAddr, tokens(1).AddRaw(1))
			return err
		}, errcode.ErrInvalidParameter},
		{"lock_above_30_days", func() error {
			_, err := f.ledger.SetWithdrawalLockDuration(f.ctx, adminAddr, 31*day)
			return err
		}, errcode.ErrInvalidParameter},
		{"lp_zero", func() error {
			_, err := f.ledger.SetLPRewardAddress(f.ctx, adminAddr, common.Address{})
			return err
		}, errcode.ErrZeroAddress},
		{"lp_pool", func() error {
			_, err := f.ledger.SetLPRewardAddress(f.ctx, adminAddr, poolAddr)
			return err
		}, errcode.ErrSelfReferentialAddress},
		{"apr_above_half_max", func() error {
			_, err := f.ledger.SetAPR(f.ctx, adminAddr, emission.NewCurve(milli(80), milli(5), milli(1)))
			return err
		}, errcode.ErrInvalidParameter},
		{"basic_apr_above_half_max", func() error {
			_, err := f.ledger.SetBasicAPR(f.ctx, adminAddr, milli(76))
			return err
		}, errcode.ErrInvalidParameter},
		{"negative_desc", func() error {
			_, err := f.ledger.SetMonthlyDescRate(f.ctx, adminAddr, sdkmath.NewInt(-1))
			return err
		}, errcode.ErrInvalidParameter},
		{"factor_above_one", func() error {
			_, err := f.ledger.SetTotalSupplyFactor(f.ctx, adminAddr, emission.Flat(tokens(1).AddRaw(1)))
			return err
		}, errcode.ErrInvalidParameter},
		{"negative_delay", func() error {
			_, err := f.ledger.SetUpdateDelayTime(f.ctx, adminAddr, -1)
			return err
		}, errcode.ErrInvalidParameter},
		{"admin_zero", func() error {
			return f.ledger.TransferAdmin(f.ctx, adminAddr, common.Address{})
		}, errcode.ErrZeroAddress},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.call()
			require.True(t, errors.Is(err, test.want), "got %v", err)
		})
	}

	after, err := f.ledger.Params()
	require.NoError(t, err)
	require.Equal(t, before.ForcedWithdrawalFee.String(), after.ForcedWithdrawalFee.String())
	require.Equal(t, before.WithdrawalLockDuration, after.WithdrawalLockDuration)
	require.Equal(t, before.LPRewardAddress, after.LPRewardAddress)
	require.True(t, before.APR.Equal(after.APR))
	require.True(t, before.TotalSupplyFactor.Equal(after.TotalSupplyFactor))
	require.Equal(t, before.UpdateDelayTime, after.UpdateDelayTime)
	require.Equal(t, before.Admin, after.Admin)

	pending, err := f.ledger.PendingChanges()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSetterWaitsForDelay(t *testing.T) {
	p := defaultInitParams()
	p.UpdateDelayTime = 3 * day
	f := newInitializedFixture(t, p)

	set, err := f.ledger.SetForcedWithdrawalFee(f.ctx, adminAddr, milli(50))
	require.NoError(t, err)
	require.Equal(t, start+3*day, set.EffectiveAt)
	require.Equal(t, milli(50).String(), set.Value)

	pending, err := f.ledger.PendingChanges()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, model.ParamForcedWithdrawalFee, pending[0].Param)

	for _, at := range []int64{start, start + day, start + 3*day - 1} {
		f.clock.Set(at)
		fee, err := f.ledger.ForcedWithdrawalFee()
		require.NoError(t, err)
		require.Equal(t, milli(30).String(), fee.String(), "at %d", at)
	}
	for _, at := range []int64{start + 3*day, start + 10*day} {
		f.clock.Set(at)
		fee, err := f.ledger.ForcedWithdrawalFee()
		require.NoError(t, err)
		require.Equal(t, milli(50).String(), fee.String(), "at %d", at)
	}

	pending, err = f.ledger.PendingChanges()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSecondSetReplacesPending(t *testing.T) {
	p := defaultInitParams()
	p.UpdateDelayTime = 2 * day
	f := newInitializedFixture(t, p)

	_, err := f.ledger.SetWithdrawalLockDuration(f.ctx, adminAddr, 5*day)
	require.NoError(t, err)
	f.clock.Advance(day)
	_, err = f.ledger.SetWithdrawalLockDuration(f.ctx, adminAddr, 7*day)
	require.NoError(t, err)

	f.clock.Advance(day)
	d, err := f.ledger.WithdrawalLockDuration()
	require.NoError(t, err)
	require.Equal(t, 2*day, d)

	f.clock.Advance(day)
	d, err = f.ledger.WithdrawalLockDuration()
	require.NoError(t, err)
	require.Equal(t, 7*day, d)
}

func TestSetUpdateDelayTimeIsDelayed(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	// with no delay the new delay is live at once
	_, err := f.ledger.SetUpdateDelayTime(f.ctx, adminAddr, day)
	require.NoError(t, err)
	d, err := f.ledger.UpdateDelayTime()
	require.NoError(t, err)
	require.Equal(t, day, d)

	_, err = f.ledger.SetUpdateDelayTime(f.ctx, adminAddr, 5*day)
	require.NoError(t, err)
	d, err = f.ledger.UpdateDelayTime()
	require.NoError(t, err)
	require.Equal(t, day, d)

	f.clock.Advance(day)
	d, err = f.ledger.UpdateDelayTime()
	require.NoError(t, err)
	require.Equal(t, 5*day, d)

	set, err := f.ledger.SetLPRewardAddress(f.ctx, adminAddr, bobAddr)
	require.NoError(t, err)
	require.Equal(t, start+6*day, set.EffectiveAt)
}

func TestAPRSetters(t *testing.T) {
	p := defaultInitParams()
	p.UpdateDelayTime = day
	f := newInitializedFixture(t, p)

	_, err := f.ledger.SetMonthlyDescRate(f.ctx, adminAddr, milli(10))
	require.NoError(t, err)
	f.clock.Advance(day)

	apr, err := f.ledger.APR()
	require.NoError(t, err)
	require.True(t, apr.Equal(emission.NewCurve(milli(75), milli(5), milli(10))))

	_, err = f.ledger.SetAPR(f.ctx, adminAddr, emission.NewCurve(milli(60), milli(10), milli(2)))
	require.NoError(t, err)
	history, err := f.ledger.RateHistory()
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, start+day, history[1].Timestamp)
	require.Equal(t, start+2*day, history[2].Timestamp)

	// a later call before the first resolves replaces it
	_, err = f.ledger.SetBasicAPR(f.ctx, adminAddr, milli(40))
	require.NoError(t, err)
	history, err = f.ledger.RateHistory()
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.True(t, history[2].Curve.Equal(emission.Flat(milli(40))))

	types := []model.EventType{}
	for _, ev := range f.events {
		types = append(types, ev.Type)
	}
	require.Equal(t, []model.EventType{
		model.EventOwnershipTransfer, "MonthlyDescRateSet", "APRSet", "BasicAPRSet",
	}, types)
}

func TestDescRateKeepsPendingAPR(t *testing.T) {
	p := defaultInitParams()
	p.UpdateDelayTime = day
	f := newInitializedFixture(t, p)

	_, err := f.ledger.SetAPR(f.ctx, adminAddr, emission.NewCurve(milli(20), milli(1), milli(1)))
	require.NoError(t, err)
	_, err = f.ledger.SetMonthlyDescRate(f.ctx, adminAddr, milli(2))
	require.NoError(t, err)

	apr, err := f.ledger.APR()
	require.NoError(t, err)
	require.True(t, apr.Equal(emission.NewCurve(milli(75), milli(5), milli(5))))

	f.clock.Advance(day)
	apr, err = f.ledger.APR()
	require.NoError(t, err)
	require.True(t, apr.Equal(emission.NewCurve(milli(20), milli(1), milli(2))), "got %v", apr)
}

func TestTransferAdmin(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	require.NoError(t, f.ledger.TransferAdmin(f.ctx, adminAddr, bobAddr))
	admin, err := f.ledger.Admin()
	require.NoError(t, err)
	require.Equal(t, bobAddr, admin)

	_, err = f.ledger.SetForcedWithdrawalFee(f.ctx, adminAddr, milli(1))
	require.True(t, errors.Is(err, errcode.ErrUnauthorized))
	_, err = f.ledger.SetForcedWithdrawalFee(f.ctx, bobAddr, milli(1))
	require.NoError(t, err)
}

func TestPruneHistory(t *testing.T) {
	f := newInitializedFixture(t, defaultInitParams())

	for i := int64(1); i <= 3; i++ {
		f.clock.Advance(day)
		_, err := f.ledger.SetBasicAPR(f.ctx, adminAddr, milli(10*i))
		require.NoError(t, err)
	}
	_, err := f.ledger.Deposit(f.ctx, aliceAddr, tokens(1))
	require.NoError(t, err)
	f.clock.Advance(day)
	_, err = f.ledger.SetBasicAPR(f.ctx, adminAddr, milli(5))
	require.NoError(t, err)

	before, err := f.ledger.AccruedEmission(f.ctx, aliceAddr)
	require.NoError(t, err)

	n, err := f.ledger.PruneHistory(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	history, err := f.ledger.RateHistory()
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, start+3*day, history[0].Timestamp)

	after, err := f.ledger.AccruedEmission(f.ctx, aliceAddr)
	require.NoError(t, err)
	require.Equal(t, before.Total.String(), after.Total.String())

	n, err = f.ledger.PruneHistory(f.ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}
