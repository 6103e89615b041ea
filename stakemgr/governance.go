package stakemgr

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/model"
)

// govern runs one admin setter once the caller and the value have been
// checked.  apply receives a copy of the pool, the current time and the update
// delay live at that time.
func (l *Ledger) govern(ctx context.Context, sender common.Address, param string, value string,
	apply func(pool *model.PoolState, now, delay int64)) (*model.ParamSet, error) {
	pool := l.state.Pool
	now := l.clock.Now()
	delay := pool.UpdateDelayTime.Get(now)
	newPool := pool.Clone()
	apply(newPool, now, delay)

	res := &model.ParamSet{Value: value, Sender: sender, EffectiveAt: now + delay}
	cs := &Changeset{
		Pool:           newPool,
		HistoryChanged: isAPRParam(param),
		Events:         []*model.Event{{Type: model.ParamSetEvent(param), Timestamp: now, ParamSet: res}},
	}
	if err := l.commit(ctx, cs, nil); err != nil {
		return nil, err
	}

	log.Infof("%v set to %v by %v, effective at %d", param, value, sender.Hex(), res.EffectiveAt)
	return res, nil
}

func isAPRParam(param string) bool {
	switch param {
	case model.ParamAPR, model.ParamBasicAPR, model.ParamMonthlyDescRate:
		return true
	}
	return false
}

func (l *Ledger) SetForcedWithdrawalFee(ctx context.Context, sender common.Address, fee sdkmath.Int) (*model.ParamSet, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.checkAdmin(sender); err != nil {
		return nil, err
	}
	if err := validateFee(fee); err != nil {
		return nil, err
	}
	return l.govern(ctx, sender, model.ParamForcedWithdrawalFee, fee.String(), func(p *model.PoolState, now, delay int64) {
		p.ForcedWithdrawalFee = p.ForcedWithdrawalFee.Set(fee, now, delay)
	})
}

func (l *Ledger) SetWithdrawalLockDuration(ctx context.Context, sender common.Address, d int64) (*model.ParamSet, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.checkAdmin(sender); err != nil {
		return nil, err
	}
	if err := validateLockDuration(d); err != nil {
		return nil, err
	}
	return l.govern(ctx, sender, model.ParamWithdrawalLockDuration, model.FormatInt64(d), func(p *model.PoolState, now, delay int64) {
		p.WithdrawalLockDuration = p.WithdrawalLockDuration.Set(d, now, delay)
	})
}

func (l *Ledger) SetLPRewardAddress(ctx context.Context, sender common.Address, addr common.Address) (*model.ParamSet, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.checkAdmin(sender); err != nil {
		return nil, err
	}
	if err := validateLPRewardAddress(addr, l.pool); err != nil {
		return nil, err
	}
	return l.govern(ctx, sender, model.ParamLPRewardAddress, addr.Hex(), func(p *model.PoolState, now, delay int64) {
		p.LPRewardAddress = p.LPRewardAddress.Set(addr, now, delay)
	})
}

// SetAPR replaces the APR curve.
func (l *Ledger) SetAPR(ctx context.Context, sender common.Address, curve emission.Curve) (*model.ParamSet, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.checkAdmin(sender); err != nil {
		return nil, err
	}
	if err := validateAPR(curve); err != nil {
		return nil, err
	}
	return l.setAPRCurve(ctx, sender, model.ParamAPR, model.FormatCurve(curve), curve)
}

// SetBasicAPR replaces the APR curve with a flat rate.
func (l *Ledger) SetBasicAPR(ctx context.Context, sender common.Address, v sdkmath.Int) (*model.ParamSet, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.checkAdmin(sender); err != nil {
		return nil, err
	}
	if err := validateBasicAPR(v); err != nil {
		return nil, err
	}
	return l.setAPRCurve(ctx, sender, model.ParamBasicAPR, v.String(), emission.Flat(v))
}

// SetMonthlyDescRate changes the decay of the latest APR curve, including one
// still waiting for the delay.
func (l *Ledger) SetMonthlyDescRate(ctx context.Context, sender common.Address, d sdkmath.Int) (*model.ParamSet, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.checkAdmin(sender); err != nil {
		return nil, err
	}
	if err := validateDescRate(d); err != nil {
		return nil, err
	}
	curve := l.state.Pool.APRHistory.Latest().WithDescPerMonth(d)
	return l.setAPRCurve(ctx, sender, model.ParamMonthlyDescRate, d.String(), curve)
}

func (l *Ledger) setAPRCurve(ctx context.Context, sender common.Address, param, value string, curve emission.Curve) (*model.ParamSet, error) {
	return l.govern(ctx, sender, param, value, func(p *model.PoolState, now, delay int64) {
		p.APRHistory.Append(now, now+delay, curve)
	})
}

func (l *Ledger) SetTotalSupplyFactor(ctx context.Context, sender common.Address, curve emission.Curve) (*model.ParamSet, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.checkAdmin(sender); err != nil {
		return nil, err
	}
	if err := validateSupplyFactor(curve); err != nil {
		return nil, err
	}
	return l.govern(ctx, sender, model.ParamTotalSupplyFactor, model.FormatCurve(curve), func(p *model.PoolState, now, delay int64) {
		p.TotalSupplyFactor = p.TotalSupplyFactor.Set(curve, now, delay)
	})
}

// SetUpdateDelayTime changes the governance delay.  The change itself waits
// for the delay live now.
func (l *Ledger) SetUpdateDelayTime(ctx context.Context, sender common.Address, d int64) (*model.ParamSet, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.checkAdmin(sender); err != nil {
		return nil, err
	}
	if err := validateUpdateDelay(d); err != nil {
		return nil, err
	}
	return l.govern(ctx, sender, model.ParamUpdateDelayTime, model.FormatInt64(d), func(p *model.PoolState, now, delay int64) {
		p.UpdateDelayTime = p.UpdateDelayTime.Set(d, now, delay)
	})
}

// TransferAdmin hands the admin role to newAdmin immediately.
func (l *Ledger) TransferAdmin(ctx context.Context, sender common.Address, newAdmin common.Address) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.checkAdmin(sender); err != nil {
		return err
	}
	if newAdmin == (common.Address{}) {
		return errorsmod.Wrap(errcode.ErrZeroAddress, "new admin")
	}

	now := l.clock.Now()
	newPool := l.state.Pool.Clone()
	newPool.Admin = newAdmin
	ev := &model.Event{
		Type:      model.EventOwnershipTransfer,
		Timestamp: now,
		OwnershipTransferred: &model.OwnershipTransferred{
			PreviousOwner: sender,
			NewOwner:      newAdmin,
		},
	}
	if err := l.commit(ctx, &Changeset{Pool: newPool, Events: []*model.Event{ev}}, nil); err != nil {
		return err
	}

	log.Infof("Admin transferred from %v to %v", sender.Hex(), newAdmin.Hex())
	return nil
}

// checkAdmin rejects callers other than the admin.  Uninitialized pools have
// no admin.
func (l *Ledger) checkAdmin(sender common.Address) error {
	pool, err := l.poolState()
	if err != nil {
		return err
	}
	if sender != pool.Admin {
		return errorsmod.Wrapf(errcode.ErrUnauthorized, "%v", sender.Hex())
	}
	return nil
}
