package stakemgr

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/errcode"
)

// InitParams are the arguments of Initialize.
type InitParams struct {
	Token                  common.Address
	ForcedWithdrawalFee    sdkmath.Int
	WithdrawalLockDuration int64
	LPRewardAddress        common.Address
	APR                    emission.Curve
	TotalSupplyFactor      emission.Curve
	UpdateDelayTime        int64

	SplitMode emission.SplitMode
	// UserShareRate defaults to constdef.DefaultUserShareRate when nil.
	UserShareRate sdkmath.Int
}

// maxAPR bounds the initial value of every APR curve.
var maxAPR = constdef.MaxEmissionRate.QuoRaw(2)

func validateFee(v sdkmath.Int) error {
	if v.IsNil() || v.IsNegative() || v.GT(constdef.Scale) {
		return errcode.InvalidParam("forcedWithdrawalFee", "0 <= v <= 1e18")
	}
	return nil
}

func validateLockDuration(v int64) error {
	if v < 0 || v > constdef.MaxWithdrawalLockDuration {
		return errcode.InvalidParam("withdrawalLockDuration", "0 <= v <= 30 days")
	}
	return nil
}

func validateLPRewardAddress(addr, pool common.Address) error {
	if addr == (common.Address{}) {
		return errorsmod.Wrap(errcode.ErrZeroAddress, "LPRewardAddress")
	}
	if addr == pool {
		return errorsmod.Wrapf(errcode.ErrSelfReferentialAddress, "LPRewardAddress %v", addr.Hex())
	}
	return nil
}

func validateAPR(c emission.Curve) error {
	return c.Validate("APR", maxAPR)
}

func validateBasicAPR(v sdkmath.Int) error {
	if v.IsNil() || v.IsNegative() || v.GT(maxAPR) {
		return errcode.InvalidParam("basicAPR", "0 <= v <= "+maxAPR.String())
	}
	return nil
}

func validateDescRate(v sdkmath.Int) error {
	if v.IsNil() || v.IsNegative() {
		return errcode.InvalidParam("monthlyDescRate", "v >= 0")
	}
	return nil
}

func validateSupplyFactor(c emission.Curve) error {
	return c.Validate("totalSupplyFactor", constdef.Scale)
}

func validateUpdateDelay(v int64) error {
	if v < 0 {
		return errcode.InvalidParam("updateDelayTime", "v >= 0")
	}
	return nil
}

// Validate checks every bound of p against the pool address.
func (p *InitParams) Validate(pool common.Address) error {
	if p.Token == (common.Address{}) {
		return errorsmod.Wrap(errcode.ErrZeroAddress, "token")
	}
	if err := validateFee(p.ForcedWithdrawalFee); err != nil {
		return err
	}
	if err := validateLockDuration(p.WithdrawalLockDuration); err != nil {
		return err
	}
	if err := validateLPRewardAddress(p.LPRewardAddress, pool); err != nil {
		return err
	}
	if err := validateAPR(p.APR); err != nil {
		return err
	}
	if err := validateSupplyFactor(p.TotalSupplyFactor); err != nil {
		return err
	}
	return validateUpdateDelay(p.UpdateDelayTime)
}
