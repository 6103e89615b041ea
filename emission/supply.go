package emission

import (
	sdkmath "cosmossdk.io/math"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/errcode"
)

// SupplyRate is the participation based part of the user rate.  With
// target = totalSupply*factor it grows linearly with totalStaked and is capped
// at half of the maximum emission rate once target is reached.
func SupplyRate(totalSupply, factor, totalStaked sdkmath.Int) (sdkmath.Int, error) {
	if factor.IsNil() || factor.IsZero() {
		return sdkmath.ZeroInt(), nil
	}

	half := constdef.MaxEmissionRate.QuoRaw(2)

	target, err := totalSupply.SafeMul(factor)
	if err != nil {
		return sdkmath.Int{}, errcode.Overflow(err, "supply target")
	}
	target = target.Quo(constdef.Scale)
	if totalStaked.GTE(target) {
		return half, nil
	}

	rate, err := half.SafeMul(totalStaked)
	if err != nil {
		return sdkmath.Int{}, errcode.Overflow(err, "supply rate")
	}
	return rate.Quo(target), nil
}
