// Package emission computes the yield owed on a staked balance: the decaying
// APR curve, the supply based rate and their integration over the governed
// rate history.
package emission

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/errcode"
)

// Curve is a linearly decaying rate with a floor.  All fields are fixed-point
// fractions scaled by constdef.Scale.
type Curve struct {
	InitVal      sdkmath.Int `json:"init_val"`
	MinVal       sdkmath.Int `json:"min_val"`
	DescPerMonth sdkmath.Int `json:"desc_per_month"`
}

// NewCurve builds a curve from its three parameters.
func NewCurve(initVal, minVal, descPerMonth sdkmath.Int) Curve {
	return Curve{InitVal: initVal, MinVal: minVal, DescPerMonth: descPerMonth}
}

// Flat returns a curve that stays at v forever.
func Flat(v sdkmath.Int) Curve {
	return Curve{InitVal: v, MinVal: v, DescPerMonth: sdkmath.ZeroInt()}
}

// ZeroCurve is the curve of a disabled rate.
func ZeroCurve() Curve {
	return Flat(sdkmath.ZeroInt())
}

// WithDescPerMonth returns a copy of c decaying at desc per month.
func (c Curve) WithDescPerMonth(desc sdkmath.Int) Curve {
	return Curve{InitVal: c.InitVal, MinVal: c.MinVal, DescPerMonth: desc}
}

// Validate checks 0 <= MinVal <= InitVal <= maxInit and DescPerMonth >= 0.
func (c Curve) Validate(name string, maxInit sdkmath.Int) error {
	if c.InitVal.IsNil() || c.MinVal.IsNil() || c.DescPerMonth.IsNil() {
		return errcode.InvalidParam(name, "all curve values set")
	}
	if c.InitVal.IsNegative() || c.InitVal.GT(maxInit) {
		return errcode.InvalidParam(name+".initVal", "0 <= v <= "+maxInit.String())
	}
	if c.MinVal.IsNegative() || c.MinVal.GT(c.InitVal) {
		return errcode.InvalidParam(name+".minVal", "0 <= v <= initVal")
	}
	if c.DescPerMonth.IsNegative() {
		return errcode.InvalidParam(name+".descMonthly", "v >= 0")
	}
	return nil
}

// ValueAt returns max(MinVal, InitVal - elapsed*DescPerMonth/SecondsPerMonth).
// elapsed is measured from the pool start time.
func (c Curve) ValueAt(elapsed int64) (sdkmath.Int, error) {
	if elapsed <= 0 || c.DescPerMonth.IsZero() {
		return c.InitVal, nil
	}

	dec, err := c.DescPerMonth.SafeMul(sdkmath.NewInt(elapsed))
	if err != nil {
		return sdkmath.Int{}, errcode.Overflow(err, "curve decay")
	}
	dec = dec.QuoRaw(constdef.SecondsPerMonth)
	if dec.GTE(c.InitVal) {
		return c.MinVal, nil
	}

	v := c.InitVal.Sub(dec)
	if v.LT(c.MinVal) {
		return c.MinVal, nil
	}
	return v, nil
}

// Equal reports whether both curves have the same parameters.
func (c Curve) Equal(o Curve) bool {
	return c.InitVal.Equal(o.InitVal) && c.MinVal.Equal(o.MinVal) && c.DescPerMonth.Equal(o.DescPerMonth)
}

func (c Curve) String() string {
	return fmt.Sprintf("{init: %v, min: %v, desc/month: %v}", c.InitVal, c.MinVal, c.DescPerMonth)
}
