package emission

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/errcode"
)

// SplitMode selects how a settled accrual is divided between the depositor
// and the LP reward address.
type SplitMode int

const (
	// SplitFixedShare integrates the user rate and hands a fixed fraction of
	// the result to the user.
	SplitFixedShare SplitMode = iota

	// SplitMaxRateCeiling integrates the maximum emission rate for the total
	// and the user rate for the user share.
	SplitMaxRateCeiling
)

var splitModeStrings = map[SplitMode]string{
	SplitFixedShare:     "fixedshare",
	SplitMaxRateCeiling: "maxrateceiling",
}

func (m SplitMode) String() string {
	if s, ok := splitModeStrings[m]; ok {
		return s
	}
	return fmt.Sprintf("Unknown SplitMode (%d)", int(m))
}

// ParseSplitMode converts a configuration string into a SplitMode.
func ParseSplitMode(s string) (SplitMode, error) {
	for mode, str := range splitModeStrings {
		if strings.EqualFold(s, str) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown split mode %q", s)
}

// Accrual is the outcome of one settlement.  UserShare never exceeds Total and
// Total-UserShare goes to the LP reward address.
type Accrual struct {
	Total     sdkmath.Int `json:"total"`
	UserShare sdkmath.Int `json:"user_share"`
}

// ZeroAccrual is returned for empty accounts.
func ZeroAccrual() Accrual {
	return Accrual{Total: sdkmath.ZeroInt(), UserShare: sdkmath.ZeroInt()}
}

// ProtocolShare returns Total-UserShare.
func (a Accrual) ProtocolShare() sdkmath.Int {
	return a.Total.Sub(a.UserShare)
}

// AccrualInput carries everything a settlement depends on.
type AccrualInput struct {
	DepositDate int64
	Now         int64
	StartTime   int64
	Principal   sdkmath.Int

	// Point in time figures for the supply rate, sampled once per settlement.
	TotalSupply  sdkmath.Int
	TotalStaked  sdkmath.Int
	SupplyFactor Curve

	History *History
}

// Engine computes accruals.
type Engine struct {
	Mode          SplitMode
	UserShareRate sdkmath.Int
}

// NewEngine returns an engine; a nil userShareRate selects the default.
func NewEngine(mode SplitMode, userShareRate sdkmath.Int) (*Engine, error) {
	if userShareRate.IsNil() {
		userShareRate = constdef.DefaultUserShareRate
	}
	if userShareRate.IsNegative() || userShareRate.GT(constdef.Scale) {
		return nil, errcode.InvalidParam("userShareRate", "0 <= v <= 1e18")
	}
	if _, ok := splitModeStrings[mode]; !ok {
		return nil, errcode.InvalidParam("splitMode", "known split mode")
	}
	return &Engine{Mode: mode, UserShareRate: userShareRate}, nil
}

var yearScale = constdef.SecondsPerYearInt.Mul(constdef.Scale)

// segmentAccrual returns principal*dt*rate/(YEAR*SCALE), truncated.
func segmentAccrual(principal sdkmath.Int, dt int64, rate sdkmath.Int) (sdkmath.Int, error) {
	v, err := principal.SafeMul(sdkmath.NewInt(dt))
	if err != nil {
		return sdkmath.Int{}, errcode.Overflow(err, "accrual principal*dt")
	}
	v, err = v.SafeMul(rate)
	if err != nil {
		return sdkmath.Int{}, errcode.Overflow(err, "accrual *rate")
	}
	return v.Quo(yearScale), nil
}

// SupplyRateAt samples the supply rate of the pool at now.
func SupplyRateAt(factor Curve, startTime, now int64, totalSupply, totalStaked sdkmath.Int) (sdkmath.Int, error) {
	f, err := factor.ValueAt(now - startTime)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return SupplyRate(totalSupply, f, totalStaked)
}

// Accrue settles the yield of Principal held over [DepositDate, Now).
func (e *Engine) Accrue(in AccrualInput) (Accrual, error) {
	if in.DepositDate == 0 || in.Principal.IsNil() || in.Principal.IsZero() || in.Now <= in.DepositDate {
		return ZeroAccrual(), nil
	}
	if in.History == nil {
		return Accrual{}, fmt.Errorf("nil rate history")
	}

	supplyRate, err := SupplyRateAt(in.SupplyFactor, in.StartTime, in.Now, in.TotalSupply, in.TotalStaked)
	if err != nil {
		return Accrual{}, err
	}

	total := sdkmath.ZeroInt()
	user := sdkmath.ZeroInt()
	for _, seg := range in.History.Between(in.DepositDate, in.Now) {
		apr, err := seg.Curve.ValueAt(seg.End - in.StartTime)
		if err != nil {
			return Accrual{}, err
		}
		rate, err := apr.SafeAdd(supplyRate)
		if err != nil {
			return Accrual{}, errcode.Overflow(err, "user rate")
		}

		dt := seg.End - seg.Start
		userPart, err := segmentAccrual(in.Principal, dt, rate)
		if err != nil {
			return Accrual{}, err
		}

		switch e.Mode {
		case SplitMaxRateCeiling:
			totalPart, err := segmentAccrual(in.Principal, dt, constdef.MaxEmissionRate)
			if err != nil {
				return Accrual{}, err
			}
			if total, err = total.SafeAdd(totalPart); err != nil {
				return Accrual{}, errcode.Overflow(err, "accrual total")
			}
			if user, err = user.SafeAdd(userPart); err != nil {
				return Accrual{}, errcode.Overflow(err, "accrual user share")
			}
		default:
			if total, err = total.SafeAdd(userPart); err != nil {
				return Accrual{}, errcode.Overflow(err, "accrual total")
			}
		}
	}

	if e.Mode != SplitMaxRateCeiling {
		user, err = total.SafeMul(e.UserShareRate)
		if err != nil {
			return Accrual{}, errcode.Overflow(err, "accrual user share")
		}
		user = user.Quo(constdef.Scale)
	}
	if user.GT(total) {
		user = total
	}
	return Accrual{Total: total, UserShare: user}, nil
}
