package constdef

import (
	sdkmath "cosmossdk.io/math"
)

// Fixed-point scale of every amount and rate, 1.0 == 1e18.
const ScaleExp = 18

const (
	SecondsPerDay   int64 = 24 * 60 * 60
	SecondsPerMonth int64 = 30 * SecondsPerDay
	SecondsPerYear  int64 = 365 * SecondsPerDay

	// MaxWithdrawalLockDuration bounds withdrawalLockDuration.
	MaxWithdrawalLockDuration = 30 * SecondsPerDay
)

var (
	Scale = sdkmath.NewIntWithDecimal(1, ScaleExp)

	// MaxEmissionRate is the global emission ceiling (15% per year).
	MaxEmissionRate = sdkmath.NewIntWithDecimal(15, ScaleExp-2)

	// DefaultUserShareRate is the user fraction of a settled accrual when the
	// pool runs in fixed share mode.
	DefaultUserShareRate = sdkmath.NewIntWithDecimal(9, ScaleExp-1)

	SecondsPerYearInt = sdkmath.NewInt(SecondsPerYear)
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)
