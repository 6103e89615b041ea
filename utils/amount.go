package utils

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/shopspring/decimal"

	"github.com/joltify-finance/token-staking/constdef"
)

// maxAmountExp bounds the decimal exponent accepted by the parsers.  Any
// non-zero value with a larger exponent is wider than sdkmath.MaxBitLen.
const maxAmountExp = 78

// ParseRaw parses a non-negative integer written either plainly or in
// scientific notation ("15e16").  Fractions are rejected.
func ParseRaw(s string) (sdkmath.Int, error) {
	if IsBlank(s) {
		return sdkmath.Int{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("invalid amount %q: %v", s, err)
	}
	return decimalToInt(s, d)
}

// ParseUnits parses a decimal token amount ("1.5") into its fixed-point
// representation scaled by constdef.Scale.
func ParseUnits(s string) (sdkmath.Int, error) {
	if IsBlank(s) {
		return sdkmath.Int{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("invalid amount %q: %v", s, err)
	}
	if d.Exponent() > maxAmountExp || d.Exponent() < -maxAmountExp {
		return sdkmath.Int{}, fmt.Errorf("amount %q out of range", s)
	}
	return decimalToInt(s, d.Shift(constdef.ScaleExp))
}

func decimalToInt(s string, d decimal.Decimal) (sdkmath.Int, error) {
	if d.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("amount %q is negative", s)
	}
	if d.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	// BigInt and Truncate expand the exponent into digits.
	if d.Exponent() > maxAmountExp || d.Exponent() < -maxAmountExp {
		return sdkmath.Int{}, fmt.Errorf("amount %q out of range", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return sdkmath.Int{}, fmt.Errorf("amount %q has more than %d decimals", s, constdef.ScaleExp)
	}
	bi := d.BigInt()
	if bi.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.Int{}, fmt.Errorf("amount %q exceeds %d bits", s, sdkmath.MaxBitLen)
	}
	return sdkmath.NewIntFromBigInt(bi), nil
}

// FormatUnits renders a fixed-point amount as a decimal token amount.
func FormatUnits(v sdkmath.Int) string {
	if v.IsNil() {
		return "0"
	}
	return decimal.NewFromBigInt(v.BigInt(), -constdef.ScaleExp).String()
}

// FormatPercent renders a fixed-point rate as a percentage, e.g. 0.15e18
// becomes "15".
func FormatPercent(v sdkmath.Int) string {
	if v.IsNil() {
		return "0"
	}
	return decimal.NewFromBigInt(v.BigInt(), 2-constdef.ScaleExp).String()
}
