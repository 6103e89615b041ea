package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalidParam(t *testing.T) {
	err := InvalidParam("forcedWithdrawalFee", "0 <= v <= 1e18")
	require.True(t, errors.Is(err, ErrInvalidParameter))
	require.Contains(t, err.Error(), "forcedWithdrawalFee")
	require.False(t, errors.Is(err, ErrInvalidAmount))
}

func TestOverflow(t *testing.T) {
	require.NoError(t, Overflow(nil, "mul"))

	err := Overflow(fmt.Errorf("integer overflow"), "mul")
	require.True(t, errors.Is(err, ErrArithmeticOverflow))
	require.Contains(t, err.Error(), "mul")
}
