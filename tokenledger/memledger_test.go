package tokenledger

import (
	"context"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/joltify-finance/token-staking/errcode"
)

var (
	tokenAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	poolAddr  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	alice     = common.HexToAddress("0x3000000000000000000000000000000000000003")
	bob       = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

func TestMemLedgerMintAndTransfer(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger(tokenAddr)

	err := l.Mint(ctx, poolAddr, alice, sdkmath.NewInt(100))
	require.True(t, errors.Is(err, errcode.ErrNotMinter))

	l.GrantMinter(poolAddr)
	require.NoError(t, l.Mint(ctx, poolAddr, alice, sdkmath.NewInt(100)))
	require.NoError(t, l.Transfer(ctx, alice, bob, sdkmath.NewInt(40)))

	bal, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, int64(60), bal.Int64())
	bal, err = l.BalanceOf(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, int64(40), bal.Int64())

	supply, err := l.TotalSupply(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100), supply.Int64())

	err = l.Transfer(ctx, bob, alice, sdkmath.NewInt(41))
	require.True(t, errors.Is(err, errcode.ErrInsufficientBalance))

	err = l.Transfer(ctx, bob, alice, sdkmath.NewInt(-1))
	require.True(t, errors.Is(err, errcode.ErrInvalidAmount))
}

func TestMemLedgerTransferFrom(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger(tokenAddr)
	l.GrantMinter(poolAddr)
	require.NoError(t, l.Mint(ctx, poolAddr, alice, sdkmath.NewInt(100)))

	err := l.TransferFrom(ctx, alice, poolAddr, sdkmath.NewInt(10))
	require.True(t, errors.Is(err, errcode.ErrInsufficientAllowance))

	require.NoError(t, l.Approve(alice, poolAddr, sdkmath.NewInt(30)))
	require.NoError(t, l.TransferFrom(ctx, alice, poolAddr, sdkmath.NewInt(10)))
	require.Equal(t, int64(20), l.Allowance(alice, poolAddr).Int64())

	require.NoError(t, l.TransferFrom(ctx, bob, poolAddr, sdkmath.ZeroInt()))
}

func TestMemLedgerIsContract(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger(tokenAddr)

	ok, err := l.IsContract(ctx, tokenAddr)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.IsContract(ctx, alice)
	require.NoError(t, err)
	require.False(t, ok)

	l.RegisterContract(poolAddr)
	ok, err = l.IsContract(ctx, poolAddr)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemLedgerBatchRollback(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger(tokenAddr)
	l.GrantMinter(poolAddr)

	err := Atomic(ctx, l, func(ctx context.Context, tl Ledger) error {
		if err := tl.Mint(ctx, poolAddr, alice, sdkmath.NewInt(50)); err != nil {
			return err
		}
		return tl.Transfer(ctx, alice, bob, sdkmath.NewInt(51))
	})
	require.True(t, errors.Is(err, errcode.ErrInsufficientBalance))

	supply, err := l.TotalSupply(ctx)
	require.NoError(t, err)
	require.True(t, supply.IsZero())

	err = Atomic(ctx, l, func(ctx context.Context, tl Ledger) error {
		if err := tl.Mint(ctx, poolAddr, alice, sdkmath.NewInt(50)); err != nil {
			return err
		}
		return tl.Transfer(ctx, alice, bob, sdkmath.NewInt(20))
	})
	require.NoError(t, err)
	bal, err := l.BalanceOf(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, int64(20), bal.Int64())
}
