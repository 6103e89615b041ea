// Package tokenledger describes the fungible token the staking pool holds and
// mints, and provides an in-memory implementation of it.
package tokenledger

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// Ledger is the external token.  The pool must be a minter when emission is
// funded by minting.
type Ledger interface {
	Mint(ctx context.Context, minter common.Address, to common.Address, amount sdkmath.Int) error
	// TransferFrom moves amount from holder to spender, consuming the
	// allowance holder granted to spender.
	TransferFrom(ctx context.Context, holder common.Address, spender common.Address, amount sdkmath.Int) error
	Transfer(ctx context.Context, from common.Address, to common.Address, amount sdkmath.Int) error
	BalanceOf(ctx context.Context, addr common.Address) (sdkmath.Int, error)
	TotalSupply(ctx context.Context) (sdkmath.Int, error)
	IsContract(ctx context.Context, addr common.Address) (bool, error)
}

// Batcher is implemented by ledgers that can run several operations
// all-or-nothing on their own.
type Batcher interface {
	Batch(ctx context.Context, fn func(ctx context.Context, l Ledger) error) error
}

// Atomic runs fn through l.Batch when l supports it.  Ledgers without Batch
// must get their atomicity from the transaction carried by ctx.
func Atomic(ctx context.Context, l Ledger, fn func(ctx context.Context, l Ledger) error) error {
	if b, ok := l.(Batcher); ok {
		return b.Batch(ctx, fn)
	}
	return fn(ctx, l)
}
