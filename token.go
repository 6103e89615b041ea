package main

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/stakingserver"
	"github.com/joltify-finance/token-staking/tokenledger"
)

var (
	simnetTokenAddress  = common.HexToAddress("0x0000000000000000000000000000000000001000")
	simnetPoolAddress   = common.HexToAddress("0x000000000000000000000000000000000000beef")
	simnetFaucetAddress = common.HexToAddress("0x000000000000000000000000000000000000fa0c")

	// maxFaucetAmount caps a single faucet request at one million tokens.
	maxFaucetAmount = sdkmath.NewInt(1_000_000).Mul(constdef.Scale)
)

// tokenAdmin is the token ledger together with the operations only the
// daemon performs on it.  service.TokenLedgerService implements it directly.
type tokenAdmin interface {
	tokenledger.Ledger
	Register(ctx context.Context, token common.Address) error
	GrantMinter(ctx context.Context, addr common.Address) error
	Allowance(ctx context.Context, holder, spender common.Address) (sdkmath.Int, error)
	Approve(ctx context.Context, holder, spender common.Address, amount sdkmath.Int) error
}

// memTokenAdmin adapts the in-process simnet token.
type memTokenAdmin struct {
	*tokenledger.MemLedger
}

func (m memTokenAdmin) Register(_ context.Context, token common.Address) error {
	m.RegisterContract(token)
	return nil
}

func (m memTokenAdmin) GrantMinter(_ context.Context, addr common.Address) error {
	m.MemLedger.GrantMinter(addr)
	return nil
}

func (m memTokenAdmin) Allowance(_ context.Context, holder, spender common.Address) (sdkmath.Int, error) {
	return m.MemLedger.Allowance(holder, spender), nil
}

func (m memTokenAdmin) Approve(_ context.Context, holder, spender common.Address, amount sdkmath.Int) error {
	return m.MemLedger.Approve(holder, spender, amount)
}

// bootstrapToken registers the token contract and lets the pool and the
// extra minters mint.
func bootstrapToken(ctx context.Context, t tokenAdmin, token, pool common.Address, minters ...common.Address) error {
	if err := t.Register(ctx, token); err != nil {
		return err
	}
	for _, addr := range append([]common.Address{pool}, minters...) {
		if err := t.GrantMinter(ctx, addr); err != nil {
			return err
		}
	}
	return nil
}

// faucet mints test tokens and approves the pool to pull them, so that a
// fresh address can deposit right away.
type faucet struct {
	token  tokenAdmin
	minter common.Address
	pool   common.Address
}

var _ stakingserver.Faucet = (*faucet)(nil)

func (f *faucet) Fund(ctx context.Context, to common.Address, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() || amount.GT(maxFaucetAmount) {
		return errorsmod.Wrapf(errcode.ErrInvalidAmount, "faucet amount %v", amount)
	}
	if err := f.token.Mint(ctx, f.minter, to, amount); err != nil {
		return err
	}
	allowance, err := f.token.Allowance(ctx, to, f.pool)
	if err != nil {
		return err
	}
	stkdLog.Debugf("Faucet sent %v to %v", amount, to.Hex())
	return f.token.Approve(ctx, to, f.pool, allowance.Add(amount))
}
