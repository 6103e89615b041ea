package errcode

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Codespace of the staking ledger errors.
const Codespace = "staking"

var (
	ErrAlreadyInitialized     = errorsmod.Register(Codespace, 2, "already initialized")
	ErrNotAContract           = errorsmod.Register(Codespace, 3, "token address is not a contract")
	ErrInvalidParameter       = errorsmod.Register(Codespace, 4, "invalid parameter")
	ErrZeroAddress            = errorsmod.Register(Codespace, 5, "zero address")
	ErrSelfReferentialAddress = errorsmod.Register(Codespace, 6, "address must not be the pool address")
	ErrUnauthorized           = errorsmod.Register(Codespace, 7, "Ownable: caller is not the owner")
	ErrInvalidAmount          = errorsmod.Register(Codespace, 8, "invalid amount")
	ErrInsufficientBalance    = errorsmod.Register(Codespace, 9, "insufficient balance")
	ErrArithmeticOverflow     = errorsmod.Register(Codespace, 10, "arithmetic overflow")
	ErrNotInitialized         = errorsmod.Register(Codespace, 11, "pool not initialized")
	ErrInsufficientAllowance  = errorsmod.Register(Codespace, 12, "insufficient allowance")
	ErrNotMinter              = errorsmod.Register(Codespace, 13, "caller is not a minter")
)

var ErrNilGormDB = errors.New("nil gorm db")

// Overflow wraps an arithmetic failure of the given operation.
func Overflow(err error, op string) error {
	if err == nil {
		return nil
	}
	return errorsmod.Wrapf(ErrArithmeticOverflow, "%s: %v", op, err)
}

// InvalidParam reports a bound violation on the named parameter.
func InvalidParam(name string, bound string) error {
	return errorsmod.Wrapf(ErrInvalidParameter, "%s must satisfy %s", name, bound)
}
