package stakingserver

import (
	"errors"

	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/stakingjson"
)

var ledgerErrorCodes = []struct {
	err  error
	code stakingjson.RPCErrorCode
}{
	{errcode.ErrAlreadyInitialized, stakingjson.ErrRPCAlreadyInitialized},
	{errcode.ErrNotAContract, stakingjson.ErrRPCNotAContract},
	{errcode.ErrInvalidParameter, stakingjson.ErrRPCInvalidParameter},
	{errcode.ErrZeroAddress, stakingjson.ErrRPCZeroAddress},
	{errcode.ErrSelfReferentialAddress, stakingjson.ErrRPCSelfReferentialAddress},
	{errcode.ErrUnauthorized, stakingjson.ErrRPCUnauthorized},
	{errcode.ErrInvalidAmount, stakingjson.ErrRPCInvalidAmount},
	{errcode.ErrInsufficientBalance, stakingjson.ErrRPCInsufficientBalance},
	{errcode.ErrArithmeticOverflow, stakingjson.ErrRPCArithmeticOverflow},
	{errcode.ErrNotInitialized, stakingjson.ErrRPCNotInitialized},
	{errcode.ErrInsufficientAllowance, stakingjson.ErrRPCInsufficientAllowance},
	{errcode.ErrNotMinter, stakingjson.ErrRPCNotMinter},
	{errcode.ErrNilGormDB, stakingjson.ErrRPCDatabase},
}

// rpcErrorFromLedger converts a ledger error into the RPC error reported to
// the client.  Unknown errors are returned unchanged and end up as internal
// errors.
func rpcErrorFromLedger(err error) error {
	var rpcErr *stakingjson.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	for _, e := range ledgerErrorCodes {
		if errors.Is(err, e.err) {
			return stakingjson.NewRPCError(e.code, err.Error())
		}
	}
	return err
}

// internalRPCError is a convenience function to convert an internal error to
// an RPC error with the appropriate code set.  It also logs the error to the
// RPC server subsystem since internal errors really should not occur.  The
// context parameter is only used in the log message and may be empty if it's
// not needed.
func internalRPCError(errStr, context string) *stakingjson.RPCError {
	logStr := errStr
	if context != "" {
		logStr = context + ": " + errStr
	}
	log.Error(logStr)
	return stakingjson.NewRPCError(stakingjson.ErrRPCInternal.Code, errStr)
}

func invalidParams(format string, err error) *stakingjson.RPCError {
	return stakingjson.NewRPCError(stakingjson.ErrInvalidRequestParams.Code, format+": "+err.Error())
}
