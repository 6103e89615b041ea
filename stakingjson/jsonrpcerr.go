package stakingjson

// Standard JSON-RPC 2.0 errors.
var (
	ErrRPCInvalidRequest = &RPCError{
		Code:    -32600,
		Message: "Invalid request",
	}
	ErrRPCMethodNotFound = &RPCError{
		Code:    -32601,
		Message: "Method not found",
	}
	ErrRPCInvalidParams = &RPCError{
		Code:    -32602,
		Message: "Invalid parameters",
	}
	ErrRPCInternal = &RPCError{
		Code:    -32603,
		Message: "Internal error",
	}
	ErrRPCParse = &RPCError{
		Code:    -32700,
		Message: "Parse error",
	}
)

var (
	ErrInvalidSignature = &RPCError{
		Code:    -101,
		Message: "Invalid signature",
	}
	ErrSenderMismatch = &RPCError{
		Code:    -102,
		Message: "Signature does not match sender",
	}
	ErrTimestampExpired = &RPCError{
		Code:    -103,
		Message: "Timestamp expired",
	}
	ErrReplayedRequest = &RPCError{
		Code:    -104,
		Message: "Request already processed",
	}
	ErrInvalidRequestParams = &RPCError{
		Code:    401,
		Message: "Invalid request params",
	}
	ErrAddressInvalid = &RPCError{
		Code:    407,
		Message: "Address invalid",
	}
	ErrNotAvailable = &RPCError{
		Code:    410,
		Message: "Not available on this network",
	}
	ErrInternal = &RPCError{
		Code:    500,
		Message: "Internal error",
	}
)

// Ledger errors.  The codes are 1000 plus the registered code of the
// matching errcode error.
const (
	ErrRPCAlreadyInitialized     RPCErrorCode = 1002
	ErrRPCNotAContract           RPCErrorCode = 1003
	ErrRPCInvalidParameter       RPCErrorCode = 1004
	ErrRPCZeroAddress            RPCErrorCode = 1005
	ErrRPCSelfReferentialAddress RPCErrorCode = 1006
	ErrRPCUnauthorized           RPCErrorCode = 1007
	ErrRPCInvalidAmount          RPCErrorCode = 1008
	ErrRPCInsufficientBalance    RPCErrorCode = 1009
	ErrRPCArithmeticOverflow     RPCErrorCode = 1010
	ErrRPCNotInitialized         RPCErrorCode = 1011
	ErrRPCInsufficientAllowance  RPCErrorCode = 1012
	ErrRPCNotMinter              RPCErrorCode = 1013
	ErrRPCDatabase               RPCErrorCode = 1020
)
