package model

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// Account is a holder's stake.  DepositDate is zero exactly when the holder
// has nothing staked.
type Account struct {
	Address     common.Address `json:"address"`
	Balance     sdkmath.Int    `json:"balance"`
	DepositDate int64          `json:"deposit_date"`
}

// IsEmpty reports whether the account is in the Empty state.
func (a *Account) IsEmpty() bool {
	return a.DepositDate == 0
}

// PoolStats is a point in time view of the pool used by snapshots.
type PoolStats struct {
	Timestamp         int64       `json:"timestamp"`
	TotalStaked       sdkmath.Int `json:"total_staked"`
	TotalSupply       sdkmath.Int `json:"total_supply"`
	APR               sdkmath.Int `json:"apr"`
	SupplyRate        sdkmath.Int `json:"supply_rate"`
	Accounts          int64       `json:"accounts"`
	OpenAccounts      int64       `json:"open_accounts"`
	OldestDepositDate int64       `json:"oldest_deposit_date"`
}
