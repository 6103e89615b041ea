package stakingjson

import (
	sdkmath "cosmossdk.io/math"

	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/model"
)

// VersionResult models objects included in the version response.  In the actual
// result, these objects are keyed by the program or API name.
type VersionResult struct {
	VersionString string `json:"version,omitempty"`
	Major         uint32 `json:"major,omitempty"`
	Minor         uint32 `json:"minor,omitempty"`
	Patch         uint32 `json:"patch,omitempty"`
	Prerelease    string `json:"prerelease,omitempty"`
	BuildMetadata string `json:"buildmetadata,omitempty"`
}

// GetPoolInfoResult models the data returned by getpoolinfo.
type GetPoolInfoResult struct {
	Now         int64            `json:"now"`
	Initialized bool             `json:"initialized"`
	Params      *model.Params    `json:"params,omitempty"`
	Stats       *model.PoolStats `json:"stats,omitempty"`
}

type AccountResult struct {
	Address          string      `json:"address"`
	Balance          sdkmath.Int `json:"balance"`
	DepositDate      int64       `json:"deposit_date"`
	AccruedTotal     sdkmath.Int `json:"accrued_total"`
	AccruedUserShare sdkmath.Int `json:"accrued_user_share"`
}

type GetAccountsResult struct {
	Total    int64            `json:"total"`
	Accounts []*model.Account `json:"accounts"`
}

type GetRateHistoryResult struct {
	Entries []emission.Entry `json:"entries"`
}

type GetPendingChangesResult struct {
	Pending []model.PendingChange `json:"pending"`
}

type GetEventsResult struct {
	Total  int64          `json:"total"`
	Events []*model.Event `json:"events"`
}

type GetSnapshotsResult struct {
	Total     int64              `json:"total"`
	Snapshots []*model.PoolStats `json:"snapshots"`
}

type CommonResult struct {
	Success bool `json:"success"`
}
