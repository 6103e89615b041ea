package do

import "time"

// PoolInfo is the singleton pool row.  Governed parameters are stored as the
// JSON of their current value and pending change.
type PoolInfo struct {
	ID            uint64 `gorm:"primaryKey"`
	Token         string `gorm:"type:varchar(42);not null"`
	Pool          string `gorm:"type:varchar(42);not null"`
	Admin         string `gorm:"type:varchar(42);not null"`
	StartTime     int64  `gorm:"not null"`
	SplitMode     string `gorm:"type:varchar(20);not null"`
	UserShareRate string `gorm:"type:varchar(80);not null"`
	TotalStaked   string `gorm:"type:varchar(80);not null;default:'0'"`

	ForcedWithdrawalFee    string `gorm:"type:text;not null"`
	WithdrawalLockDuration string `gorm:"type:text;not null"`
	LPRewardAddress        string `gorm:"type:text;not null"`
	TotalSupplyFactor      string `gorm:"type:text;not null"`
	UpdateDelayTime        string `gorm:"type:text;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
