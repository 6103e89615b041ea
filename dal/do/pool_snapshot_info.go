package do

import "time"

type PoolSnapshotInfo struct {
	ID           uint64 `gorm:"primaryKey"`
	Timestamp    int64  `gorm:"index:idx_timestamp;not null"`
	TotalStaked  string `gorm:"type:varchar(80);not null"`
	TotalSupply  string `gorm:"type:varchar(80);not null"`
	APR          string `gorm:"type:varchar(80);not null"`
	SupplyRate   string `gorm:"type:varchar(80);not null"`
	Accounts     int64  `gorm:"not null;default:0"`
	OpenAccounts int64  `gorm:"not null;default:0"`
	CreatedAt    time.Time
}
