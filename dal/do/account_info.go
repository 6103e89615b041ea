package do

import "time"

type AccountInfo struct {
	ID          uint64 `gorm:"primaryKey"`
	Address     string `gorm:"uniqueIndex:unique_idx_address;type:varchar(42);not null"`
	Balance     string `gorm:"type:varchar(80);not null;default:'0'"`
	DepositDate int64  `gorm:"index;not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
