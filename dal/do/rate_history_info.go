package do

import "time"

type RateHistoryInfo struct {
	ID           uint64 `gorm:"primaryKey"`
	Timestamp    int64  `gorm:"uniqueIndex:unique_idx_timestamp;not null"`
	InitVal      string `gorm:"type:varchar(80);not null"`
	MinVal       string `gorm:"type:varchar(80);not null"`
	DescPerMonth string `gorm:"type:varchar(80);not null"`
	CreatedAt    time.Time
}
