package do

import "time"

type EventInfo struct {
	ID        uint64 `gorm:"primaryKey"`
	Type      string `gorm:"index:idx_type;type:varchar(40);not null"`
	Sender    string `gorm:"index:idx_sender;type:varchar(42);not null"`
	Timestamp int64  `gorm:"not null"`
	// Payload is the JSON of the whole event.
	Payload   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}
