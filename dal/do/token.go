package do

import "time"

// TokenBalance is one holder of the token ledger kept in the database.
type TokenBalance struct {
	ID         uint64 `gorm:"primaryKey"`
	Address    string `gorm:"uniqueIndex:unique_idx_address;type:varchar(42);not null"`
	Balance    string `gorm:"type:varchar(80);not null;default:'0'"`
	IsContract bool   `gorm:"not null;default:false"`
	IsMinter   bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type TokenAllowance struct {
	ID        uint64 `gorm:"primaryKey"`
	Holder    string `gorm:"uniqueIndex:unique_idx_holder_spender;type:varchar(42);not null"`
	Spender   string `gorm:"uniqueIndex:unique_idx_holder_spender;type:varchar(42);not null"`
	Amount    string `gorm:"type:varchar(80);not null;default:'0'"`
	UpdatedAt time.Time
}

// TokenMeta is the singleton row of the token itself.
type TokenMeta struct {
	ID          uint64 `gorm:"primaryKey"`
	Token       string `gorm:"type:varchar(42);not null"`
	TotalSupply string `gorm:"type:varchar(80);not null;default:'0'"`
	UpdatedAt   time.Time
}
