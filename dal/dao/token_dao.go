package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joltify-finance/token-staking/dal/do"
	"github.com/joltify-finance/token-staking/errcode"
)

type TokenDAO interface {
	GetBalance(ctx context.Context, tx *gorm.DB, address string) (*do.TokenBalance, error)
	SaveBalance(ctx context.Context, tx *gorm.DB, info *do.TokenBalance) error
	GetAllowance(ctx context.Context, tx *gorm.DB, holder string, spender string) (*do.TokenAllowance, error)
	SaveAllowance(ctx context.Context, tx *gorm.DB, info *do.TokenAllowance) error
	GetMeta(ctx context.Context, tx *gorm.DB) (*do.TokenMeta, error)
	SaveMeta(ctx context.Context, tx *gorm.DB, info *do.TokenMeta) error
}

type TokenDAOImpl struct{}

var tokenDAO TokenDAO = &TokenDAOImpl{}

func GetTokenDAOImpl() TokenDAO {
	return tokenDAO
}

// GetBalance returns nil without an error for an unknown address.
func (t *TokenDAOImpl) GetBalance(ctx context.Context, tx *gorm.DB, address string) (*do.TokenBalance, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	res := do.TokenBalance{}
	query := tx.Model(&do.TokenBalance{}).Where("address = ?", address).Take(&res)
	if errors.Is(query.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &res, query.Error
}

func (t *TokenDAOImpl) SaveBalance(ctx context.Context, tx *gorm.DB, info *do.TokenBalance) error {
	if tx == nil {
		return errcode.ErrNilGormDB
	}

	if info == nil {
		return errors.New("fail to save token balance: nil token balance")
	}
	// upsert on the address, never on the row id
	row := *info
	row.ID = 0
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "is_contract", "is_minter", "updated_at"}),
	}).Create(&row).Error
}

func (t *TokenDAOImpl) GetAllowance(ctx context.Context, tx *gorm.DB, holder string, spender string) (*do.TokenAllowance, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	res := do.TokenAllowance{}
	query := tx.Model(&do.TokenAllowance{}).Where("holder = ? AND spender = ?", holder, spender).Take(&res)
	if errors.Is(query.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &res, query.Error
}

func (t *TokenDAOImpl) SaveAllowance(ctx context.Context, tx *gorm.DB, info *do.TokenAllowance) error {
	if tx == nil {
		return errcode.ErrNilGormDB
	}

	if info == nil {
		return errors.New("fail to save token allowance: nil token allowance")
	}
	info.ID = 0
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "holder"}, {Name: "spender"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(info).Error
}

// GetMeta returns nil without an error before the token was registered.
func (t *TokenDAOImpl) GetMeta(ctx context.Context, tx *gorm.DB) (*do.TokenMeta, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	res := do.TokenMeta{}
	query := tx.Model(&do.TokenMeta{}).Where("id = ?", 1).Take(&res)
	if errors.Is(query.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &res, query.Error
}

func (t *TokenDAOImpl) SaveMeta(ctx context.Context, tx *gorm.DB, info *do.TokenMeta) error {
	if tx == nil {
		return errcode.ErrNilGormDB
	}

	if info == nil {
		return errors.New("fail to save token meta: nil token meta")
	}
	info.ID = 1
	return tx.Save(info).Error
}
