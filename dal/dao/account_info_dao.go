package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joltify-finance/token-staking/dal/do"
	"github.com/joltify-finance/token-staking/errcode"
)

type AccountInfoDAO interface {
	Upsert(ctx context.Context, tx *gorm.DB, infos []*do.AccountInfo) (int64, error)
	GetByAddress(ctx context.Context, tx *gorm.DB, address string) (*do.AccountInfo, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*do.AccountInfo, error)
	GetAccounts(ctx context.Context, tx *gorm.DB, page int, num int, openOnly bool, positiveOrder bool) ([]*do.AccountInfo, error)
	GetAccountNum(ctx context.Context, tx *gorm.DB, openOnly bool) (int64, error)
}

type AccountInfoDAOImpl struct{}

var accountInfoDAO AccountInfoDAO = &AccountInfoDAOImpl{}

func GetAccountInfoDAOImpl() AccountInfoDAO {
	return accountInfoDAO
}

func (a *AccountInfoDAOImpl) Upsert(ctx context.Context, tx *gorm.DB, infos []*do.AccountInfo) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}
	if len(infos) == 0 {
		return 0, nil
	}

	query := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "deposit_date", "updated_at"}),
	}).Create(&infos)
	return query.RowsAffected, query.Error
}

func (a *AccountInfoDAOImpl) GetByAddress(ctx context.Context, tx *gorm.DB, address string) (*do.AccountInfo, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	res := do.AccountInfo{}
	query := tx.Model(&do.AccountInfo{}).Where("address = ?", address).Take(&res)
	if errors.Is(query.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &res, query.Error
}

func (a *AccountInfoDAOImpl) GetAll(ctx context.Context, tx *gorm.DB) ([]*do.AccountInfo, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	res := make([]*do.AccountInfo, 0)
	query := tx.Model(&do.AccountInfo{}).Order("id").Find(&res)
	return res, query.Error
}

func (a *AccountInfoDAOImpl) GetAccounts(ctx context.Context, tx *gorm.DB, page int, num int, openOnly bool, positiveOrder bool) ([]*do.AccountInfo, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	res := make([]*do.AccountInfo, 0)
	if page <= 0 || num <= 0 {
		return res, nil
	}
	query := tx.Model(&do.AccountInfo{})
	if openOnly {
		query = query.Where("deposit_date > 0")
	}
	if positiveOrder {
		query = query.Order("id")
	} else {
		query = query.Order("id desc")
	}
	query = query.Offset((page - 1) * num).Limit(num).Find(&res)
	return res, query.Error
}

func (a *AccountInfoDAOImpl) GetAccountNum(ctx context.Context, tx *gorm.DB, openOnly bool) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	var count int64
	query := tx.Model(&do.AccountInfo{})
	if openOnly {
		query = query.Where("deposit_date > 0")
	}
	query = query.Count(&count)
	return count, query.Error
}
