package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/dal/do"
	"github.com/joltify-finance/token-staking/errcode"
)

type PoolInfoDAO interface {
	// Get returns nil without an error when the pool was never saved.
	Get(ctx context.Context, tx *gorm.DB) (*do.PoolInfo, error)
	Save(ctx context.Context, tx *gorm.DB, info *do.PoolInfo) error
}

type PoolInfoDAOImpl struct{}

var poolInfoDAO PoolInfoDAO = &PoolInfoDAOImpl{}

func GetPoolInfoDAOImpl() PoolInfoDAO {
	return poolInfoDAO
}

func (p *PoolInfoDAOImpl) Get(ctx context.Context, tx *gorm.DB) (*do.PoolInfo, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	info := do.PoolInfo{}
	query := tx.Model(&do.PoolInfo{}).Where("id = ?", 1).Take(&info)
	if errors.Is(query.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if query.Error != nil {
		return nil, query.Error
	}
	return &info, nil
}

func (p *PoolInfoDAOImpl) Save(ctx context.Context, tx *gorm.DB, info *do.PoolInfo) error {
	if tx == nil {
		return errcode.ErrNilGormDB
	}

	if info == nil {
		return errors.New("fail to save pool info: nil pool info")
	}
	info.ID = 1
	return tx.Save(info).Error
}
