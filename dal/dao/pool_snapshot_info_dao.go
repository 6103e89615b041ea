package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/dal/do"
	"github.com/joltify-finance/token-staking/errcode"
)

type PoolSnapshotInfoDAO interface {
	Create(ctx context.Context, tx *gorm.DB, info *do.PoolSnapshotInfo) (int64, error)
	GetSnapshots(ctx context.Context, tx *gorm.DB, page int, num int, positiveOrder bool) ([]*do.PoolSnapshotInfo, error)
	GetSnapshotNum(ctx context.Context, tx *gorm.DB) (int64, error)
	DeleteBefore(ctx context.Context, tx *gorm.DB, timestamp int64) (int64, error)
}

type PoolSnapshotInfoDAOImpl struct{}

var poolSnapshotInfoDAO PoolSnapshotInfoDAO = &PoolSnapshotInfoDAOImpl{}

func GetPoolSnapshotInfoDAOImpl() PoolSnapshotInfoDAO {
	return poolSnapshotInfoDAO
}

func (p *PoolSnapshotInfoDAOImpl) Create(ctx context.Context, tx *gorm.DB, info *do.PoolSnapshotInfo) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	if info == nil {
		return 0, errors.New("nil pool snapshot when creating")
	}
	query := tx.Create(info)
	return query.RowsAffected, query.Error
}

func (p *PoolSnapshotInfoDAOImpl) GetSnapshots(ctx context.Context, tx *gorm.DB, page int, num int, positiveOrder bool) ([]*do.PoolSnapshotInfo, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	res := make([]*do.PoolSnapshotInfo, 0)
	if page <= 0 || num <= 0 {
		return res, nil
	}
	query := tx.Model(&do.PoolSnapshotInfo{}).Offset((page - 1) * num).Limit(num)
	if positiveOrder {
		query = query.Order("id")
	} else {
		query = query.Order("id desc")
	}
	query = query.Find(&res)
	return res, query.Error
}

func (p *PoolSnapshotInfoDAOImpl) GetSnapshotNum(ctx context.Context, tx *gorm.DB) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	var count int64
	query := tx.Model(&do.PoolSnapshotInfo{}).Count(&count)
	return count, query.Error
}

func (p *PoolSnapshotInfoDAOImpl) DeleteBefore(ctx context.Context, tx *gorm.DB, timestamp int64) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	query := tx.Where("timestamp < ?", timestamp).Delete(&do.PoolSnapshotInfo{})
	return query.RowsAffected, query.Error
}
