package dao

import (
	"context"

	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/dal/do"
	"github.com/joltify-finance/token-staking/errcode"
)

type RateHistoryInfoDAO interface {
	// ReplaceAll rewrites the whole history.  Pending entries may be dropped
	// by a later governance call, so the log is not append only on disk.
	ReplaceAll(ctx context.Context, tx *gorm.DB, infos []*do.RateHistoryInfo) error
	GetAll(ctx context.Context, tx *gorm.DB) ([]*do.RateHistoryInfo, error)
}

type RateHistoryInfoDAOImpl struct{}

var rateHistoryInfoDAO RateHistoryInfoDAO = &RateHistoryInfoDAOImpl{}

func GetRateHistoryInfoDAOImpl() RateHistoryInfoDAO {
	return rateHistoryInfoDAO
}

func (r *RateHistoryInfoDAOImpl) ReplaceAll(ctx context.Context, tx *gorm.DB, infos []*do.RateHistoryInfo) error {
	if tx == nil {
		return errcode.ErrNilGormDB
	}

	err := tx.Where("1 = 1").Delete(&do.RateHistoryInfo{}).Error
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return nil
	}
	return tx.Create(&infos).Error
}

func (r *RateHistoryInfoDAOImpl) GetAll(ctx context.Context, tx *gorm.DB) ([]*do.RateHistoryInfo, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	res := make([]*do.RateHistoryInfo, 0)
	query := tx.Model(&do.RateHistoryInfo{}).Order("timestamp").Find(&res)
	return res, query.Error
}
