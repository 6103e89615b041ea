package dao

import (
	"context"

	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/dal/do"
	"github.com/joltify-finance/token-staking/errcode"
)

type EventInfoDAO interface {
	MCreate(ctx context.Context, tx *gorm.DB, infos []*do.EventInfo) (int64, error)
	GetEvents(ctx context.Context, tx *gorm.DB, sender string, page int, num int, positiveOrder bool) ([]*do.EventInfo, error)
	GetEventNum(ctx context.Context, tx *gorm.DB, sender string) (int64, error)
}

type EventInfoDAOImpl struct{}

var eventInfoDAO EventInfoDAO = &EventInfoDAOImpl{}

func GetEventInfoDAOImpl() EventInfoDAO {
	return eventInfoDAO
}

func (e *EventInfoDAOImpl) MCreate(ctx context.Context, tx *gorm.DB, infos []*do.EventInfo) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}
	if len(infos) == 0 {
		return 0, nil
	}

	query := tx.Create(&infos)
	return query.RowsAffected, query.Error
}

// GetEvents pages through the events, only those of sender when it is set.
func (e *EventInfoDAOImpl) GetEvents(ctx context.Context, tx *gorm.DB, sender string, page int, num int, positiveOrder bool) ([]*do.EventInfo, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	res := make([]*do.EventInfo, 0)
	if page <= 0 || num <= 0 {
		return res, nil
	}
	query := tx.Model(&do.EventInfo{})
	if sender != "" {
		query = query.Where("sender = ?", sender)
	}
	if positiveOrder {
		query = query.Order("id")
	} else {
		query = query.Order("id desc")
	}
	query = query.Offset((page - 1) * num).Limit(num).Find(&res)
	return res, query.Error
}

func (e *EventInfoDAOImpl) GetEventNum(ctx context.Context, tx *gorm.DB, sender string) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	var count int64
	query := tx.Model(&do.EventInfo{})
	if sender != "" {
		query = query.Where("sender = ?", sender)
	}
	query = query.Count(&count)
	return count, query.Error
}
