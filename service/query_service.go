package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/dal/dao"
	"github.com/joltify-finance/token-staking/model"
)

// QueryService serves the read side of the persisted ledger: event log,
// accounts and pool snapshots.
type QueryService interface {
	GetEvents(ctx context.Context, tx *gorm.DB, sender *common.Address, page int, num int, positiveOrder bool) ([]*model.Event, int64, error)
	GetAccounts(ctx context.Context, tx *gorm.DB, page int, num int, openOnly bool, positiveOrder bool) ([]*model.Account, int64, error)
	GetSnapshots(ctx context.Context, tx *gorm.DB, page int, num int, positiveOrder bool) ([]*model.PoolStats, int64, error)
	SaveSnapshot(ctx context.Context, tx *gorm.DB, stats *model.PoolStats) error
	PruneSnapshots(ctx context.Context, tx *gorm.DB, before int64) (int64, error)
}

type QueryServiceImpl struct {
	accountInfoDao      dao.AccountInfoDAO
	eventInfoDao        dao.EventInfoDAO
	poolSnapshotInfoDao dao.PoolSnapshotInfoDAO
}

var queryService QueryService = &QueryServiceImpl{
	accountInfoDao:      dao.GetAccountInfoDAOImpl(),
	eventInfoDao:        dao.GetEventInfoDAOImpl(),
	poolSnapshotInfoDao: dao.GetPoolSnapshotInfoDAOImpl(),
}

func GetQueryService() QueryService {
	return queryService
}

// NormalizePage clamps a page request to the allowed range.
func NormalizePage(page, num int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if num <= 0 {
		num = constdef.DefaultPageSize
	}
	if num > constdef.MaxPageSize {
		num = constdef.MaxPageSize
	}
	return page, num
}

func (q *QueryServiceImpl) GetEvents(ctx context.Context, tx *gorm.DB, sender *common.Address, page int, num int, positiveOrder bool) ([]*model.Event, int64, error) {
	filter := ""
	if sender != nil {
		filter = sender.Hex()
	}
	page, num = NormalizePage(page, num)

	total, err := q.eventInfoDao.GetEventNum(ctx, tx, filter)
	if err != nil {
		log.Errorf("Unable to count events: %v", err)
		return nil, 0, err
	}
	infos, err := q.eventInfoDao.GetEvents(ctx, tx, filter, page, num, positiveOrder)
	if err != nil {
		log.Errorf("Unable to get events: %v", err)
		return nil, 0, err
	}
	res := make([]*model.Event, 0, len(infos))
	for _, info := range infos {
		ev, err := model.ConvertEventFromDO(info)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, ev)
	}
	return res, total, nil
}

func (q *QueryServiceImpl) GetAccounts(ctx context.Context, tx *gorm.DB, page int, num int, openOnly bool, positiveOrder bool) ([]*model.Account, int64, error) {
	page, num = NormalizePage(page, num)

	total, err := q.accountInfoDao.GetAccountNum(ctx, tx, openOnly)
	if err != nil {
		log.Errorf("Unable to count accounts: %v", err)
		return nil, 0, err
	}
	infos, err := q.accountInfoDao.GetAccounts(ctx, tx, page, num, openOnly, positiveOrder)
	if err != nil {
		log.Errorf("Unable to get accounts: %v", err)
		return nil, 0, err
	}
	res := make([]*model.Account, 0, len(infos))
	for _, info := range infos {
		acct, err := model.ConvertAccountFromDO(info)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, acct)
	}
	return res, total, nil
}

func (q *QueryServiceImpl) GetSnapshots(ctx context.Context, tx *gorm.DB, page int, num int, positiveOrder bool) ([]*model.PoolStats, int64, error) {
	page, num = NormalizePage(page, num)

	total, err := q.poolSnapshotInfoDao.GetSnapshotNum(ctx, tx)
	if err != nil {
		log.Errorf("Unable to count snapshots: %v", err)
		return nil, 0, err
	}
	infos, err := q.poolSnapshotInfoDao.GetSnapshots(ctx, tx, page, num, positiveOrder)
	if err != nil {
		log.Errorf("Unable to get snapshots: %v", err)
		return nil, 0, err
	}
	res := make([]*model.PoolStats, 0, len(infos))
	for _, info := range infos {
		s, err := model.ConvertStatsFromDO(info)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, s)
	}
	return res, total, nil
}

func (q *QueryServiceImpl) SaveSnapshot(ctx context.Context, tx *gorm.DB, stats *model.PoolStats) error {
	_, err := q.poolSnapshotInfoDao.Create(ctx, tx, model.ConvertStatsToDO(stats))
	if err != nil {
		log.Errorf("Unable to save pool snapshot: %v", err)
	}
	return err
}

func (q *QueryServiceImpl) PruneSnapshots(ctx context.Context, tx *gorm.DB, before int64) (int64, error) {
	return q.poolSnapshotInfoDao.DeleteBefore(ctx, tx, before)
}
