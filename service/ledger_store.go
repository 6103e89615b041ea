package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/dal"
	"github.com/joltify-finance/token-staking/dal/dao"
	"github.com/joltify-finance/token-staking/dal/do"
	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/stakemgr"
)

// LedgerStore persists the staking ledger with gorm.
type LedgerStore struct {
	db                 *gorm.DB
	poolInfoDao        dao.PoolInfoDAO
	accountInfoDao     dao.AccountInfoDAO
	rateHistoryInfoDao dao.RateHistoryInfoDAO
	eventInfoDao       dao.EventInfoDAO
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{
		db:                 db,
		poolInfoDao:        dao.GetPoolInfoDAOImpl(),
		accountInfoDao:     dao.GetAccountInfoDAOImpl(),
		rateHistoryInfoDao: dao.GetRateHistoryInfoDAOImpl(),
		eventInfoDao:       dao.GetEventInfoDAOImpl(),
	}
}

func (s *LedgerStore) Load(ctx context.Context) (*model.LedgerState, error) {
	if s.db == nil {
		return nil, errcode.ErrNilGormDB
	}
	tx := s.db.WithContext(ctx)
	st := model.NewLedgerState()

	poolInfo, err := s.poolInfoDao.Get(ctx, tx)
	if err != nil {
		log.Errorf("Unable to load pool info: %v", err)
		return nil, err
	}
	if poolInfo == nil {
		return st, nil
	}
	history, err := s.rateHistoryInfoDao.GetAll(ctx, tx)
	if err != nil {
		log.Errorf("Unable to load rate history: %v", err)
		return nil, err
	}
	st.Pool, err = model.ConvertPoolFromDO(poolInfo, history)
	if err != nil {
		log.Errorf("Corrupted pool info: %v", err)
		return nil, err
	}

	accounts, err := s.accountInfoDao.GetAll(ctx, tx)
	if err != nil {
		log.Errorf("Unable to load accounts: %v", err)
		return nil, err
	}
	for _, info := range accounts {
		acct, err := model.ConvertAccountFromDO(info)
		if err != nil {
			log.Errorf("Corrupted account %v: %v", info.Address, err)
			return nil, err
		}
		st.Accounts[acct.Address] = acct
	}
	return st, nil
}

// Commit writes cs and runs effects in one database transaction.  effects
// receives a context carrying the transaction.
func (s *LedgerStore) Commit(ctx context.Context, cs *stakemgr.Changeset, effects func(ctx context.Context) error) error {
	if s.db == nil {
		return errcode.ErrNilGormDB
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cs.Pool != nil {
			info, err := model.ConvertPoolToDO(cs.Pool)
			if err != nil {
				return err
			}
			if err := s.poolInfoDao.Save(ctx, tx, info); err != nil {
				log.Errorf("Unable to save pool info: %v", err)
				return err
			}
			if cs.HistoryChanged {
				err := s.rateHistoryInfoDao.ReplaceAll(ctx, tx, model.ConvertRateHistoryToDO(cs.Pool.APRHistory))
				if err != nil {
					log.Errorf("Unable to save rate history: %v", err)
					return err
				}
			}
		}

		if len(cs.Accounts) > 0 {
			infos := make([]*do.AccountInfo, 0, len(cs.Accounts))
			for _, acct := range cs.Accounts {
				infos = append(infos, model.ConvertAccountToDO(acct))
			}
			if _, err := s.accountInfoDao.Upsert(ctx, tx, infos); err != nil {
				log.Errorf("Unable to save accounts: %v", err)
				return err
			}
		}

		if len(cs.Events) > 0 {
			infos := make([]*do.EventInfo, 0, len(cs.Events))
			for _, ev := range cs.Events {
				info, err := model.ConvertEventToDO(ev)
				if err != nil {
					return err
				}
				infos = append(infos, info)
			}
			if _, err := s.eventInfoDao.MCreate(ctx, tx, infos); err != nil {
				log.Errorf("Unable to save events: %v", err)
				return err
			}
		}

		if effects != nil {
			return effects(dal.WithTx(ctx, tx))
		}
		return nil
	})
}

// Account reads one account straight from the database.
func (s *LedgerStore) Account(ctx context.Context, addr common.Address) (*model.Account, error) {
	if s.db == nil {
		return nil, errcode.ErrNilGormDB
	}
	info, err := s.accountInfoDao.GetByAddress(ctx, s.db.WithContext(ctx), addr.Hex())
	if err != nil || info == nil {
		return nil, err
	}
	return model.ConvertAccountFromDO(info)
}

var _ stakemgr.Store = (*LedgerStore)(nil)
