package service

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/dal"
	"github.com/joltify-finance/token-staking/dal/dao"
	"github.com/joltify-finance/token-staking/dal/do"
	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/tokenledger"
)

// TokenLedgerService is a token ledger kept in the same database as the
// staking ledger.  Calls made with a context from dal.WithTx join that
// transaction.
type TokenLedgerService struct {
	db       *gorm.DB
	tokenDao dao.TokenDAO
}

func NewTokenLedgerService(db *gorm.DB) *TokenLedgerService {
	return &TokenLedgerService{db: db, tokenDao: dao.GetTokenDAOImpl()}
}

func (s *TokenLedgerService) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := dal.TxFromContext(ctx, s.db)
	if tx == nil {
		return errcode.ErrNilGormDB
	}
	return tx.Transaction(fn)
}

func (s *TokenLedgerService) balanceRow(ctx context.Context, tx *gorm.DB, addr common.Address) (*do.TokenBalance, sdkmath.Int, error) {
	row, err := s.tokenDao.GetBalance(ctx, tx, addr.Hex())
	if err != nil {
		return nil, sdkmath.Int{}, err
	}
	if row == nil {
		return &do.TokenBalance{Address: addr.Hex(), Balance: "0"}, sdkmath.ZeroInt(), nil
	}
	bal, err := model.ParseInt("token balance", row.Balance)
	return row, bal, err
}

func (s *TokenLedgerService) meta(ctx context.Context, tx *gorm.DB) (*do.TokenMeta, sdkmath.Int, error) {
	meta, err := s.tokenDao.GetMeta(ctx, tx)
	if err != nil {
		return nil, sdkmath.Int{}, err
	}
	if meta == nil {
		return &do.TokenMeta{TotalSupply: "0"}, sdkmath.ZeroInt(), nil
	}
	supply, err := model.ParseInt("total supply", meta.TotalSupply)
	return meta, supply, err
}

// Register records token as the deployed token contract.
func (s *TokenLedgerService) Register(ctx context.Context, token common.Address) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		meta, _, err := s.meta(ctx, tx)
		if err != nil {
			return err
		}
		meta.Token = token.Hex()
		if err := s.tokenDao.SaveMeta(ctx, tx, meta); err != nil {
			return err
		}
		row, _, err := s.balanceRow(ctx, tx, token)
		if err != nil {
			return err
		}
		row.IsContract = true
		return s.tokenDao.SaveBalance(ctx, tx, row)
	})
}

// GrantMinter allows addr to mint.
func (s *TokenLedgerService) GrantMinter(ctx context.Context, addr common.Address) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		row, _, err := s.balanceRow(ctx, tx, addr)
		if err != nil {
			return err
		}
		row.IsMinter = true
		return s.tokenDao.SaveBalance(ctx, tx, row)
	})
}

// Approve sets the allowance holder grants spender.
func (s *TokenLedgerService) Approve(ctx context.Context, holder, spender common.Address, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errorsmod.Wrapf(errcode.ErrInvalidAmount, "allowance %v", amount)
	}
	return s.run(ctx, func(tx *gorm.DB) error {
		return s.tokenDao.SaveAllowance(ctx, tx, &do.TokenAllowance{
			Holder:  holder.Hex(),
			Spender: spender.Hex(),
			Amount:  amount.String(),
		})
	})
}

func (s *TokenLedgerService) Allowance(ctx context.Context, holder, spender common.Address) (sdkmath.Int, error) {
	tx := dal.TxFromContext(ctx, s.db)
	if tx == nil {
		return sdkmath.Int{}, errcode.ErrNilGormDB
	}
	row, err := s.tokenDao.GetAllowance(ctx, tx, holder.Hex(), spender.Hex())
	if err != nil || row == nil {
		return sdkmath.ZeroInt(), err
	}
	return model.ParseInt("allowance", row.Amount)
}

func checkTokenAmount(amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errorsmod.Wrapf(errcode.ErrInvalidAmount, "token amount %v", amount)
	}
	return nil
}

func (s *TokenLedgerService) Mint(ctx context.Context, minter, to common.Address, amount sdkmath.Int) error {
	if err := checkTokenAmount(amount); err != nil {
		return err
	}
	return s.run(ctx, func(tx *gorm.DB) error {
		minterRow, _, err := s.balanceRow(ctx, tx, minter)
		if err != nil {
			return err
		}
		if !minterRow.IsMinter {
			return errorsmod.Wrapf(errcode.ErrNotMinter, "%v", minter.Hex())
		}
		if amount.IsZero() {
			return nil
		}

		meta, supply, err := s.meta(ctx, tx)
		if err != nil {
			return err
		}
		if supply, err = supply.SafeAdd(amount); err != nil {
			return errcode.Overflow(err, "token supply")
		}
		meta.TotalSupply = supply.String()
		if err := s.tokenDao.SaveMeta(ctx, tx, meta); err != nil {
			return err
		}
		return s.credit(ctx, tx, to, amount)
	})
}

func (s *TokenLedgerService) credit(ctx context.Context, tx *gorm.DB, to common.Address, amount sdkmath.Int) error {
	row, bal, err := s.balanceRow(ctx, tx, to)
	if err != nil {
		return err
	}
	if bal, err = bal.SafeAdd(amount); err != nil {
		return errcode.Overflow(err, "token balance")
	}
	row.Balance = bal.String()
	return s.tokenDao.SaveBalance(ctx, tx, row)
}

func (s *TokenLedgerService) move(ctx context.Context, tx *gorm.DB, from, to common.Address, amount sdkmath.Int) error {
	row, bal, err := s.balanceRow(ctx, tx, from)
	if err != nil {
		return err
	}
	if bal.LT(amount) {
		return errorsmod.Wrapf(errcode.ErrInsufficientBalance, "token balance of %v is %v, need %v",
			from.Hex(), bal, amount)
	}
	row.Balance = bal.Sub(amount).String()
	if err := s.tokenDao.SaveBalance(ctx, tx, row); err != nil {
		return err
	}
	return s.credit(ctx, tx, to, amount)
}

func (s *TokenLedgerService) Transfer(ctx context.Context, from, to common.Address, amount sdkmath.Int) error {
	if err := checkTokenAmount(amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	return s.run(ctx, func(tx *gorm.DB) error {
		return s.move(ctx, tx, from, to, amount)
	})
}

func (s *TokenLedgerService) TransferFrom(ctx context.Context, holder, spender common.Address, amount sdkmath.Int) error {
	if err := checkTokenAmount(amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	return s.run(ctx, func(tx *gorm.DB) error {
		row, err := s.tokenDao.GetAllowance(ctx, tx, holder.Hex(), spender.Hex())
		if err != nil {
			return err
		}
		allowed := sdkmath.ZeroInt()
		if row != nil {
			if allowed, err = model.ParseInt("allowance", row.Amount); err != nil {
				return err
			}
		}
		if allowed.LT(amount) {
			return errorsmod.Wrapf(errcode.ErrInsufficientAllowance, "allowance of %v for %v is %v, need %v",
				holder.Hex(), spender.Hex(), allowed, amount)
		}
		if err := s.move(ctx, tx, holder, spender, amount); err != nil {
			return err
		}
		return s.tokenDao.SaveAllowance(ctx, tx, &do.TokenAllowance{
			Holder:  holder.Hex(),
			Spender: spender.Hex(),
			Amount:  allowed.Sub(amount).String(),
		})
	})
}

func (s *TokenLedgerService) BalanceOf(ctx context.Context, addr common.Address) (sdkmath.Int, error) {
	tx := dal.TxFromContext(ctx, s.db)
	if tx == nil {
		return sdkmath.Int{}, errcode.ErrNilGormDB
	}
	_, bal, err := s.balanceRow(ctx, tx, addr)
	return bal, err
}

func (s *TokenLedgerService) TotalSupply(ctx context.Context) (sdkmath.Int, error) {
	tx := dal.TxFromContext(ctx, s.db)
	if tx == nil {
		return sdkmath.Int{}, errcode.ErrNilGormDB
	}
	_, supply, err := s.meta(ctx, tx)
	return supply, err
}

func (s *TokenLedgerService) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	tx := dal.TxFromContext(ctx, s.db)
	if tx == nil {
		return false, errcode.ErrNilGormDB
	}
	row, err := s.tokenDao.GetBalance(ctx, tx, addr.Hex())
	if err != nil || row == nil {
		return false, err
	}
	return row.IsContract, nil
}

var _ tokenledger.Ledger = (*TokenLedgerService)(nil)
