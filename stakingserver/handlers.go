package stakingserver

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/chaincfg"
	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/service"
	"github.com/joltify-finance/token-staking/stakingjson"
	"github.com/joltify-finance/token-staking/utils"
)

// Faucet hands out test tokens on simnet.
type Faucet interface {
	Fund(ctx context.Context, to common.Address, amount sdkmath.Int) error
}

// Commands that are available to a limited user
var rpcLimited = map[string]struct{}{
	"version":            {},
	"authenticate":       {},
	"getpoolinfo":        {},
	"getaccount":         {},
	"getaccounts":        {},
	"getaccruedemission": {},
	"getratehistory":     {},
	"getpendingchanges":  {},
	"getevents":          {},
	"getsnapshots":       {},

	"deposit":     {},
	"withdraw":    {},
	"withdrawall": {},
}

type commandHandler func(*StakingServer, interface{}, <-chan struct{}) (interface{}, error)

// rpcHandlers maps RPC command strings to appropriate handler functions.
// This is set by init because help references rpcHandlers and thus causes
// a dependency loop.
var rpcHandlers map[string]commandHandler
var rpcHandlersBeforeInit = map[string]commandHandler{
	"version": handleVersion,

	"getpoolinfo":        handleGetPoolInfo,
	"getaccount":         handleGetAccount,
	"getaccounts":        handleGetAccounts,
	"getaccruedemission": handleGetAccruedEmission,
	"getratehistory":     handleGetRateHistory,
	"getpendingchanges":  handleGetPendingChanges,
	"getevents":          handleGetEvents,
	"getsnapshots":       handleGetSnapshots,

	"faucet": handleFaucet,

	"deposit":     handleDeposit,
	"withdraw":    handleWithdraw,
	"withdrawall": handleWithdrawAll,

	"setforcedwithdrawalfee":    handleSetForcedWithdrawalFee,
	"setwithdrawallockduration": handleSetWithdrawalLockDuration,
	"setlprewardaddress":        handleSetLPRewardAddress,
	"setapr":                    handleSetAPR,
	"setbasicapr":               handleSetBasicAPR,
	"setmonthlydescrate":        handleSetMonthlyDescRate,
	"settotalsupplyfactor":      handleSetTotalSupplyFactor,
	"setupdatedelaytime":        handleSetUpdateDelayTime,
	"transferadmin":             handleTransferAdmin,
}

// handleVersion implements the version command.
func handleVersion(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	result := map[string]stakingjson.VersionResult{
		"stakingd": {
			VersionString: chaincfg.StakingBackendVersion,
		},
	}
	return result, nil
}

// handleGetPoolInfo implements the getpoolinfo command.
func handleGetPoolInfo(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()

	ledger := s.cfg.Ledger
	result := &stakingjson.GetPoolInfoResult{
		Now:         ledger.Now(),
		Initialized: ledger.Initialized(),
	}
	if !result.Initialized {
		return result, nil
	}

	params, err := ledger.Params()
	if err != nil {
		return nil, err
	}
	stats, err := ledger.Stats(ctx)
	if err != nil {
		return nil, err
	}
	result.Params = params
	result.Stats = stats
	return result, nil
}

func parseAddressParam(s string) (common.Address, error) {
	addr, err := utils.ParseAddress(s)
	if err != nil {
		return common.Address{}, stakingjson.ErrAddressInvalid
	}
	return addr, nil
}

// handleGetAccount implements the getaccount command.
func handleGetAccount(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.GetAccountCmd)
	addr, err := parseAddressParam(c.Address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()

	acct := s.cfg.Ledger.Account(addr)
	accrual, err := s.cfg.Ledger.AccruedEmission(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &stakingjson.AccountResult{
		Address:          addr.Hex(),
		Balance:          acct.Balance,
		DepositDate:      acct.DepositDate,
		AccruedTotal:     accrual.Total,
		AccruedUserShare: accrual.UserShare,
	}, nil
}

// handleGetAccruedEmission implements the getaccruedemission command.
func handleGetAccruedEmission(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.GetAccruedEmissionCmd)
	addr, err := parseAddressParam(c.Address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	accrual, err := s.cfg.Ledger.AccruedEmission(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &accrual, nil
}

func handleGetRateHistory(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	entries, err := s.cfg.Ledger.RateHistory()
	if err != nil {
		return nil, err
	}
	return &stakingjson.GetRateHistoryResult{Entries: entries}, nil
}

func handleGetPendingChanges(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	pending, err := s.cfg.Ledger.PendingChanges()
	if err != nil {
		return nil, err
	}
	return &stakingjson.GetPendingChangesResult{Pending: pending}, nil
}

// handleGetAccounts implements the getaccounts command.
func handleGetAccounts(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	if s.cfg.DB == nil {
		return nil, stakingjson.ErrNotAvailable
	}
	c := cmd.(*stakingjson.GetAccountsCmd)

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	accounts, total, err := service.GetQueryService().GetAccounts(ctx, s.cfg.DB, *c.Page, *c.Num, *c.OpenOnly, *c.PositiveOrder)
	if err != nil {
		return nil, err
	}
	return &stakingjson.GetAccountsResult{Total: total, Accounts: accounts}, nil
}

// handleGetEvents implements the getevents command.
func handleGetEvents(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	if s.cfg.DB == nil {
		return nil, stakingjson.ErrNotAvailable
	}
	c := cmd.(*stakingjson.GetEventsCmd)

	var sender *common.Address
	if *c.Sender != "" {
		addr, err := parseAddressParam(*c.Sender)
		if err != nil {
			return nil, err
		}
		sender = &addr
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	events, total, err := service.GetQueryService().GetEvents(ctx, s.cfg.DB, sender, *c.Page, *c.Num, *c.PositiveOrder)
	if err != nil {
		return nil, err
	}
	return &stakingjson.GetEventsResult{Total: total, Events: events}, nil
}

// handleGetSnapshots implements the getsnapshots command.
func handleGetSnapshots(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	if s.cfg.DB == nil {
		return nil, stakingjson.ErrNotAvailable
	}
	c := cmd.(*stakingjson.GetSnapshotsCmd)

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	snapshots, total, err := service.GetQueryService().GetSnapshots(ctx, s.cfg.DB, *c.Page, *c.Num, *c.PositiveOrder)
	if err != nil {
		return nil, err
	}
	return &stakingjson.GetSnapshotsResult{Total: total, Snapshots: snapshots}, nil
}

// handleFaucet implements the faucet command.
func handleFaucet(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	if s.cfg.Faucet == nil {
		return nil, stakingjson.ErrNotAvailable
	}
	c := cmd.(*stakingjson.FaucetCmd)
	addr, err := parseAddressParam(c.Address)
	if err != nil {
		return nil, err
	}
	amount, err := utils.ParseRaw(c.Amount)
	if err != nil {
		return nil, invalidParams("amount", err)
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	if err := s.cfg.Faucet.Fund(ctx, addr, amount); err != nil {
		return nil, err
	}
	return &stakingjson.CommonResult{Success: true}, nil
}

// handleDeposit implements the deposit command.
func handleDeposit(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.DepositCmd)
	amount, err := utils.ParseRaw(c.Amount)
	if err != nil {
		return nil, invalidParams("amount", err)
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.Deposit(ctx, signedSender(c), amount)
}

// handleWithdraw implements the withdraw command.
func handleWithdraw(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.WithdrawCmd)
	amount, err := utils.ParseRaw(c.Amount)
	if err != nil {
		return nil, invalidParams("amount", err)
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.Withdraw(ctx, signedSender(c), amount)
}

func handleWithdrawAll(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.WithdrawAllCmd)

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.WithdrawAll(ctx, signedSender(c))
}

func handleSetForcedWithdrawalFee(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.SetForcedWithdrawalFeeCmd)
	fee, err := utils.ParseRaw(c.Fee)
	if err != nil {
		return nil, invalidParams("fee", err)
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.SetForcedWithdrawalFee(ctx, signedSender(c), fee)
}

func handleSetWithdrawalLockDuration(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.SetWithdrawalLockDurationCmd)

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.SetWithdrawalLockDuration(ctx, signedSender(c), c.Duration)
}

func handleSetLPRewardAddress(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.SetLPRewardAddressCmd)
	addr, err := parseAddressParam(c.Address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.SetLPRewardAddress(ctx, signedSender(c), addr)
}

// parseCurve parses the three raw fixed-point values of a curve.
func parseCurve(initVal, minVal, descPerMonth string) (emission.Curve, error) {
	var vals [3]sdkmath.Int
	for i, str := range []string{initVal, minVal, descPerMonth} {
		v, err := utils.ParseRaw(str)
		if err != nil {
			return emission.Curve{}, invalidParams("curve", err)
		}
		vals[i] = v
	}
	return emission.NewCurve(vals[0], vals[1], vals[2]), nil
}

func handleSetAPR(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.SetAPRCmd)
	curve, err := parseCurve(c.InitVal, c.MinVal, c.DescPerMonth)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.SetAPR(ctx, signedSender(c), curve)
}

func handleSetBasicAPR(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.SetBasicAPRCmd)
	v, err := utils.ParseRaw(c.Value)
	if err != nil {
		return nil, invalidParams("value", err)
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.SetBasicAPR(ctx, signedSender(c), v)
}

func handleSetMonthlyDescRate(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.SetMonthlyDescRateCmd)
	v, err := utils.ParseRaw(c.Rate)
	if err != nil {
		return nil, invalidParams("rate", err)
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.SetMonthlyDescRate(ctx, signedSender(c), v)
}

func handleSetTotalSupplyFactor(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.SetTotalSupplyFactorCmd)
	curve, err := parseCurve(c.InitVal, c.MinVal, c.DescPerMonth)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.SetTotalSupplyFactor(ctx, signedSender(c), curve)
}

func handleSetUpdateDelayTime(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.SetUpdateDelayTimeCmd)

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	return s.cfg.Ledger.SetUpdateDelayTime(ctx, signedSender(c), c.Delay)
}

// handleTransferAdmin implements the transferadmin command.
func handleTransferAdmin(s *StakingServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*stakingjson.TransferAdminCmd)
	newAdmin, err := parseAddressParam(c.NewAdmin)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.handlerContext(closeChan)
	defer cancel()
	if err := s.cfg.Ledger.TransferAdmin(ctx, signedSender(c), newAdmin); err != nil {
		return nil, err
	}
	return &stakingjson.CommonResult{Success: true}, nil
}

func init() {
	rpcHandlers = rpcHandlersBeforeInit
}
