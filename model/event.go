package model

import (
	"encoding/json"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joltify-finance/token-staking/emission"
)

// Names of the governed parameters, also used to build <Param>Set event names.
const (
	ParamForcedWithdrawalFee    = "ForcedWithdrawalFee"
	ParamWithdrawalLockDuration = "WithdrawalLockDuration"
	ParamLPRewardAddress        = "LPRewardAddress"
	ParamAPR                    = "APR"
	ParamBasicAPR               = "BasicAPR"
	ParamMonthlyDescRate        = "MonthlyDescRate"
	ParamTotalSupplyFactor      = "TotalSupplyFactor"
	ParamUpdateDelayTime        = "UpdateDelayTime"
)

type EventType string

const (
	EventDeposited         EventType = "Deposited"
	EventWithdrawn         EventType = "Withdrawn"
	EventOwnershipTransfer EventType = "OwnershipTransferred"
	eventParamSetSuffix              = "Set"
)

// ParamSetEvent returns the event type emitted by the setter of param.
func ParamSetEvent(param string) EventType {
	return EventType(param + eventParamSetSuffix)
}

type Deposited struct {
	Sender              common.Address `json:"sender"`
	Amount              sdkmath.Int    `json:"amount"`
	Balance             sdkmath.Int    `json:"balance"`
	AccruedEmission     sdkmath.Int    `json:"accrued_emission"`
	PrevDepositDuration int64          `json:"prev_deposit_duration"`
}

type Withdrawn struct {
	Sender              common.Address `json:"sender"`
	Amount              sdkmath.Int    `json:"amount"`
	LastDepositDuration int64          `json:"last_deposit_duration"`
	Fee                 sdkmath.Int    `json:"fee"`
	Balance             sdkmath.Int    `json:"balance"`
	AccruedEmission     sdkmath.Int    `json:"accrued_emission"`
}

type ParamSet struct {
	Value       string         `json:"value"`
	Sender      common.Address `json:"sender"`
	EffectiveAt int64          `json:"effective_at"`
}

type OwnershipTransferred struct {
	PreviousOwner common.Address `json:"previous_owner"`
	NewOwner      common.Address `json:"new_owner"`
}

// Event is one ledger event.  Exactly one of the payload fields is set.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`

	Deposited            *Deposited            `json:"deposited,omitempty"`
	Withdrawn            *Withdrawn            `json:"withdrawn,omitempty"`
	ParamSet             *ParamSet             `json:"param_set,omitempty"`
	OwnershipTransferred *OwnershipTransferred `json:"ownership_transferred,omitempty"`
}

// Sender returns the address that caused the event.
func (e *Event) Sender() common.Address {
	switch {
	case e.Deposited != nil:
		return e.Deposited.Sender
	case e.Withdrawn != nil:
		return e.Withdrawn.Sender
	case e.ParamSet != nil:
		return e.ParamSet.Sender
	case e.OwnershipTransferred != nil:
		return e.OwnershipTransferred.PreviousOwner
	}
	return common.Address{}
}

func FormatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

// FormatCurve renders a curve as JSON.
func FormatCurve(c emission.Curve) string {
	b, err := json.Marshal(c)
	if err != nil {
		return c.String()
	}
	return string(b)
}
