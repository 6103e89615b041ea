package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/stakemgr"
	"github.com/joltify-finance/token-staking/utils"
)

// curveFile is a decay curve as written in the init params file.  Values are
// raw fixed-point integers, plain or in scientific notation.
type curveFile struct {
	Init         string `yaml:"init"`
	Min          string `yaml:"min"`
	DescPerMonth string `yaml:"desc_per_month"`
}

// initParamsFile is the layout of the --initparams YAML file.
type initParamsFile struct {
	Admin                  string        `yaml:"admin"`
	Token                  string        `yaml:"token"`
	ForcedWithdrawalFee    string        `yaml:"forced_withdrawal_fee"`
	WithdrawalLockDuration time.Duration `yaml:"withdrawal_lock_duration"`
	LPRewardAddress        string        `yaml:"lp_reward_address"`
	APR                    curveFile     `yaml:"apr"`
	TotalSupplyFactor      curveFile     `yaml:"total_supply_factor"`
	UpdateDelayTime        time.Duration `yaml:"update_delay_time"`
	SplitMode              string        `yaml:"split_mode"`
	UserShareRate          string        `yaml:"user_share_rate"`
}

func parseAmountField(name, s string) (sdkmath.Int, error) {
	if s == "" {
		return sdkmath.Int{}, fmt.Errorf("%s: missing", name)
	}
	v, err := utils.ParseRaw(s)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%s: %v", name, err)
	}
	return v, nil
}

func (c curveFile) curve(name string) (emission.Curve, error) {
	initVal, err := parseAmountField(name+".init", c.Init)
	if err != nil {
		return emission.Curve{}, err
	}
	minVal, err := parseAmountField(name+".min", c.Min)
	if err != nil {
		return emission.Curve{}, err
	}
	desc := sdkmath.ZeroInt()
	if c.DescPerMonth != "" {
		desc, err = parseAmountField(name+".desc_per_month", c.DescPerMonth)
		if err != nil {
			return emission.Curve{}, err
		}
	}
	return emission.NewCurve(initVal, minVal, desc), nil
}

func seconds(name string, d time.Duration) (int64, error) {
	if d < 0 || d%time.Second != 0 {
		return 0, fmt.Errorf("%s: %v is not a whole number of seconds", name, d)
	}
	return int64(d / time.Second), nil
}

// loadInitParams reads the pool initialization parameters at path and
// validates them against the pool address.  It returns the admin which
// initializes the pool along with the parameters.  defaultMode is used when
// the file does not name a split mode.
func loadInitParams(path string, pool common.Address, defaultMode emission.SplitMode) (common.Address, *stakemgr.InitParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return common.Address{}, nil, err
	}

	var f initParamsFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return common.Address{}, nil, fmt.Errorf("%s: %v", path, err)
	}

	admin, err := utils.ParseAddress(f.Admin)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("admin: %v", err)
	}
	p := &stakemgr.InitParams{SplitMode: defaultMode}
	if p.Token, err = utils.ParseAddress(f.Token); err != nil {
		return common.Address{}, nil, fmt.Errorf("token: %v", err)
	}
	if p.LPRewardAddress, err = utils.ParseAddress(f.LPRewardAddress); err != nil {
		return common.Address{}, nil, fmt.Errorf("lp_reward_address: %v", err)
	}
	if p.ForcedWithdrawalFee, err = parseAmountField("forced_withdrawal_fee", f.ForcedWithdrawalFee); err != nil {
		return common.Address{}, nil, err
	}
	if p.WithdrawalLockDuration, err = seconds("withdrawal_lock_duration", f.WithdrawalLockDuration); err != nil {
		return common.Address{}, nil, err
	}
	if p.UpdateDelayTime, err = seconds("update_delay_time", f.UpdateDelayTime); err != nil {
		return common.Address{}, nil, err
	}
	if p.APR, err = f.APR.curve("apr"); err != nil {
		return common.Address{}, nil, err
	}
	if p.TotalSupplyFactor, err = f.TotalSupplyFactor.curve("total_supply_factor"); err != nil {
		return common.Address{}, nil, err
	}
	if f.SplitMode != "" {
		if p.SplitMode, err = emission.ParseSplitMode(f.SplitMode); err != nil {
			return common.Address{}, nil, fmt.Errorf("split_mode: %v", err)
		}
	}
	if f.UserShareRate != "" {
		if p.UserShareRate, err = parseAmountField("user_share_rate", f.UserShareRate); err != nil {
			return common.Address{}, nil, err
		}
	}

	if err := p.Validate(pool); err != nil {
		return common.Address{}, nil, err
	}
	return admin, p, nil
}
