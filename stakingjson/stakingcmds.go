package stakingjson

import (
	"strconv"
	"strings"

	"github.com/joltify-finance/token-staking/utils"
)

// SignedCmd is implemented by every command that changes ledger state.  The
// signature covers the method, the business parameters and the timestamp.
type SignedCmd interface {
	// SigningParams returns the business parameters in positional order.
	SigningParams() []string

	// Signer returns the claimed sender, the timestamp and the hex encoded
	// 65 byte [R || S || V] signature.
	Signer() (sender string, timestamp int64, signature string)

	SetSignature(signature string)
}

// SigningDigest returns keccak256(method|params|timestamp), the digest the
// sender of a SignedCmd signs.
func SigningDigest(method string, params []string, timestamp int64) []byte {
	msg := method + "|" + strings.Join(params, ",") + "|" + strconv.FormatInt(timestamp, 10)
	return utils.Keccak256([]byte(msg))
}

// VersionCmd defines the version JSON-RPC command.
type VersionCmd struct{}

// NewVersionCmd returns a new instance which can be used to issue a JSON-RPC
// version command.
func NewVersionCmd() *VersionCmd { return new(VersionCmd) }

// AuthenticateCmd defines the authenticate JSON-RPC command used by websocket
// clients that did not send HTTP Basic credentials with the upgrade request.
type AuthenticateCmd struct {
	Username   string
	Passphrase string
}

// NewAuthenticateCmd returns a new instance which can be used to issue an
// authenticate JSON-RPC command.
func NewAuthenticateCmd(username, passphrase string) *AuthenticateCmd {
	return &AuthenticateCmd{
		Username:   username,
		Passphrase: passphrase,
	}
}

// GetPoolInfoCmd defines the getpoolinfo JSON-RPC command.
type GetPoolInfoCmd struct{}

func NewGetPoolInfoCmd() *GetPoolInfoCmd { return new(GetPoolInfoCmd) }

// GetAccountCmd defines the getaccount JSON-RPC command.
type GetAccountCmd struct {
	Address string `json:"address"`
}

func NewGetAccountCmd(address string) *GetAccountCmd {
	return &GetAccountCmd{Address: address}
}

type GetAccountsCmd struct {
	Page          *int  `json:"page" jsonrpcdefault:"1"`
	Num           *int  `json:"num" jsonrpcdefault:"20"`
	OpenOnly      *bool `json:"open_only" jsonrpcdefault:"false"`
	PositiveOrder *bool `json:"positive_order" jsonrpcdefault:"false"`
}

// GetAccruedEmissionCmd defines the getaccruedemission JSON-RPC command.
type GetAccruedEmissionCmd struct {
	Address string `json:"address"`
}

func NewGetAccruedEmissionCmd(address string) *GetAccruedEmissionCmd {
	return &GetAccruedEmissionCmd{Address: address}
}

type GetRateHistoryCmd struct{}

type GetPendingChangesCmd struct{}

// GetEventsCmd defines the getevents JSON-RPC command.  An empty Sender
// returns the events of every sender.
type GetEventsCmd struct {
	Sender        *string `json:"sender" jsonrpcdefault:"\"\""`
	Page          *int    `json:"page" jsonrpcdefault:"1"`
	Num           *int    `json:"num" jsonrpcdefault:"20"`
	PositiveOrder *bool   `json:"positive_order" jsonrpcdefault:"false"`
}

type GetSnapshotsCmd struct {
	Page          *int  `json:"page" jsonrpcdefault:"1"`
	Num           *int  `json:"num" jsonrpcdefault:"20"`
	PositiveOrder *bool `json:"positive_order" jsonrpcdefault:"false"`
}

// FaucetCmd mints test tokens to an address and approves the pool to pull
// them.  Only available on simnet.
type FaucetCmd struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// DepositCmd defines the deposit JSON-RPC command.  Amount is a raw
// fixed-point integer.
type DepositCmd struct {
	Amount    string `json:"amount"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *DepositCmd) SigningParams() []string { return []string{c.Amount} }
func (c *DepositCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *DepositCmd) SetSignature(sig string) { c.Signature = sig }

// WithdrawCmd defines the withdraw JSON-RPC command.
type WithdrawCmd struct {
	Amount    string `json:"amount"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *WithdrawCmd) SigningParams() []string { return []string{c.Amount} }
func (c *WithdrawCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *WithdrawCmd) SetSignature(sig string) { c.Signature = sig }

// WithdrawAllCmd defines the withdrawall JSON-RPC command.
type WithdrawAllCmd struct {
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *WithdrawAllCmd) SigningParams() []string { return nil }
func (c *WithdrawAllCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *WithdrawAllCmd) SetSignature(sig string) { c.Signature = sig }

type SetForcedWithdrawalFeeCmd struct {
	Fee       string `json:"fee"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *SetForcedWithdrawalFeeCmd) SigningParams() []string { return []string{c.Fee} }
func (c *SetForcedWithdrawalFeeCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *SetForcedWithdrawalFeeCmd) SetSignature(sig string) { c.Signature = sig }

type SetWithdrawalLockDurationCmd struct {
	Duration  int64  `json:"duration"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *SetWithdrawalLockDurationCmd) SigningParams() []string {
	return []string{strconv.FormatInt(c.Duration, 10)}
}
func (c *SetWithdrawalLockDurationCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *SetWithdrawalLockDurationCmd) SetSignature(sig string) { c.Signature = sig }

type SetLPRewardAddressCmd struct {
	Address   string `json:"address"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *SetLPRewardAddressCmd) SigningParams() []string { return []string{c.Address} }
func (c *SetLPRewardAddressCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *SetLPRewardAddressCmd) SetSignature(sig string) { c.Signature = sig }

// SetAPRCmd replaces the whole APR curve.
type SetAPRCmd struct {
	InitVal      string `json:"init_val"`
	MinVal       string `json:"min_val"`
	DescPerMonth string `json:"desc_per_month"`
	Sender       string `json:"sender"`
	Timestamp    int64  `json:"timestamp"`
	Signature    string `json:"signature"`
}

func (c *SetAPRCmd) SigningParams() []string {
	return []string{c.InitVal, c.MinVal, c.DescPerMonth}
}
func (c *SetAPRCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *SetAPRCmd) SetSignature(sig string) { c.Signature = sig }

// SetBasicAPRCmd sets a flat APR curve.
type SetBasicAPRCmd struct {
	Value     string `json:"value"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *SetBasicAPRCmd) SigningParams() []string { return []string{c.Value} }
func (c *SetBasicAPRCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *SetBasicAPRCmd) SetSignature(sig string) { c.Signature = sig }

type SetMonthlyDescRateCmd struct {
	Rate      string `json:"rate"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *SetMonthlyDescRateCmd) SigningParams() []string { return []string{c.Rate} }
func (c *SetMonthlyDescRateCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *SetMonthlyDescRateCmd) SetSignature(sig string) { c.Signature = sig }

type SetTotalSupplyFactorCmd struct {
	InitVal      string `json:"init_val"`
	MinVal       string `json:"min_val"`
	DescPerMonth string `json:"desc_per_month"`
	Sender       string `json:"sender"`
	Timestamp    int64  `json:"timestamp"`
	Signature    string `json:"signature"`
}

func (c *SetTotalSupplyFactorCmd) SigningParams() []string {
	return []string{c.InitVal, c.MinVal, c.DescPerMonth}
}
func (c *SetTotalSupplyFactorCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *SetTotalSupplyFactorCmd) SetSignature(sig string) { c.Signature = sig }

type SetUpdateDelayTimeCmd struct {
	Delay     int64  `json:"delay"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *SetUpdateDelayTimeCmd) SigningParams() []string {
	return []string{strconv.FormatInt(c.Delay, 10)}
}
func (c *SetUpdateDelayTimeCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *SetUpdateDelayTimeCmd) SetSignature(sig string) { c.Signature = sig }

// TransferAdminCmd hands the admin role to NewAdmin immediately.
type TransferAdminCmd struct {
	NewAdmin  string `json:"new_admin"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

func (c *TransferAdminCmd) SigningParams() []string { return []string{c.NewAdmin} }
func (c *TransferAdminCmd) Signer() (string, int64, string) {
	return c.Sender, c.Timestamp, c.Signature
}
func (c *TransferAdminCmd) SetSignature(sig string) { c.Signature = sig }

func init() {
	// No special flags for commands in this file.
	flags := UsageFlag(0)

	MustRegisterCmd("version", (*VersionCmd)(nil), flags)
	MustRegisterCmd("authenticate", (*AuthenticateCmd)(nil), UFWebsocketOnly)

	MustRegisterCmd("getpoolinfo", (*GetPoolInfoCmd)(nil), flags)
	MustRegisterCmd("getaccount", (*GetAccountCmd)(nil), flags)
	MustRegisterCmd("getaccounts", (*GetAccountsCmd)(nil), flags)
	MustRegisterCmd("getaccruedemission", (*GetAccruedEmissionCmd)(nil), flags)
	MustRegisterCmd("getratehistory", (*GetRateHistoryCmd)(nil), flags)
	MustRegisterCmd("getpendingchanges", (*GetPendingChangesCmd)(nil), flags)
	MustRegisterCmd("getevents", (*GetEventsCmd)(nil), flags)
	MustRegisterCmd("getsnapshots", (*GetSnapshotsCmd)(nil), flags)

	MustRegisterCmd("faucet", (*FaucetCmd)(nil), flags)

	signed := flags | UFSigned
	MustRegisterCmd("deposit", (*DepositCmd)(nil), signed)
	MustRegisterCmd("withdraw", (*WithdrawCmd)(nil), signed)
	MustRegisterCmd("withdrawall", (*WithdrawAllCmd)(nil), signed)

	MustRegisterCmd("setforcedwithdrawalfee", (*SetForcedWithdrawalFeeCmd)(nil), signed)
	MustRegisterCmd("setwithdrawallockduration", (*SetWithdrawalLockDurationCmd)(nil), signed)
	MustRegisterCmd("setlprewardaddress", (*SetLPRewardAddressCmd)(nil), signed)
	MustRegisterCmd("setapr", (*SetAPRCmd)(nil), signed)
	MustRegisterCmd("setbasicapr", (*SetBasicAPRCmd)(nil), signed)
	MustRegisterCmd("setmonthlydescrate", (*SetMonthlyDescRateCmd)(nil), signed)
	MustRegisterCmd("settotalsupplyfactor", (*SetTotalSupplyFactorCmd)(nil), signed)
	MustRegisterCmd("setupdatedelaytime", (*SetUpdateDelayTimeCmd)(nil), signed)
	MustRegisterCmd("transferadmin", (*TransferAdminCmd)(nil), signed)
}
