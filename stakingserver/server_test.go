package stakingserver

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/joltify-finance/token-staking/constdef"
	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/stakemgr"
	"github.com/joltify-finance/token-staking/stakingjson"
	"github.com/joltify-finance/token-staking/tokenledger"
)

const (
	start = int64(1_700_000_000)

	adminUser = "admin"
	adminPass = "adminpass"
	limitUser = "limit"
	limitPass = "limitpass"
)

var (
	tokenAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	poolAddr  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	lpAddr    = common.HexToAddress("0x4000000000000000000000000000000000000004")
	faucet    = common.HexToAddress("0xf000000000000000000000000000000000000000")
)

func tokens(n int64) sdkmath.Int {
	return sdkmath.NewIntWithDecimal(n, constdef.ScaleExp)
}

type testServer struct {
	server *StakingServer
	clock  *stakemgr.ManualClock
	ledger *stakemgr.Ledger
	addr   string

	admin *ecdsa.PrivateKey
	alice *ecdsa.PrivateKey
	bob   *ecdsa.PrivateKey
}

func newTestServer(t *testing.T) *testServer {
	ctx := context.Background()
	ts := &testServer{clock: stakemgr.NewManualClock(start)}
	var err error
	for _, k := range []**ecdsa.PrivateKey{&ts.admin, &ts.alice, &ts.bob} {
		*k, err = crypto.GenerateKey()
		require.NoError(t, err)
	}

	token := tokenledger.NewMemLedger(tokenAddr)
	token.GrantMinter(poolAddr)
	token.GrantMinter(faucet)
	for _, k := range []*ecdsa.PrivateKey{ts.alice, ts.bob} {
		holder := crypto.PubkeyToAddress(k.PublicKey)
		require.NoError(t, token.Mint(ctx, faucet, holder, tokens(10)))
		require.NoError(t, token.Approve(holder, poolAddr, tokens(10)))
	}

	ts.ledger, err = stakemgr.New(&stakemgr.Config{
		PoolAddress: poolAddr,
		Token:       token,
		Clock:       ts.clock,
	})
	require.NoError(t, err)
	err = ts.ledger.Initialize(ctx, crypto.PubkeyToAddress(ts.admin.PublicKey), &stakemgr.InitParams{
		Token:                  tokenAddr,
		ForcedWithdrawalFee:    sdkmath.NewIntWithDecimal(30, constdef.ScaleExp-3),
		WithdrawalLockDuration: 2 * constdef.SecondsPerDay,
		LPRewardAddress:        lpAddr,
		APR: emission.NewCurve(sdkmath.NewIntWithDecimal(75, constdef.ScaleExp-3),
			sdkmath.NewIntWithDecimal(5, constdef.ScaleExp-3),
			sdkmath.NewIntWithDecimal(5, constdef.ScaleExp-3)),
		TotalSupplyFactor: emission.ZeroCurve(),
	})
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ts.addr = listener.Addr().String()

	ts.server, err = NewStakingServer(&Config{
		DisableTLS:           true,
		Listeners:            []net.Listener{listener},
		RPCUser:              adminUser,
		RPCPass:              adminPass,
		RPCLimitUser:         limitUser,
		RPCLimitPass:         limitPass,
		RPCMaxClients:        10,
		RPCMaxWebsockets:     10,
		RPCMaxConcurrentReqs: 4,
		SignatureWindow:      60,
		Ledger:               ts.ledger,
	})
	require.NoError(t, err)
	ts.server.Start()
	t.Cleanup(func() { _ = ts.server.Stop() })
	return ts
}

func (ts *testServer) post(t *testing.T, user, pass string, body []byte) (int, *stakingjson.Response) {
	req, err := http.NewRequest(http.MethodPost, "http://"+ts.addr+"/", bytes.NewReader(body))
	require.NoError(t, err)
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	var reply stakingjson.Response
	require.NoError(t, json.Unmarshal(raw, &reply), string(raw))
	return resp.StatusCode, &reply
}

func (ts *testServer) call(t *testing.T, user, pass string, cmd interface{}) *stakingjson.Response {
	body, err := stakingjson.MarshalCmd(1, cmd)
	require.NoError(t, err)
	code, reply := ts.post(t, user, pass, body)
	require.Equal(t, http.StatusOK, code)
	return reply
}

func (ts *testServer) adminCall(t *testing.T, cmd interface{}) *stakingjson.Response {
	return ts.call(t, adminUser, adminPass, cmd)
}

// sign fills the signature of cmd with the one of key over method.
func sign(t *testing.T, key *ecdsa.PrivateKey, method string, cmd stakingjson.SignedCmd) {
	_, timestamp, _ := cmd.Signer()
	digest := stakingjson.SigningDigest(method, cmd.SigningParams(), timestamp)
	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)
	cmd.SetSignature(hex.EncodeToString(sig))
}

func (ts *testServer) depositCmd(key *ecdsa.PrivateKey, amount sdkmath.Int) *stakingjson.DepositCmd {
	return &stakingjson.DepositCmd{
		Amount:    amount.String(),
		Sender:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Timestamp: ts.clock.Now(),
	}
}

func requireRPCError(t *testing.T, reply *stakingjson.Response, code stakingjson.RPCErrorCode) {
	t.Helper()
	require.NotNil(t, reply.Error, "expected error %d, got result %s", code, string(reply.Result))
	require.Equal(t, code, reply.Error.Code, reply.Error.Message)
}

func TestVersion(t *testing.T) {
	ts := newTestServer(t)

	reply := ts.call(t, limitUser, limitPass, &stakingjson.VersionCmd{})
	require.Nil(t, reply.Error)
	var result map[string]stakingjson.VersionResult
	require.NoError(t, json.Unmarshal(reply.Result, &result))
	require.Contains(t, result, "stakingd")
}

func TestHTTPAuth(t *testing.T) {
	ts := newTestServer(t)
	body, err := stakingjson.MarshalCmd(1, &stakingjson.VersionCmd{})
	require.NoError(t, err)

	code, _ := ts.post(t, "", "", body)
	require.Equal(t, http.StatusUnauthorized, code)
	code, _ = ts.post(t, adminUser, "wrong", body)
	require.Equal(t, http.StatusUnauthorized, code)

	// Limited users only reach the read methods and the staking ones.
	cmd := &stakingjson.SetBasicAPRCmd{
		Value:     "1",
		Sender:    crypto.PubkeyToAddress(ts.admin.PublicKey).Hex(),
		Timestamp: ts.clock.Now(),
	}
	sign(t, ts.admin, "setbasicapr", cmd)
	reply := ts.call(t, limitUser, limitPass, cmd)
	requireRPCError(t, reply, stakingjson.ErrRPCInvalidParams.Code)
}

func TestMethodNotFound(t *testing.T) {
	ts := newTestServer(t)

	code, reply := ts.post(t, adminUser, adminPass,
		[]byte(`{"jsonrpc":"1.0","method":"nosuchmethod","params":[],"id":1}`))
	require.Equal(t, http.StatusOK, code)
	requireRPCError(t, reply, stakingjson.ErrRPCMethodNotFound.Code)

	code, reply = ts.post(t, adminUser, adminPass, []byte(`{not json`))
	require.Equal(t, http.StatusOK, code)
	requireRPCError(t, reply, stakingjson.ErrRPCParse.Code)
}

func TestSignedDeposit(t *testing.T) {
	ts := newTestServer(t)
	alice := crypto.PubkeyToAddress(ts.alice.PublicKey)

	cmd := ts.depositCmd(ts.alice, tokens(2))
	sign(t, ts.alice, "deposit", cmd)
	reply := ts.call(t, limitUser, limitPass, cmd)
	require.Nil(t, reply.Error)

	var deposited model.Deposited
	require.NoError(t, json.Unmarshal(reply.Result, &deposited))
	require.Equal(t, alice, deposited.Sender)
	require.Equal(t, tokens(2).String(), deposited.Amount.String())
	require.Equal(t, tokens(2).String(), deposited.Balance.String())

	reply = ts.call(t, limitUser, limitPass, &stakingjson.GetAccountCmd{Address: alice.Hex()})
	require.Nil(t, reply.Error)
	var acct stakingjson.AccountResult
	require.NoError(t, json.Unmarshal(reply.Result, &acct))
	require.Equal(t, tokens(2).String(), acct.Balance.String())
	require.Equal(t, start, acct.DepositDate)

	reply = ts.call(t, limitUser, limitPass, &stakingjson.GetPoolInfoCmd{})
	require.Nil(t, reply.Error)
	var info struct {
		Now         int64 `json:"now"`
		Initialized bool  `json:"initialized"`
	}
	require.NoError(t, json.Unmarshal(reply.Result, &info))
	require.True(t, info.Initialized)
	require.Equal(t, start, info.Now)
}

func TestSignatureChecks(t *testing.T) {
	ts := newTestServer(t)
	bob := crypto.PubkeyToAddress(ts.bob.PublicKey)

	t.Run("malformed", func(t *testing.T) {
		cmd := ts.depositCmd(ts.alice, tokens(1))
		cmd.Signature = "zz"
		requireRPCError(t, ts.adminCall(t, cmd), stakingjson.ErrInvalidSignature.Code)
	})

	t.Run("wrong_sender", func(t *testing.T) {
		cmd := ts.depositCmd(ts.alice, tokens(1))
		cmd.Sender = bob.Hex()
		sign(t, ts.alice, "deposit", cmd)
		requireRPCError(t, ts.adminCall(t, cmd), stakingjson.ErrSenderMismatch.Code)
	})

	t.Run("signed_for_other_method", func(t *testing.T) {
		cmd := ts.depositCmd(ts.alice, tokens(1))
		sign(t, ts.alice, "withdraw", cmd)
		requireRPCError(t, ts.adminCall(t, cmd), stakingjson.ErrSenderMismatch.Code)
	})

	t.Run("expired", func(t *testing.T) {
		cmd := ts.depositCmd(ts.alice, tokens(1))
		cmd.Timestamp = start - 61
		sign(t, ts.alice, "deposit", cmd)
		requireRPCError(t, ts.adminCall(t, cmd), stakingjson.ErrTimestampExpired.Code)

		cmd.Timestamp = start + 61
		sign(t, ts.alice, "deposit", cmd)
		requireRPCError(t, ts.adminCall(t, cmd), stakingjson.ErrTimestampExpired.Code)
	})

	t.Run("replay", func(t *testing.T) {
		cmd := ts.depositCmd(ts.alice, tokens(1))
		sign(t, ts.alice, "deposit", cmd)
		require.Nil(t, ts.adminCall(t, cmd).Error)
		requireRPCError(t, ts.adminCall(t, cmd), stakingjson.ErrReplayedRequest.Code)

		// A new timestamp makes it a different request.
		ts.clock.Advance(1)
		cmd = ts.depositCmd(ts.alice, tokens(1))
		sign(t, ts.alice, "deposit", cmd)
		require.Nil(t, ts.adminCall(t, cmd).Error)
	})
}

func TestLedgerErrorCodes(t *testing.T) {
	ts := newTestServer(t)
	bob := crypto.PubkeyToAddress(ts.bob.PublicKey)

	setter := &stakingjson.SetBasicAPRCmd{
		Value:     sdkmath.NewIntWithDecimal(1, constdef.ScaleExp-2).String(),
		Sender:    bob.Hex(),
		Timestamp: ts.clock.Now(),
	}
	sign(t, ts.bob, "setbasicapr", setter)
	requireRPCError(t, ts.adminCall(t, setter), stakingjson.ErrRPCUnauthorized)

	setter.Sender = crypto.PubkeyToAddress(ts.admin.PublicKey).Hex()
	sign(t, ts.admin, "setbasicapr", setter)
	reply := ts.adminCall(t, setter)
	require.Nil(t, reply.Error)

	zero := ts.depositCmd(ts.bob, sdkmath.ZeroInt())
	sign(t, ts.bob, "deposit", zero)
	requireRPCError(t, ts.adminCall(t, zero), stakingjson.ErrRPCInvalidAmount)

	tooMuch := ts.depositCmd(ts.bob, tokens(11))
	sign(t, ts.bob, "deposit", tooMuch)
	reply = ts.adminCall(t, tooMuch)
	require.NotNil(t, reply.Error)

	for _, amount := range []string{"1.5", "1e100", "1e2000000000"} {
		bad := ts.depositCmd(ts.bob, tokens(1))
		bad.Amount = amount
		sign(t, ts.bob, "deposit", bad)
		requireRPCError(t, ts.adminCall(t, bad), stakingjson.ErrInvalidRequestParams.Code)
	}
}

func TestHistoryNeedsDatabase(t *testing.T) {
	ts := newTestServer(t)

	cmd, err := stakingjson.NewCmd("getevents")
	require.NoError(t, err)
	requireRPCError(t, ts.adminCall(t, cmd), stakingjson.ErrNotAvailable.Code)

	cmd, err = stakingjson.NewCmd("faucet", "0x"+hex.EncodeToString(faucet.Bytes()), "1")
	require.NoError(t, err)
	requireRPCError(t, ts.adminCall(t, cmd), stakingjson.ErrNotAvailable.Code)
}

func readWS(t *testing.T, conn *websocket.Conn) []byte {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return msg
}

func TestWebsocketNotifications(t *testing.T) {
	ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ts.addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	auth, err := stakingjson.MarshalCmd(1, stakingjson.NewAuthenticateCmd(limitUser, limitPass))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, auth))
	var reply stakingjson.Response
	require.NoError(t, json.Unmarshal(readWS(t, conn), &reply))
	require.Nil(t, reply.Error)

	// A round trip guarantees the client is registered for notifications.
	version, err := stakingjson.MarshalCmd(2, &stakingjson.VersionCmd{})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, version))
	reply = stakingjson.Response{}
	require.NoError(t, json.Unmarshal(readWS(t, conn), &reply))
	require.Nil(t, reply.Error)

	cmd := ts.depositCmd(ts.alice, tokens(1))
	sign(t, ts.alice, "deposit", cmd)
	require.Nil(t, ts.adminCall(t, cmd).Error)

	var ntfn stakingjson.Request
	require.NoError(t, json.Unmarshal(readWS(t, conn), &ntfn))
	require.Equal(t, stakingjson.EventNtfnMethod, ntfn.Method)
	require.Len(t, ntfn.Params, 1)

	var ev model.Event
	require.NoError(t, json.Unmarshal(ntfn.Params[0], &ev))
	require.Equal(t, model.EventDeposited, ev.Type)
	require.NotNil(t, ev.Deposited)
	require.Equal(t, crypto.PubkeyToAddress(ts.alice.PublicKey), ev.Deposited.Sender)
}

func TestWebsocketRejectsUnauthenticated(t *testing.T) {
	ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ts.addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	version, err := stakingjson.MarshalCmd(1, &stakingjson.VersionCmd{})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, version))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
}
