package stakingserver

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/joltify-finance/token-staking/stakingjson"
	"github.com/joltify-finance/token-staking/utils"
)

// verifySignedCmd checks that a mutating command was signed by its claimed
// sender within the signature window and was not seen before.
func (s *StakingServer) verifySignedCmd(method string, cmd stakingjson.SignedCmd) error {
	senderStr, timestamp, sigHex := cmd.Signer()
	sender, err := utils.ParseAddress(senderStr)
	if err != nil {
		return stakingjson.ErrAddressInvalid
	}

	now := s.cfg.Ledger.Now()
	if timestamp < now-s.cfg.SignatureWindow || timestamp > now+s.cfg.SignatureWindow {
		return stakingjson.ErrTimestampExpired
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil || len(sig) != crypto.SignatureLength {
		return stakingjson.ErrInvalidSignature
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	digest := stakingjson.SigningDigest(method, cmd.SigningParams(), timestamp)
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return stakingjson.ErrInvalidSignature
	}
	if crypto.PubkeyToAddress(*pub) != sender {
		log.Debugf("Signature of %s recovers to %s, not %s", method,
			crypto.PubkeyToAddress(*pub).Hex(), sender.Hex())
		return stakingjson.ErrSenderMismatch
	}

	key := sender.Hex() + ":" + hex.EncodeToString(digest)
	if seen, _ := s.seenDigests.ContainsOrAdd(key, struct{}{}); seen {
		return stakingjson.ErrReplayedRequest
	}
	return nil
}

// signedSender returns the sender of a command that already passed
// verifySignedCmd.
func signedSender(cmd stakingjson.SignedCmd) common.Address {
	sender, _, _ := cmd.Signer()
	return common.HexToAddress(sender)
}
