package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
)

func IsBlank(str string) bool {
	if str == "" {
		return true
	}

	for _, c := range str {
		if !unicode.IsSpace(c) {
			return false
		}
	}
	return true
}

// RandHexString returns n random hex characters.
func RandHexString(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)[:n]
}

// GetNodeDesc describes the running binary, e.g. "Staking-v0.3.0/linux-amd64/go1.21".
func GetNodeDesc(version string) string {
	return "Staking-v" + version + "/" + runtime.GOOS + "-" + runtime.GOARCH + "/" + runtime.Version()
}

// ParseAddress parses a 0x prefixed hex address.  Mixed case input must carry
// a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	addr := common.HexToAddress(s)
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if addr.Hex()[2:] != body {
			return common.Address{}, fmt.Errorf("bad checksum on address %q", s)
		}
	}
	return addr, nil
}
