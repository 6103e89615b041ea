package utils

import (
	"encoding/hex"
	"math/big"
	"path/filepath"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestKeccak256(t *testing.T) {
	require.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(Keccak256()))
	require.Equal(t, Keccak256([]byte("ab")), Keccak256([]byte("a"), []byte("b")))
}

func maxUint256() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}

func TestParseAmounts(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) (sdkmath.Int, error)
		in      string
		want    string
		wantErr bool
	}{
		{"raw plain", ParseRaw, "1000", "1000", false},
		{"raw scientific", ParseRaw, "15e16", "150000000000000000", false},
		{"raw fraction", ParseRaw, "1.5", "", true},
		{"raw negative", ParseRaw, "-1", "", true},
		{"raw garbage", ParseRaw, "abc", "", true},
		{"raw blank", ParseRaw, "  ", "", true},
		{"raw zero exponent", ParseRaw, "0e2000000000", "0", false},
		{"raw max", ParseRaw, maxUint256().String(), maxUint256().String(), false},
		{"raw above 256 bits", ParseRaw, "1e100", "", true},
		{"raw huge exponent", ParseRaw, "1e2000000000", "", true},
		{"raw tiny exponent", ParseRaw, "1e-2000000000", "", true},
		{"units whole", ParseUnits, "10", "10000000000000000000", false},
		{"units fraction", ParseUnits, "1.5", "1500000000000000000", false},
		{"units too precise", ParseUnits, "0.0000000000000000001", "", true},
		{"units above 256 bits", ParseUnits, "1e60", "", true},
		{"units huge exponent", ParseUnits, "1e2000000000", "", true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v, err := test.parse(test.in)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, v.String())
		})
	}
}

func TestFormat(t *testing.T) {
	require.Equal(t, "1.5", FormatUnits(sdkmath.NewInt(1_500_000_000_000_000_000)))
	require.Equal(t, "0", FormatUnits(sdkmath.Int{}))
	require.Equal(t, "15", FormatPercent(sdkmath.NewInt(150_000_000_000_000_000)))
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr.Hex())

	_, err = ParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)

	_, err = ParseAddress("0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.Error(t, err)

	_, err = ParseAddress("0x1234")
	require.Error(t, err)
}

func TestRandHexString(t *testing.T) {
	s := RandHexString(7)
	require.Len(t, s, 7)
	_, err := hex.DecodeString(s + "0")
	require.NoError(t, err)
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"localhost", "localhost:8766"},
		{"127.0.0.1:1234", "127.0.0.1:1234"},
		{"::1", "[::1]:8766"},
		{"[::1]:80", "[::1]:80"},
	}
	for _, test := range tests {
		got, err := NormalizeAddress(test.in, "8766")
		require.NoError(t, err)
		require.Equal(t, test.want, got)
	}
}

func TestExplicitString(t *testing.T) {
	s := NewExplicitString("default")
	require.False(t, s.ExplicitlySet())
	require.NoError(t, s.UnmarshalFlag("default"))
	require.True(t, s.ExplicitlySet())
	v, err := s.MarshalFlag()
	require.NoError(t, err)
	require.Equal(t, "default", v)
}

func TestFileExists(t *testing.T) {
	ok, err := FileExists(t.TempDir())
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = FileExists(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.False(t, ok)
}
