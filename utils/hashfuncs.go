package utils

import (
	"crypto/sha256"

	"golang.org/x/crypto/sha3"
)

// HashB calculates sha256(b) and returns the resulting bytes.
func HashB(b []byte) []byte {
	hash := sha256.Sum256(b)
	return hash[:]
}

// Keccak256 calculates the legacy (pre-standard) Keccak-256 digest of the
// concatenated inputs, the hash used for Ethereum style signatures.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}
