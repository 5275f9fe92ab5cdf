// Package signature provides helper functions for handling the blockchain
// hashing needs.
package signature

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros. It is the previous hash of
// every genesis block.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// LeadingZeroBits returns the number of leading zero bits in the hex encoded
// hash. A hash that can't be decoded reports zero bits.
func LeadingZeroBits(hash string) uint {
	data, err := hexutil.Decode(hash)
	if err != nil {
		return 0
	}

	var bits uint
	for _, b := range data {
		if b == 0 {
			bits += 8
			continue
		}

		for i := 7; i >= 0; i-- {
			if (b >> uint(i)) != 0 {
				return bits
			}
			bits++
		}
	}

	return bits
}
