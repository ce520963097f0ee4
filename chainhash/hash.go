// Package chainhash defines the 32-byte double-SHA256 hash type used
// throughout the transaction engine for transaction and block identifiers.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Size is the number of bytes in a Hash256.
const Size = 32

// Hash is a 32-byte double-SHA256 digest, stored internally in the same
// byte order it was computed in (internal order). Display and wire framing
// that require the reversed, human-facing order call Reversed/String
// explicitly -- the type itself does not silently flip bytes.
type Hash [Size]byte

// Sum256d computes SHA-256(SHA-256(data)).
func Sum256d(data []byte) Hash {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return Hash(second)
}

// Sum256 computes a single SHA-256 pass.
func Sum256(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// NewFromBytes builds a Hash from a 32-byte slice, copying it.
func NewFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, fmt.Errorf("chainhash: want %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Reversed returns a copy of the hash with its bytes reversed. Bitcoin
// displays TXIDs and block hashes in this reversed order; the wire
// formats in this module carry the internal order.
func (h Hash) Reversed() Hash {
	var out Hash
	for i := 0; i < Size; i++ {
		out[i] = h[Size-1-i]
	}
	return out
}

// String renders the hash in the conventional reversed-hex display order.
func (h Hash) String() string {
	rev := h.Reversed()
	return hex.EncodeToString(rev[:])
}

// IsZero reports whether every byte of the hash is zero.
func (h Hash) IsZero() bool {
	for _, b := range h {
		if b != 0 {
			return false
		}
	}
	return true
}

// NewFromReversedHex parses a hex string in the conventional display order
// (reversed internal bytes) into a Hash.
func NewFromReversedHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("chainhash: invalid hex: %w", err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("chainhash: want %d bytes, got %d", Size, len(b))
	}
	for i := 0; i < Size; i++ {
		h[i] = b[Size-1-i]
	}
	return h, nil
}
