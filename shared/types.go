package shared

import (
	"encoding/hex"
	"fmt"
)

const (
	HashSize     = 32
	NonceSize    = 32
	SolutionSize = 32

	// MaxDifficulty yields the all-zero threshold which no solution satisfies.
	MaxDifficulty = 256
)

// Hash is the caller supplied content hash a proof is bound to.
// Its internal structure is never interpreted.
type Hash [HashSize]byte

// Nonce is the value searched over to produce a qualifying solution.
type Nonce [NonceSize]byte

// Solution is SHA-256(nonce || hash).
type Solution [SolutionSize]byte

func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrInvalidArgument, HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func NonceFromBytes(b []byte) (Nonce, error) {
	var n Nonce
	if len(b) != NonceSize {
		return n, fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrInvalidArgument, NonceSize, len(b))
	}
	copy(n[:], b)
	return n, nil
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (n Nonce) String() string {
	return hex.EncodeToString(n[:])
}

func (s Solution) String() string {
	return hex.EncodeToString(s[:])
}

// CheckDifficulty returns ErrInvalidDifficulty if d is above MaxDifficulty.
func CheckDifficulty(d uint) error {
	if d > MaxDifficulty {
		return fmt.Errorf("%w: %d is above %d", ErrInvalidDifficulty, d, MaxDifficulty)
	}
	return nil
}
