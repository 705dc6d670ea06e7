package shared

import (
	"hash"

	"github.com/minio/sha256-simd" // simd optimized sha256 computation
)

// CalcSolution computes SHA-256(nonce || hash).
func CalcSolution(nonce Nonce, h Hash) Solution {
	var input [NonceSize + HashSize]byte
	copy(input[:NonceSize], nonce[:])
	copy(input[NonceSize:], h[:])
	return sha256.Sum256(input[:])
}

// BelowThreshold compares solution against threshold byte by byte, most
// significant first. It reports true at the first byte where the threshold is
// larger and false at the first byte where it is smaller.
// A solution equal to the threshold does not pass.
func BelowThreshold(solution Solution, threshold Threshold) bool {
	for i := 0; i < SolutionSize; i++ {
		if threshold[i] > solution[i] {
			return true
		} else if threshold[i] < solution[i] {
			return false
		}
	}
	return false
}

// PowHasher computes solutions for a fixed hash while reusing its buffers.
// It is not safe for concurrent use.
type PowHasher struct {
	h     hash.Hash
	input [NonceSize + HashSize]byte
	sum   []byte
}

func NewPowHasher(h Hash) *PowHasher {
	p := &PowHasher{h: sha256.New(), sum: make([]byte, 0, SolutionSize)}
	copy(p.input[NonceSize:], h[:])
	return p
}

// Solution returns SHA-256(nonce || hash) for the hasher's hash.
func (p *PowHasher) Solution(nonce Nonce) Solution {
	copy(p.input[:NonceSize], nonce[:])

	p.h.Reset()
	p.h.Write(p.input[:])
	p.sum = p.h.Sum(p.sum[:0])

	var s Solution
	copy(s[:], p.sum)
	return s
}
