package shared

import (
	"encoding/hex"
	"math/big"

	lru "github.com/hashicorp/golang-lru"
)

// Threshold is the largest value (big-endian, exclusive) a solution may take
// for a proof to be valid.
type Threshold [SolutionSize]byte

func (t Threshold) String() string {
	return hex.EncodeToString(t[:])
}

// Big returns the threshold as an unsigned integer.
func (t Threshold) Big() *big.Int {
	return new(big.Int).SetBytes(t[:])
}

// DeriveThreshold computes 2^(256-difficulty) - 1 serialized as 32 big-endian bytes.
func DeriveThreshold(difficulty uint) (Threshold, error) {
	var t Threshold
	if err := CheckDifficulty(difficulty); err != nil {
		return t, err
	}
	v := new(big.Int).Lsh(big.NewInt(1), MaxDifficulty-difficulty)
	v.Sub(v, big.NewInt(1))
	v.FillBytes(t[:])
	return t, nil
}

// ThresholdCache memoizes DeriveThreshold.
type ThresholdCache struct {
	cache *lru.Cache
}

// DefaultThresholdCacheSize is used for cache sizes below 1.
const DefaultThresholdCacheSize = 64

func NewThresholdCache(size int) (*ThresholdCache, error) {
	if size < 1 {
		size = DefaultThresholdCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ThresholdCache{cache: cache}, nil
}

// Get returns the threshold for difficulty, deriving it on a cache miss.
// Invalid difficulties are never cached.
func (c *ThresholdCache) Get(difficulty uint) (Threshold, error) {
	if t, ok := c.cache.Get(difficulty); ok {
		// SAFETY: only Threshold values are inserted.
		return t.(Threshold), nil
	}
	t, err := DeriveThreshold(difficulty)
	if err != nil {
		return t, err
	}
	c.cache.Add(difficulty, t)
	return t, nil
}
