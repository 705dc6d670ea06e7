package shared_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/hashcash/shared"
)

func TestDeriveThreshold(t *testing.T) {
	t.Parallel()

	one := big.NewInt(1)
	for d := uint(0); d <= shared.MaxDifficulty; d++ {
		threshold, err := shared.DeriveThreshold(d)
		require.NoError(t, err)
		require.Len(t, threshold[:], shared.SolutionSize)

		expected := new(big.Int).Lsh(one, shared.MaxDifficulty-d)
		expected.Sub(expected, one)
		require.Zero(t, expected.Cmp(threshold.Big()), "difficulty %d", d)
	}
}

func TestDeriveThresholdEdges(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	threshold, err := shared.DeriveThreshold(0)
	r.NoError(err)
	r.Equal(bytes.Repeat([]byte{0xff}, 32), threshold[:])

	threshold, err = shared.DeriveThreshold(shared.MaxDifficulty)
	r.NoError(err)
	r.Equal(make([]byte, 32), threshold[:])

	threshold, err = shared.DeriveThreshold(8)
	r.NoError(err)
	r.Equal(byte(0x00), threshold[0])
	r.Equal(bytes.Repeat([]byte{0xff}, 31), threshold[1:])

	threshold, err = shared.DeriveThreshold(12)
	r.NoError(err)
	r.Equal([]byte{0x00, 0x0f, 0xff}, threshold[:3])

	_, err = shared.DeriveThreshold(shared.MaxDifficulty + 1)
	r.ErrorIs(err, shared.ErrInvalidDifficulty)
}

func TestThresholdCache(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	cache, err := shared.NewThresholdCache(4)
	r.NoError(err)

	for d := uint(0); d <= shared.MaxDifficulty; d += 16 {
		expected, err := shared.DeriveThreshold(d)
		r.NoError(err)
		// twice to go through both the miss and the hit path
		for i := 0; i < 2; i++ {
			threshold, err := cache.Get(d)
			r.NoError(err)
			r.Equal(expected, threshold)
		}
	}

	_, err = cache.Get(1000)
	r.ErrorIs(err, shared.ErrInvalidDifficulty)

}

func TestThresholdCacheDefaultSize(t *testing.T) {
	t.Parallel()
	for _, size := range []int{0, -1} {
		cache, err := shared.NewThresholdCache(size)
		require.NoError(t, err)
		threshold, err := cache.Get(8)
		require.NoError(t, err)
		expected, err := shared.DeriveThreshold(8)
		require.NoError(t, err)
		require.Equal(t, expected, threshold)
	}
}
