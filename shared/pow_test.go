package shared_test

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/hashcash/shared"
)

func mustDecodeHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func testHash(t testing.TB) shared.Hash {
	// SHA-256("test")
	h, err := shared.HashFromBytes(mustDecodeHex(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"))
	require.NoError(t, err)
	return h
}

func sequentialNonce() shared.Nonce {
	var nonce shared.Nonce
	for i := range nonce {
		nonce[i] = byte(i)
	}
	return nonce
}

func TestCalcSolutionConcatenationOrder(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	hash := testHash(t)
	nonce := sequentialNonce()

	solution := shared.CalcSolution(nonce, hash)
	r.Equal("0304102fe161e29f178a96481ce3b39c2c69aa84bd6d674c4d8555ff596ae286", solution.String())

	// hash || nonce must not be what we compute
	r.NotEqual("4da6a7aad87711279c6ba236b4674e5c63dbb4bede486a282c43891f4a1c8db6", solution.String())
}

func TestPowHasherMatchesCalcSolution(t *testing.T) {
	t.Parallel()

	hash := testHash(t)
	p := shared.NewPowHasher(hash)
	for i := 0; i < 100; i++ {
		var nonce shared.Nonce
		_, err := rand.Read(nonce[:])
		require.NoError(t, err)
		require.Equal(t, shared.CalcSolution(nonce, hash), p.Solution(nonce))
	}
}

func TestBelowThreshold(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	var threshold shared.Threshold
	threshold[0] = 0x10
	threshold[31] = 0x01

	var solution shared.Solution
	solution[0] = 0x0f
	solution[1] = 0xff
	r.True(shared.BelowThreshold(solution, threshold))

	solution = shared.Solution{}
	solution[0] = 0x11
	r.False(shared.BelowThreshold(solution, threshold))

	// decided on the last byte
	solution = shared.Solution{}
	solution[0] = 0x10
	r.True(shared.BelowThreshold(solution, threshold))
	solution[31] = 0x02
	r.False(shared.BelowThreshold(solution, threshold))
}

func TestBelowThresholdEqualityIsAMiss(t *testing.T) {
	t.Parallel()

	for _, d := range []uint{0, 1, 8, 100, 255, 256} {
		threshold, err := shared.DeriveThreshold(d)
		require.NoError(t, err)
		require.False(t, shared.BelowThreshold(shared.Solution(threshold), threshold), "difficulty %d", d)
	}
}

func TestFromBytes(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	_, err := shared.HashFromBytes(make([]byte, 31))
	r.ErrorIs(err, shared.ErrInvalidArgument)
	_, err = shared.HashFromBytes(make([]byte, 33))
	r.ErrorIs(err, shared.ErrInvalidArgument)
	_, err = shared.NonceFromBytes(nil)
	r.ErrorIs(err, shared.ErrInvalidArgument)

	nonce, err := shared.NonceFromBytes(mustDecodeHex(t, sequentialNonce().String()))
	r.NoError(err)
	r.Equal(sequentialNonce(), nonce)
}

func BenchmarkSolution(b *testing.B) {
	hash := testHash(b)
	nonce := sequentialNonce()
	b.Run("CalcSolution", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			shared.CalcSolution(nonce, hash)
		}
	})
	b.Run("PowHasher", func(b *testing.B) {
		p := shared.NewPowHasher(hash)
		for i := 0; i < b.N; i++ {
			p.Solution(nonce)
		}
	})
}
