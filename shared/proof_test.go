package shared_test

import (
	"testing"

	"github.com/spacemeshos/go-scale/tester"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/hashcash/shared"
)

func TestProofEncoding(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	proof := &shared.Proof{
		Hash:       testHash(t),
		Difficulty: 6,
		Nonce:      sequentialNonce(),
	}
	data, err := shared.EncodeProof(proof)
	r.NoError(err)
	r.Len(data, 32+1+32)
	r.Equal(proof.Hash[:], data[:32])
	r.Equal(byte(6<<2), data[32])
	r.Equal(proof.Nonce[:], data[33:])

	decoded, err := shared.DecodeProof(data)
	r.NoError(err)
	r.Equal(proof, decoded)

	proof.Difficulty = shared.MaxDifficulty
	data, err = shared.EncodeProof(proof)
	r.NoError(err)
	r.Len(data, 32+2+32)
	decoded, err = shared.DecodeProof(data)
	r.NoError(err)
	r.Equal(proof, decoded)
}

func TestProofEncodingRejectsInvalidDifficulty(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	_, err := shared.EncodeProof(&shared.Proof{Difficulty: shared.MaxDifficulty + 1})
	r.ErrorIs(err, shared.ErrInvalidDifficulty)

	// compact encoding of 257 in the two-byte mode
	data := make([]byte, 0, 66)
	data = append(data, make([]byte, 32)...)
	data = append(data, 0x05, 0x04)
	data = append(data, make([]byte, 32)...)
	_, err = shared.DecodeProof(data)
	r.ErrorIs(err, shared.ErrInvalidDifficulty)
}

func TestProofDecodingTruncated(t *testing.T) {
	t.Parallel()

	data, err := shared.EncodeProof(&shared.Proof{Difficulty: 8})
	require.NoError(t, err)
	_, err = shared.DecodeProof(data[:len(data)-1])
	require.Error(t, err)
}

func FuzzProofSafety(f *testing.F) {
	f.Add([]byte("018912380012"))
	tester.FuzzSafety[shared.Proof](f)
}
