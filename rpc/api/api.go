// Package api defines the messages and the gRPC service of hashcash.
// Messages are plain structs carried by a JSON codec.
package api

import (
	"encoding/hex"
	"fmt"

	"github.com/spacemeshos/hashcash/shared"
)

// Difficulties are signed on the wire, the From*Request helpers range check them.

type ThresholdRequest struct {
	Difficulty int64 `json:"difficulty"`
}

func (r *ThresholdRequest) String() string {
	return fmt.Sprintf("difficulty: %d", r.Difficulty)
}

type ThresholdResponse struct {
	Threshold []byte `json:"threshold"`
}

type SolveRequest struct {
	Hash       []byte `json:"hash"`
	Difficulty int64  `json:"difficulty"`
}

func (r *SolveRequest) String() string {
	return fmt.Sprintf("hash: %s, difficulty: %d", hex.EncodeToString(r.Hash), r.Difficulty)
}

type SolveResponse struct {
	Nonce []byte `json:"nonce"`
}

type VerifyRequest struct {
	Hash       []byte `json:"hash"`
	Difficulty int64  `json:"difficulty"`
	Nonce      []byte `json:"nonce"`
}

func (r *VerifyRequest) String() string {
	return fmt.Sprintf(
		"hash: %s, difficulty: %d, nonce: %s",
		hex.EncodeToString(r.Hash),
		r.Difficulty,
		hex.EncodeToString(r.Nonce),
	)
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

func toDifficulty(d int64) (uint, error) {
	if d < 0 {
		return 0, fmt.Errorf("%w: %d is negative", shared.ErrInvalidDifficulty, d)
	}
	if err := shared.CheckDifficulty(uint(d)); err != nil {
		return 0, err
	}
	return uint(d), nil
}

// FromThresholdRequest validates the requested difficulty.
func FromThresholdRequest(r *ThresholdRequest) (uint, error) {
	return toDifficulty(r.Difficulty)
}

// FromSolveRequest validates the request and converts it to domain types.
func FromSolveRequest(r *SolveRequest) (hash shared.Hash, difficulty uint, err error) {
	hash, err = shared.HashFromBytes(r.Hash)
	if err != nil {
		return hash, 0, err
	}
	difficulty, err = toDifficulty(r.Difficulty)
	if err != nil {
		return hash, 0, err
	}
	return hash, difficulty, nil
}

// FromVerifyRequest validates the request and converts it to a proof.
func FromVerifyRequest(r *VerifyRequest) (*shared.Proof, error) {
	hash, err := shared.HashFromBytes(r.Hash)
	if err != nil {
		return nil, err
	}
	nonce, err := shared.NonceFromBytes(r.Nonce)
	if err != nil {
		return nil, err
	}
	difficulty, err := toDifficulty(r.Difficulty)
	if err != nil {
		return nil, err
	}
	return &shared.Proof{Hash: hash, Difficulty: difficulty, Nonce: nonce}, nil
}
