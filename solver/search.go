package solver

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spacemeshos/hashcash/shared"
)

const (
	// cancelCheckInterval is the number of attempts between checks for cancellation.
	cancelCheckInterval = 1 << 10

	// bufferedNonces is how many nonces a random source reads ahead.
	bufferedNonces = 128
)

// newRandSource returns a private buffered stream over src.
// src must be safe for concurrent use when shared by several sources.
func newRandSource(src io.Reader) io.Reader {
	return bufio.NewReaderSize(src, bufferedNonces*shared.NonceSize)
}

// search samples random nonces until one produces a solution below threshold.
// It runs until it succeeds, ctx is done or rng fails.
func search(ctx context.Context, rng io.Reader, hash shared.Hash, threshold shared.Threshold) (shared.Nonce, error) {
	p := shared.NewPowHasher(hash)
	var (
		nonce    shared.Nonce
		attempts uint64
	)
	defer func() {
		attemptsMetric.Add(float64(attempts))
	}()

	for {
		if attempts%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return shared.Nonce{}, ctx.Err()
			default:
			}
		}

		if _, err := io.ReadFull(rng, nonce[:]); err != nil {
			return shared.Nonce{}, fmt.Errorf("sampling nonce: %w", err)
		}
		attempts++

		if shared.BelowThreshold(p.Solution(nonce), threshold) {
			return nonce, nil
		}
	}
}
