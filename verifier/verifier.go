package verifier

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spacemeshos/hashcash/shared"
)

const DefaultThresholdCacheSize = shared.DefaultThresholdCacheSize

var (
	ErrInvalidProof = errors.New("invalid proof of work")

	verificationsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hashcash",
		Subsystem: "verifier",
		Name:      "verifications_total",
		Help:      "Number of verified proofs by result",
	}, []string{"result"})
)

// Verify reports whether SHA-256(nonce || hash) is below the threshold derived
// from difficulty. The only error is shared.ErrInvalidDifficulty.
func Verify(hash shared.Hash, difficulty uint, nonce shared.Nonce) (bool, error) {
	threshold, err := shared.DeriveThreshold(difficulty)
	if err != nil {
		return false, err
	}
	return check(hash, threshold, nonce), nil
}

func check(hash shared.Hash, threshold shared.Threshold, nonce shared.Nonce) bool {
	valid := shared.BelowThreshold(shared.CalcSolution(nonce, hash), threshold)
	if valid {
		verificationsMetric.WithLabelValues("valid").Inc()
	} else {
		verificationsMetric.WithLabelValues("invalid").Inc()
	}
	return valid
}

// Verifier verifies proofs with thresholds served from a cache.
// It is safe for concurrent use.
type Verifier struct {
	thresholds *shared.ThresholdCache
}

func New(cacheSize int) (*Verifier, error) {
	thresholds, err := shared.NewThresholdCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating threshold cache: %w", err)
	}
	return &Verifier{thresholds: thresholds}, nil
}

// Verify has the same semantics as the package level Verify.
func (v *Verifier) Verify(hash shared.Hash, difficulty uint, nonce shared.Nonce) (bool, error) {
	threshold, err := v.thresholds.Get(difficulty)
	if err != nil {
		return false, err
	}
	return check(hash, threshold, nonce), nil
}

// Validate returns nil for a valid proof and an error wrapping ErrInvalidProof otherwise.
func (v *Verifier) Validate(proof *shared.Proof) error {
	valid, err := v.Verify(proof.Hash, proof.Difficulty, proof.Nonce)
	switch {
	case err != nil:
		return fmt.Errorf("validating proof: %w", err)
	case !valid:
		return fmt.Errorf("%w: solution is not below threshold", ErrInvalidProof)
	}
	return nil
}

// Threshold returns the cached threshold of difficulty.
func (v *Verifier) Threshold(difficulty uint) (shared.Threshold, error) {
	return v.thresholds.Get(difficulty)
}
