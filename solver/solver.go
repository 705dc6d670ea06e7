package solver

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/hashcash/logging"
	"github.com/spacemeshos/hashcash/shared"
)

type Mode string

const (
	// ModeInline runs the search on the caller's goroutine.
	ModeInline Mode = "inline"
	// ModePooled dispatches the search to a worker pool.
	ModePooled Mode = "pooled"

	DefaultThresholdCacheSize = shared.DefaultThresholdCacheSize
)

func DefaultConfig() Config {
	return Config{
		Mode:               ModePooled,
		ThresholdCacheSize: DefaultThresholdCacheSize,
	}
}

//nolint:lll
type Config struct {
	Mode               Mode `long:"mode"                 description:"Where nonces are searched" choice:"inline" choice:"pooled"`
	Workers            int  `long:"workers"              description:"Number of pool workers (0 for the number of CPUs)"`
	Fanout             int  `long:"fanout"               description:"Number of pool workers searching for a single request (0 for all workers)"`
	ThresholdCacheSize int  `long:"threshold-cache-size" description:"Number of difficulty thresholds to keep in memory (0 for the default)"`
}

// implement zap.ObjectMarshaler interface.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("mode", string(c.Mode))
	enc.AddInt("workers", c.Workers)
	enc.AddInt("fanout", c.Fanout)
	enc.AddInt("threshold-cache-size", c.ThresholdCacheSize)
	return nil
}

// Solver finds nonces for a hash and difficulty.
// Without a pool every Solve call searches inline.
type Solver struct {
	pool       *Pool
	ownsPool   bool
	rng        io.Reader
	thresholds *shared.ThresholdCache
}

type Option func(*solverOptions)

type solverOptions struct {
	pool      *Pool
	rng       io.Reader
	cacheSize int
}

// WithPool makes the solver dispatch searches to pool.
// The caller keeps ownership of the pool.
func WithPool(pool *Pool) Option {
	return func(opts *solverOptions) {
		opts.pool = pool
	}
}

// WithRandReader replaces crypto/rand as the source of nonces for inline searches.
func WithRandReader(r io.Reader) Option {
	return func(opts *solverOptions) {
		opts.rng = r
	}
}

func WithThresholdCacheSize(size int) Option {
	return func(opts *solverOptions) {
		opts.cacheSize = size
	}
}

func New(opts ...Option) (*Solver, error) {
	options := solverOptions{
		rng:       rand.Reader,
		cacheSize: DefaultThresholdCacheSize,
	}
	for _, opt := range opts {
		opt(&options)
	}
	thresholds, err := shared.NewThresholdCache(options.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating threshold cache: %w", err)
	}
	return &Solver{
		pool:       options.pool,
		rng:        options.rng,
		thresholds: thresholds,
	}, nil
}

// NewFromConfig creates a solver in the configured execution mode.
// In pooled mode the solver owns its pool and Close shuts it down.
func NewFromConfig(ctx context.Context, cfg Config) (*Solver, error) {
	switch cfg.Mode {
	case ModeInline:
		return New(WithThresholdCacheSize(cfg.ThresholdCacheSize))
	case ModePooled:
		pool := NewPool(ctx, WithWorkers(cfg.Workers), WithFanout(cfg.Fanout))
		s, err := New(WithPool(pool), WithThresholdCacheSize(cfg.ThresholdCacheSize))
		if err != nil {
			return nil, multierror.Append(err, pool.Close())
		}
		s.ownsPool = true
		return s, nil
	default:
		return nil, fmt.Errorf("unknown solver mode: %q", cfg.Mode)
	}
}

func (s *Solver) Mode() Mode {
	if s.pool == nil {
		return ModeInline
	}
	return ModePooled
}

// Close shuts down the pool if the solver owns it.
func (s *Solver) Close() error {
	if s.ownsPool {
		return s.pool.Close()
	}
	return nil
}

// Solve searches for a nonce such that SHA-256(nonce || hash) is below the
// threshold of difficulty. It only returns early if difficulty is invalid or
// ctx is done, the expected number of attempts is 2^difficulty.
func (s *Solver) Solve(ctx context.Context, hash shared.Hash, difficulty uint) (shared.Nonce, error) {
	threshold, err := s.thresholds.Get(difficulty)
	if err != nil {
		return shared.Nonce{}, err
	}

	mode := string(s.Mode())
	logger := logging.FromContext(ctx).With(
		zap.Stringer("hash", hash),
		zap.Uint("difficulty", difficulty),
		zap.String("mode", mode),
	)
	logger.Debug("solving")

	started := time.Now()
	var nonce shared.Nonce
	if s.pool == nil {
		nonce, err = search(ctx, newRandSource(s.rng), hash, threshold)
	} else {
		nonce, err = s.pool.Solve(ctx, hash, threshold)
	}
	elapsed := time.Since(started)

	switch {
	case err == nil:
		solvesMetric.WithLabelValues(mode, "found").Inc()
		solveLatencyMetric.WithLabelValues(mode).Observe(elapsed.Seconds())
		logger.Debug("found nonce", zap.Stringer("nonce", nonce), zap.Duration("elapsed", elapsed))
		return nonce, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		solvesMetric.WithLabelValues(mode, "abandoned").Inc()
	default:
		solvesMetric.WithLabelValues(mode, "failed").Inc()
	}
	logger.Debug("solving stopped", zap.Duration("elapsed", elapsed), zap.Error(err))
	return shared.Nonce{}, err
}
