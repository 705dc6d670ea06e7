package solver

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/hashcash/logging"
	"github.com/spacemeshos/hashcash/shared"
	"github.com/spacemeshos/hashcash/transport"
)

var ErrPoolClosed = errors.New("solver pool is closed")

type pendingRequest struct {
	result chan transport.Response
	cancel context.CancelFunc
}

// Pool is a set of long-lived workers searching nonces for concurrent
// solve requests. Each request is fanned out to several workers and resolved
// by the first nonce found, the remaining searches are cancelled.
type Pool struct {
	logger    *zap.Logger
	transport *transport.InMemory
	rng       io.Reader
	workers   int
	fanout    int

	mu      sync.Mutex
	closed  bool
	pending map[uuid.UUID]*pendingRequest

	cancel context.CancelFunc
	eg     errgroup.Group
}

type PoolOption func(*poolOptions)

type poolOptions struct {
	workers int
	fanout  int
	rng     io.Reader
}

// WithWorkers sets the number of workers. Values below 1 select runtime.NumCPU().
func WithWorkers(n int) PoolOption {
	return func(opts *poolOptions) {
		opts.workers = n
	}
}

// WithFanout sets how many workers search for a single request.
// Values below 1 or above the number of workers select all workers.
func WithFanout(n int) PoolOption {
	return func(opts *poolOptions) {
		opts.fanout = n
	}
}

// WithPoolRandReader replaces crypto/rand as the source of nonces.
// The reader must be safe for concurrent use.
func WithPoolRandReader(r io.Reader) PoolOption {
	return func(opts *poolOptions) {
		opts.rng = r
	}
}

// NewPool starts the workers. They run until Close is called or ctx is done.
func NewPool(ctx context.Context, opts ...PoolOption) *Pool {
	options := poolOptions{
		rng: rand.Reader,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.workers < 1 {
		options.workers = runtime.NumCPU()
	}
	if options.fanout < 1 || options.fanout > options.workers {
		options.fanout = options.workers
	}

	logger := logging.FromContext(ctx).Named("pool")
	ctx, cancel := context.WithCancel(logging.NewContext(ctx, logger))
	p := &Pool{
		logger:    logger,
		transport: transport.NewInMemory(options.workers * options.fanout),
		rng:       options.rng,
		workers:   options.workers,
		fanout:    options.fanout,
		pending:   make(map[uuid.UUID]*pendingRequest),
		cancel:    cancel,
	}

	logger.Info("starting solver pool", zap.Int("workers", p.workers), zap.Int("fanout", p.fanout))
	for i := 0; i < p.workers; i++ {
		id := i
		p.eg.Go(func() error {
			return p.work(ctx, id)
		})
	}
	p.eg.Go(func() error {
		return p.route(ctx)
	})
	return p
}

func (p *Pool) Workers() int {
	return p.workers
}

// Solve searches a nonce for hash below threshold on the pool's workers.
// It returns ctx.Err() if ctx is done first, and ErrPoolClosed if the pool is
// closed before a nonce is found.
func (p *Pool) Solve(ctx context.Context, hash shared.Hash, threshold shared.Threshold) (shared.Nonce, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	id := uuid.New()
	pending := &pendingRequest{
		result: make(chan transport.Response, 1),
		cancel: cancel,
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return shared.Nonce{}, ErrPoolClosed
	}
	p.pending[id] = pending
	p.mu.Unlock()
	pendingRequestsMetric.Inc()
	defer p.forget(id)

	logger := p.logger.With(zap.Stringer("request_id", id))
	logger.Debug("dispatching solve request", zap.Stringer("hash", hash), zap.Int("fanout", p.fanout))

	req := transport.Request{
		Ctx:       reqCtx,
		ID:        id,
		Hash:      hash,
		Threshold: threshold,
	}
	for i := 0; i < p.fanout; i++ {
		if err := p.transport.Dispatch(reqCtx, req); err != nil {
			return shared.Nonce{}, p.abandoned(ctx)
		}
	}

	select {
	case resp := <-pending.result:
		logger.Debug("solve request resolved", zap.Error(resp.Err))
		return resp.Nonce, resp.Err
	case <-reqCtx.Done():
		select {
		case resp := <-pending.result:
			return resp.Nonce, resp.Err
		default:
		}
		return shared.Nonce{}, p.abandoned(ctx)
	}
}

// abandoned tells apart a caller giving up from the pool shutting down.
func (p *Pool) abandoned(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrPoolClosed
}

func (p *Pool) forget(id uuid.UUID) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
	pendingRequestsMetric.Dec()
}

// Close cancels outstanding requests and waits for the workers to exit.
func (p *Pool) Close() error {
	if p.markClosed() {
		p.logger.Info("stopping solver pool")
	}
	p.cancel()
	return p.eg.Wait()
}

// markClosed rejects new requests and cancels the pending ones.
// It reports whether the pool was open.
func (p *Pool) markClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.closed = true
	for _, req := range p.pending {
		req.cancel()
	}
	return true
}

func (p *Pool) work(ctx context.Context, id int) error {
	logger := p.logger.With(zap.Int("worker", id))
	rng := newRandSource(p.rng)
	requests := p.transport.RegisterForRequests()
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-requests:
			if req.Ctx.Err() != nil {
				// already resolved or abandoned
				continue
			}
			nonce, err := search(req.Ctx, rng, req.Hash, req.Threshold)
			if err != nil && req.Ctx.Err() != nil {
				continue
			}
			if err != nil {
				logger.Error("search failed", zap.Stringer("request_id", req.ID), zap.Error(err))
			}
			resp := transport.Response{ID: req.ID, Nonce: nonce, Err: err}
			if err := p.transport.NewNonce(ctx, resp); err != nil {
				return nil
			}
		}
	}
}

// route delivers the first response of every request to its caller and drops the rest.
func (p *Pool) route(ctx context.Context) error {
	nonces := p.transport.RegisterForNonces()
	for {
		select {
		case <-ctx.Done():
			p.markClosed()
			return nil
		case resp := <-nonces:
			p.mu.Lock()
			req, ok := p.pending[resp.ID]
			if ok {
				delete(p.pending, resp.ID)
			}
			p.mu.Unlock()
			if !ok {
				p.logger.Debug("discarding response for finished request", zap.Stringer("request_id", resp.ID))
				continue
			}
			req.result <- resp
		}
	}
}
