package rpc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spacemeshos/hashcash/logging"
	"github.com/spacemeshos/hashcash/rpc/api"
	"github.com/spacemeshos/hashcash/shared"
	"github.com/spacemeshos/hashcash/solver"
	"github.com/spacemeshos/hashcash/verifier"
)

const DefaultSolveTimeout = time.Minute

var ErrProofTimeout = errors.New("timed out searching for a nonce")

type Config struct {
	SolveTimeout time.Duration `long:"solve-timeout" description:"Maximum duration of a Solve call (0 for no limit)"`
}

func DefaultConfig() Config {
	return Config{SolveTimeout: DefaultSolveTimeout}
}

// implement zap.ObjectMarshaler interface.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddDuration("solve-timeout", c.SolveTimeout)
	return nil
}

type Solver interface {
	Solve(ctx context.Context, hash shared.Hash, difficulty uint) (shared.Nonce, error)
}

type Verifier interface {
	Threshold(difficulty uint) (shared.Threshold, error)
	Validate(proof *shared.Proof) error
}

// rpcServer is a gRPC front end to a solver and a verifier.
type rpcServer struct {
	solver   Solver
	verifier Verifier
	cfg      Config
}

// A compile time check to ensure that rpcServer fully implements
// the HashcashServiceServer gRPC rpc.
var _ api.HashcashServiceServer = (*rpcServer)(nil)

// NewServer creates and returns a new instance of the rpcServer.
func NewServer(solver Solver, verifier Verifier, cfg Config) *rpcServer {
	return &rpcServer{
		solver:   solver,
		verifier: verifier,
		cfg:      cfg,
	}
}

func (r *rpcServer) Threshold(_ context.Context, in *api.ThresholdRequest) (*api.ThresholdResponse, error) {
	difficulty, err := api.FromThresholdRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	threshold, err := r.verifier.Threshold(difficulty)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.ThresholdResponse{Threshold: threshold[:]}, nil
}

func (r *rpcServer) Solve(ctx context.Context, in *api.SolveRequest) (*api.SolveResponse, error) {
	hash, difficulty, err := api.FromSolveRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}

	if r.cfg.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.SolveTimeout)
		defer cancel()
	}
	nonce, err := r.solver.Solve(ctx, hash, difficulty)
	if errors.Is(err, context.DeadlineExceeded) {
		logging.FromContext(ctx).Info("solve timed out", zap.Stringer("hash", hash), zap.Uint("difficulty", difficulty))
		err = ErrProofTimeout
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.SolveResponse{Nonce: nonce[:]}, nil
}

func (r *rpcServer) Verify(_ context.Context, in *api.VerifyRequest) (*api.VerifyResponse, error) {
	proof, err := api.FromVerifyRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	err = r.verifier.Validate(proof)
	switch {
	case err == nil:
		return &api.VerifyResponse{Valid: true}, nil
	case errors.Is(err, verifier.ErrInvalidProof):
		return &api.VerifyResponse{Valid: false}, nil
	default:
		return nil, toStatus(err)
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, shared.ErrInvalidDifficulty), errors.Is(err, shared.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrProofTimeout):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, solver.ErrPoolClosed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
