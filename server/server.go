package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	grpcmw "github.com/grpc-ecosystem/go-grpc-middleware"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/peer"

	"github.com/spacemeshos/hashcash/logging"
	"github.com/spacemeshos/hashcash/rpc"
	"github.com/spacemeshos/hashcash/rpc/api"
	"github.com/spacemeshos/hashcash/solver"
	"github.com/spacemeshos/hashcash/verifier"
)

type Server struct {
	solver   *solver.Solver
	verifier *verifier.Verifier
	cfg      Config

	rpcListener     net.Listener
	metricsListener net.Listener
}

func listen(raw string) (net.Listener, error) {
	addr, err := net.ResolveTCPAddr("tcp", raw)
	if err != nil {
		return nil, err
	}
	listener, err := net.Listen(addr.Network(), addr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %v", err)
	}
	return listener, nil
}

func New(ctx context.Context, cfg Config) (*Server, error) {
	rpcListener, err := listen(cfg.RawRPCListener)
	if err != nil {
		return nil, err
	}

	var metricsListener net.Listener
	if cfg.MetricsPort != nil {
		metricsListener, err = listen(fmt.Sprintf("localhost:%d", *cfg.MetricsPort))
		if err != nil {
			return nil, multierror.Append(err, rpcListener.Close())
		}
	}

	closeListeners := func(err error) error {
		result := multierror.Append(err, ignoreClosed(rpcListener.Close()))
		if metricsListener != nil {
			result = multierror.Append(result, ignoreClosed(metricsListener.Close()))
		}
		return result.ErrorOrNil()
	}

	v, err := verifier.New(cfg.Solver.ThresholdCacheSize)
	if err != nil {
		return nil, closeListeners(fmt.Errorf("creating verifier: %w", err))
	}
	s, err := solver.NewFromConfig(ctx, cfg.Solver)
	if err != nil {
		return nil, closeListeners(fmt.Errorf("creating solver: %w", err))
	}
	logging.FromContext(ctx).Info("created solver", zap.String("mode", string(s.Mode())))

	return &Server{
		solver:          s,
		verifier:        v,
		cfg:             cfg,
		rpcListener:     rpcListener,
		metricsListener: metricsListener,
	}, nil
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Close releases the solver and the listeners not taken over by Start.
func (s *Server) Close() error {
	var result *multierror.Error
	result = multierror.Append(result, s.solver.Close())
	result = multierror.Append(result, ignoreClosed(s.rpcListener.Close()))
	if s.metricsListener != nil {
		result = multierror.Append(result, ignoreClosed(s.metricsListener.Close()))
	}
	return result.ErrorOrNil()
}

// GrpcAddr returns the address that server is listening on for GRPC.
func (s *Server) GrpcAddr() net.Addr {
	return s.rpcListener.Addr()
}

// MetricsAddr returns the address metrics are served on, nil if disabled.
func (s *Server) MetricsAddr() net.Addr {
	if s.metricsListener == nil {
		return nil
	}
	return s.metricsListener.Addr()
}

// Start serves RPC (and metrics if enabled) until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	serverGroup, ctx := errgroup.WithContext(ctx)

	logger := logging.FromContext(ctx)

	rpcServer := rpc.NewServer(s.solver, s.verifier, s.cfg.RPC)
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpcmw.ChainUnaryServer(
			loggerInterceptor(logger),
			grpcMetrics.UnaryServerInterceptor(),
		)),
		// XXX: this is done to prevent routers from cleaning up our connections (e.g aws load balances..)
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     time.Minute * 120,
			MaxConnectionAge:      time.Minute * 180,
			MaxConnectionAgeGrace: time.Minute * 10,
			Time:                  time.Minute,
			Timeout:               time.Minute * 3,
		}),
	)
	api.RegisterHashcashServiceServer(grpcServer, rpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	// Start the gRPC server listening for HTTP/2 connections.
	serverGroup.Go(func() error {
		logger.Sugar().Infof("GRPC server listening on %s", s.rpcListener.Addr())
		return grpcServer.Serve(s.rpcListener)
	})

	var metricsServer *http.Server
	if s.metricsListener != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: time.Second * 5}
		serverGroup.Go(func() error {
			logger.Sugar().Infof("metrics server listening on %s", s.metricsListener.Addr())
			err := metricsServer.Serve(s.metricsListener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	// Wait for the server to shut down gracefully
	<-ctx.Done()
	grpcServer.GracefulStop()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Sugar().Errorf("failed to shutdown metrics server: %s", err)
		}
	}
	if err := serverGroup.Wait(); err != nil {
		logger.Sugar().Errorf("error when waiting to shutdown servers: %s", err)
	}
	return nil
}

// loggerInterceptor returns UnaryServerInterceptor handler to log all RPC server incoming requests.
func loggerInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		logger := logger.Named(info.FullMethod).With(zap.Stringer("request_id", uuid.New()))
		ctx = logging.NewContext(ctx, logger)

		if msg, ok := req.(fmt.Stringer); ok {
			fields := []zap.Field{zap.Stringer("message", msg)}
			if peer, ok := peer.FromContext(ctx); ok {
				fields = append(fields, zap.Stringer("from", peer.Addr))
			}
			logger.Debug("new GRPC", fields...)
		}

		resp, err := handler(ctx, req)
		if err != nil {
			logger.Info("FAILURE", zap.Error(err))
		}
		return resp, err
	}
}
