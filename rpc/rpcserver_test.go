package rpc_test

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/spacemeshos/hashcash/logging"
	"github.com/spacemeshos/hashcash/rpc"
	"github.com/spacemeshos/hashcash/rpc/api"
	"github.com/spacemeshos/hashcash/shared"
	"github.com/spacemeshos/hashcash/solver"
	"github.com/spacemeshos/hashcash/verifier"
)

func spawnService(t *testing.T, cfg rpc.Config) *api.HashcashServiceClient {
	t.Helper()
	return api.NewHashcashServiceClient(dialService(t, cfg))
}

func dialService(t *testing.T, cfg rpc.Config) *grpc.ClientConn {
	t.Helper()
	ctx := logging.NewContext(context.Background(), zaptest.NewLogger(t))

	s, err := solver.NewFromConfig(ctx, solver.Config{
		Mode:               solver.ModePooled,
		Workers:            2,
		ThresholdCacheSize: 8,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	v, err := verifier.New(8)
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	api.RegisterHashcashServiceServer(server, rpc.NewServer(s, v, cfg))
	go server.Serve(listener)
	t.Cleanup(server.Stop)

	conn, err := grpc.DialContext(
		ctx,
		"bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, conn.Close()) })
	return conn
}

func TestThreshold(t *testing.T) {
	client := spawnService(t, rpc.DefaultConfig())

	resp, err := client.Threshold(context.Background(), &api.ThresholdRequest{Difficulty: 8})
	require.NoError(t, err)
	expected, err := shared.DeriveThreshold(8)
	require.NoError(t, err)
	require.Equal(t, expected[:], resp.Threshold)

	_, err = client.Threshold(context.Background(), &api.ThresholdRequest{Difficulty: 257})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSolveAndVerify(t *testing.T) {
	client := spawnService(t, rpc.DefaultConfig())
	hash := sha256.Sum256([]byte("test"))

	solved, err := client.Solve(context.Background(), &api.SolveRequest{Hash: hash[:], Difficulty: 10})
	require.NoError(t, err)
	require.Len(t, solved.Nonce, shared.NonceSize)

	verified, err := client.Verify(context.Background(), &api.VerifyRequest{
		Hash:       hash[:],
		Difficulty: 10,
		Nonce:      solved.Nonce,
	})
	require.NoError(t, err)
	require.True(t, verified.Valid)

	// The same nonce cannot satisfy the highest difficulty.
	verified, err = client.Verify(context.Background(), &api.VerifyRequest{
		Hash:       hash[:],
		Difficulty: shared.MaxDifficulty,
		Nonce:      solved.Nonce,
	})
	require.NoError(t, err)
	require.False(t, verified.Valid)
}

func TestInvalidArguments(t *testing.T) {
	client := spawnService(t, rpc.DefaultConfig())
	hash := sha256.Sum256([]byte("test"))
	nonce := make([]byte, shared.NonceSize)

	_, err := client.Solve(context.Background(), &api.SolveRequest{Hash: hash[:5], Difficulty: 1})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Solve(context.Background(), &api.SolveRequest{Hash: hash[:], Difficulty: 300})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Verify(context.Background(), &api.VerifyRequest{Hash: hash[:], Difficulty: 1, Nonce: nonce[:31]})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Verify(context.Background(), &api.VerifyRequest{Hash: hash[:], Difficulty: 257, Nonce: nonce})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestNegativeDifficulty(t *testing.T) {
	client := spawnService(t, rpc.DefaultConfig())
	hash := sha256.Sum256([]byte("test"))
	nonce := make([]byte, shared.NonceSize)

	_, err := client.Threshold(context.Background(), &api.ThresholdRequest{Difficulty: -1})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Contains(t, status.Convert(err).Message(), shared.ErrInvalidDifficulty.Error())

	_, err = client.Solve(context.Background(), &api.SolveRequest{Hash: hash[:], Difficulty: -3})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Verify(context.Background(), &api.VerifyRequest{Hash: hash[:], Difficulty: -5, Nonce: nonce})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUndecodableRequest(t *testing.T) {
	conn := dialService(t, rpc.DefaultConfig())

	for method, body := range map[string]string{
		"Threshold": `{"difficulty":-1}`,
		"Solve":     `{"difficulty":1e30}`,
		"Verify":    `{"difficulty":"five"}`,
	} {
		var out json.RawMessage
		err := conn.Invoke(
			context.Background(),
			"/"+api.ServiceName+"/"+method,
			json.RawMessage(body),
			&out,
			grpc.CallContentSubtype(api.CodecName),
		)
		require.Equal(t, codes.InvalidArgument, status.Code(err), method)
	}
}

func TestSolveTimeout(t *testing.T) {
	client := spawnService(t, rpc.Config{SolveTimeout: 50 * time.Millisecond})
	hash := sha256.Sum256([]byte("test"))

	_, err := client.Solve(context.Background(), &api.SolveRequest{Hash: hash[:], Difficulty: shared.MaxDifficulty})
	require.Equal(t, codes.DeadlineExceeded, status.Code(err))
	require.Contains(t, status.Convert(err).Message(), rpc.ErrProofTimeout.Error())
}

func TestSolveCanceledByClient(t *testing.T) {
	client := spawnService(t, rpc.Config{})
	hash := sha256.Sum256([]byte("test"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Solve(ctx, &api.SolveRequest{Hash: hash[:], Difficulty: shared.MaxDifficulty})
	require.Equal(t, codes.DeadlineExceeded, status.Code(err))
}
