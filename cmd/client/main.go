package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/spacemeshos/hashcash/rpc/api"
	"github.com/spacemeshos/hashcash/shared"
)

type options struct {
	Address string        `long:"address" description:"address of the hashcash server" short:"a" default:"localhost:50003"`
	Timeout time.Duration `long:"timeout" description:"deadline of a single call"                  default:"1m"`
}

type HashArg struct {
	Hash string `long:"hash" description:"hex encoded 32 byte hash"`
	Data string `long:"data" description:"data whose SHA-256 is used when --hash is not set"`
}

func (a HashArg) bytes() ([]byte, error) {
	if a.Hash == "" {
		h := sha256.Sum256([]byte(a.Data))
		return h[:], nil
	}
	return hex.DecodeString(a.Hash)
}

type thresholdCommand struct {
	Difficulty int64 `long:"difficulty" description:"number of leading zero bits" short:"d" required:"true"`
}

func (c *thresholdCommand) Execute([]string) error {
	return withClient(func(ctx context.Context, client *api.HashcashServiceClient) error {
		resp, err := client.Threshold(ctx, &api.ThresholdRequest{Difficulty: c.Difficulty})
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(resp.Threshold))
		return nil
	})
}

type solveCommand struct {
	HashArg
	Difficulty int64 `long:"difficulty" description:"number of leading zero bits" short:"d" required:"true"`
}

func (c *solveCommand) Execute([]string) error {
	hash, err := c.bytes()
	if err != nil {
		return fmt.Errorf("decoding hash: %w", err)
	}
	return withClient(func(ctx context.Context, client *api.HashcashServiceClient) error {
		resp, err := client.Solve(ctx, &api.SolveRequest{Hash: hash, Difficulty: c.Difficulty})
		if err != nil {
			return err
		}
		proof, err := api.FromVerifyRequest(&api.VerifyRequest{Hash: hash, Difficulty: c.Difficulty, Nonce: resp.Nonce})
		if err != nil {
			return err
		}
		encoded, err := shared.EncodeProof(proof)
		if err != nil {
			return err
		}
		fmt.Printf("nonce: %x\nproof: %x\n", resp.Nonce, encoded)
		return nil
	})
}

type verifyCommand struct {
	HashArg
	Difficulty int64  `long:"difficulty" description:"number of leading zero bits" short:"d"`
	Nonce      string `long:"nonce"      description:"hex encoded 32 byte nonce"`
	Proof      string `long:"proof"      description:"hex encoded proof printed by solve, replaces the other options"`
}

func (c *verifyCommand) request() (*api.VerifyRequest, error) {
	if c.Proof != "" {
		encoded, err := hex.DecodeString(c.Proof)
		if err != nil {
			return nil, fmt.Errorf("decoding proof: %w", err)
		}
		proof, err := shared.DecodeProof(encoded)
		if err != nil {
			return nil, err
		}
		return &api.VerifyRequest{Hash: proof.Hash[:], Difficulty: int64(proof.Difficulty), Nonce: proof.Nonce[:]}, nil
	}
	hash, err := c.bytes()
	if err != nil {
		return nil, fmt.Errorf("decoding hash: %w", err)
	}
	nonce, err := hex.DecodeString(c.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decoding nonce: %w", err)
	}
	return &api.VerifyRequest{Hash: hash, Difficulty: c.Difficulty, Nonce: nonce}, nil
}

func (c *verifyCommand) Execute([]string) error {
	req, err := c.request()
	if err != nil {
		return err
	}
	return withClient(func(ctx context.Context, client *api.HashcashServiceClient) error {
		resp, err := client.Verify(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("valid: %t\n", resp.Valid)
		return nil
	})
}

var opts options

func withClient(call func(context.Context, *api.HashcashServiceClient) error) error {
	conn, err := grpc.Dial(opts.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to dial grpc: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	return call(ctx, api.NewHashcashServiceClient(conn))
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	_, _ = parser.AddCommand("threshold", "Print the threshold of a difficulty", "", &thresholdCommand{})
	_, _ = parser.AddCommand("solve", "Find a nonce for a hash", "", &solveCommand{})
	_, _ = parser.AddCommand("verify", "Check a nonce for a hash", "", &verifyCommand{})

	if _, err := parser.Parse(); err != nil {
		// flags.Default prints parse errors itself
		if _, ok := err.(*flags.Error); !ok {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
