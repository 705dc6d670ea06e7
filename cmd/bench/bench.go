package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"time"

	"go.uber.org/zap"

	"github.com/spacemeshos/hashcash/logging"
	"github.com/spacemeshos/hashcash/shared"
	"github.com/spacemeshos/hashcash/solver"
	"github.com/spacemeshos/hashcash/verifier"
)

func main() {
	runtime.MemProfileRate = 0
	println("Memory profiling disabled.")

	cfg, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}

	// Enable CPU profiling
	if cfg.CPU {
		dir, err := os.Getwd()
		if err != nil {
			log.Fatal("cant get current dir", err)
		}

		profFilePath := path.Join(dir, "./CPU.prof")
		fmt.Printf("CPU profile: %s\n", profFilePath)

		f, err := os.Create(profFilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()

		println("Cpu profiling enabled and started...")
	}

	ctx := logging.NewContext(context.Background(), logging.New(logging.Config{Level: zap.WarnLevel}))
	s, err := solver.NewFromConfig(ctx, cfg.Solver)
	if err != nil {
		log.Fatal("could not create solver: ", err)
	}
	defer s.Close()

	hash := shared.Hash(sha256.Sum256([]byte(cfg.Seed)))
	fmt.Printf("hash: %s, mode: %s, samples: %d\n", hash, s.Mode(), cfg.Samples)

	for difficulty := cfg.MinDifficulty; difficulty <= cfg.MaxDifficulty; difficulty++ {
		average, err := averageSolveTime(ctx, s, hash, difficulty, cfg.Samples)
		if err != nil {
			log.Fatalf("difficulty %d: %v", difficulty, err)
		}
		fmt.Printf("difficulty: %d, average: %s (%f)\n", difficulty, average, average.Seconds())
	}
}

// averageSolveTime solves hash samples times in sequence and verifies every nonce.
func averageSolveTime(
	ctx context.Context,
	s *solver.Solver,
	hash shared.Hash,
	difficulty uint,
	samples int,
) (time.Duration, error) {
	var total time.Duration
	for i := 0; i < samples; i++ {
		started := time.Now()
		nonce, err := s.Solve(ctx, hash, difficulty)
		if err != nil {
			return 0, err
		}
		total += time.Since(started)

		valid, err := verifier.Verify(hash, difficulty, nonce)
		if err != nil {
			return 0, err
		}
		if !valid {
			return 0, fmt.Errorf("%w: nonce %s", verifier.ErrInvalidProof, nonce)
		}
	}
	return total / time.Duration(samples), nil
}
