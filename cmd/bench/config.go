package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/spacemeshos/hashcash/solver"
)

const (
	defaultMaxDifficulty = 10
	defaultSamples       = 10
	defaultCPU           = false
)

// config defines the configuration options for bench.
type config struct {
	MinDifficulty uint   `long:"min"     description:"lowest benchmarked difficulty"`
	MaxDifficulty uint   `long:"max"     description:"highest benchmarked difficulty"`
	Samples       int    `long:"samples" description:"number of solves averaged per difficulty" short:"s"`
	Seed          string `long:"seed"    description:"data whose SHA-256 is the solved hash"`
	CPU           bool   `short:"c"      description:"whether to enable CPU profiling"`

	Solver solver.Config `group:"Solver"`
}

// loadConfig initializes and parses the config using command line options.
func loadConfig() (*config, error) {
	// Default config.
	cfg := config{
		MaxDifficulty: defaultMaxDifficulty,
		Samples:       defaultSamples,
		Seed:          "test",
		CPU:           defaultCPU,
		Solver:        solver.DefaultConfig(),
	}

	// Parse command line options.
	if _, err := flags.Parse(&cfg); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		return nil, err
	}
	if cfg.MinDifficulty > cfg.MaxDifficulty {
		err := fmt.Errorf("min difficulty %d is above max difficulty %d", cfg.MinDifficulty, cfg.MaxDifficulty)
		_, _ = fmt.Fprintln(os.Stderr, err)
		return nil, err
	}
	if cfg.Samples < 1 {
		cfg.Samples = 1
	}

	return &cfg, nil
}
