// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (c) 2017-2023 The Spacemesh developers

package server

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/spacemeshos/hashcash/logging"
	"github.com/spacemeshos/hashcash/rpc"
	"github.com/spacemeshos/hashcash/solver"
)

const (
	defaultLogDirname     = "logs"
	defaultLogFilename    = "hashcash.log"
	defaultMaxLogFiles    = 3
	defaultMaxLogFileSize = 10
	defaultRPCPort        = 50003
)

// Config defines the configuration options for the hashcash server.
//
// See SetupConfig for further details regarding the
// configuration loading+parsing process.
type Config struct {
	HashcashDir    string  `long:"hashcashdir"    description:"The base directory that contains logs, configuration file, etc."`
	ConfigFile     string  `long:"configfile"     description:"Path to configuration file"                              short:"c"`
	LogDir         string  `long:"logdir"         description:"Directory to log output."`
	DebugLog       bool    `long:"debuglog"       description:"Enable debug logs"`
	JSONLog        bool    `long:"jsonlog"        description:"Whether to log in JSON format"`
	MaxLogFiles    int     `long:"maxlogfiles"    description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize int     `long:"maxlogfilesize" description:"Maximum logfile size in MB"`
	RawRPCListener string  `long:"rpclisten"      description:"The interface/port/socket to listen for RPC connections" short:"r"`
	MetricsPort    *uint16 `long:"metrics-port"   description:"The port to expose metrics"`

	CPUProfile string `long:"cpuprofile" description:"Write CPU profile to the specified file"`
	Profile    string `long:"profile"    description:"Enable HTTP profiling on given port -- must be between 1024 and 65535"`

	Solver solver.Config `group:"Solver"`
	RPC    rpc.Config    `group:"RPC"`
}

// DefaultConfig returns a config with default hardcoded values.
func DefaultConfig() *Config {
	hashcashDir := "./hashcash"
	cacheDir, err := os.UserCacheDir()
	if err == nil {
		hashcashDir = filepath.Join(cacheDir, "hashcash")
	}

	return &Config{
		HashcashDir:    hashcashDir,
		LogDir:         filepath.Join(hashcashDir, defaultLogDirname),
		MaxLogFiles:    defaultMaxLogFiles,
		MaxLogFileSize: defaultMaxLogFileSize,
		RawRPCListener: fmt.Sprintf("localhost:%d", defaultRPCPort),
		Solver:         solver.DefaultConfig(),
		RPC:            rpc.DefaultConfig(),
	}
}

// LogFile is the path of the rotated log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir, defaultLogFilename)
}

// ParseFlags reads values from command line arguments.
func ParseFlags(preCfg *Config) (*Config, error) {
	if _, err := flags.Parse(preCfg); err != nil {
		return nil, err
	}
	return preCfg, nil
}

// ReadConfigFile reads config from an ini file.
// It uses the provided `cfg` as a base config and overrides it with the values
// from the config file.
func ReadConfigFile(cfg *Config) (*Config, error) {
	if cfg.ConfigFile == "" {
		return cfg, nil
	}
	logging.FromContext(context.Background()).Sugar().Debugf("reading config from %s", cfg.ConfigFile)
	if err := flags.IniParse(cfg.ConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from %v: %w", cfg.ConfigFile, err)
	}

	return cfg, nil
}

// SetupConfig expands paths and initializes filesystem.
func SetupConfig(cfg *Config) (*Config, error) {
	// If the provided hashcash directory is not the default, the log directory
	// moves along with it unless it was set explicitly.
	defaultCfg := DefaultConfig()
	if cfg.HashcashDir != defaultCfg.HashcashDir && cfg.LogDir == defaultCfg.LogDir {
		cfg.LogDir = filepath.Join(cfg.HashcashDir, defaultLogDirname)
	}

	cfg.HashcashDir = cleanAndExpandPath(cfg.HashcashDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	if err := os.MkdirAll(cfg.HashcashDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create %v: %w", cfg.HashcashDir, err)
	}
	if err := os.MkdirAll(cfg.LogDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create %v: %w", cfg.LogDir, err)
	}

	return cfg, nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		user, err := user.Current()
		if err == nil {
			homeDir = user.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
