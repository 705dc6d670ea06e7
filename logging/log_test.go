package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/hashcash/logging"
)

func TestLoggerFromContext(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := logging.NewContext(context.Background(), logger)
	require.Same(t, logger, logging.FromContext(ctx))
}

func TestDefaultLogger(t *testing.T) {
	require.NotNil(t, logging.FromContext(context.Background()))
}

func TestLogToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "hashcash.log")
	logger := logging.New(logging.Config{
		Level:       zap.InfoLevel,
		JSON:        true,
		File:        file,
		MaxFiles:    1,
		MaxFileSize: 1,
	})
	logger.Debug("debug message")
	_ = logger.Sync()

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(content), "debug message")
}
