// Package logging builds the zap logger shared by the CLI and the TUI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file the interactive UI writes to inside the data dir.
const FileName = "todo.log"

// New returns a production logger at level, writing JSON to stderr.
func New(level zapcore.Level) (*zap.Logger, error) {
	return build(level, "stderr")
}

// NewFile logs to path instead of stderr. The interactive UI owns the
// terminal, so it logs here.
func NewFile(level zapcore.Level, path string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return build(level, path)
}

func build(level zapcore.Level, out string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{out}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Sampling = nil
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
