// Package logging provides the process-wide structured logger. Output goes
// to a size-capped rotating file so install attempts can be audited after
// the fact; the log is observational only and never drives control flow.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	defaultLogger *slog.Logger
	once          sync.Once
)

// Get returns the global logger, initializing it on first use. When the log
// file cannot be created the logger silently discards output.
func Get() *slog.Logger {
	once.Do(func() {
		defaultLogger = initLogger()
	})
	return defaultLogger
}

func initLogger() *slog.Logger {
	dir, err := stateDir()
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	writer := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "toolprep.log"),
		MaxSize:    1, // MB
		MaxBackups: 1,
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler)
}

func stateDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "toolchain-prep")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
