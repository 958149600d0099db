// Package xlog configures the process-wide slog logger from LOG_LEVEL and
// tees its output to a per-run log file under logs/.
package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Init configures slog based on the LOG_LEVEL environment variable
// (debug, info, warn, error; default info) and writes to both stderr and
// logs/export_<runID>.log. It returns the log file so the caller can close
// it on shutdown; logFile is nil if the file could not be created, in which
// case logging falls back to stderr only.
func Init(runID string) (*os.File, error) {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	if err := os.MkdirAll("logs", 0o755); err != nil {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		slog.SetDefault(slog.New(handler))
		return nil, fmt.Errorf("xlog: create logs directory: %w", err)
	}

	logPath := filepath.Join("logs", fmt.Sprintf("export_%s.log", runID))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		slog.SetDefault(slog.New(handler))
		return nil, fmt.Errorf("xlog: open log file %q: %w", logPath, err)
	}

	writer := io.MultiWriter(os.Stderr, logFile)
	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return logFile, nil
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
