// Copyright (c) 2025 BVK Chaitanya

/*
Package logdir implements a log backend that keeps size limited, rotated log
files in a given directory.
*/
package logdir

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// FileSizeLimitMB contains the maximum size for a log file before it is
	// rotated.
	FileSizeLimitMB = 100

	// MaxBackups contains the number of rotated log files to keep.
	MaxBackups = 10

	// MaxAgeDays contains the number of days to keep rotated log files.
	MaxAgeDays = 30

	// DirMode contains the permissions for a newly created log directory.
	DirMode = os.FileMode(0700)
)

type Backend struct {
	logger *lumberjack.Logger
}

// New creates a log backend writing to <dirname>/<logname>.log. The directory
// is created if it doesn't exist.
func New(dirname, logname string) (*Backend, error) {
	if len(logname) == 0 {
		return nil, fmt.Errorf("log file name cannot be empty: %w", os.ErrInvalid)
	}
	if err := os.MkdirAll(dirname, DirMode); err != nil {
		return nil, fmt.Errorf("could not create log directory %q: %w", dirname, err)
	}
	b := &Backend{
		logger: &lumberjack.Logger{
			Filename:   filepath.Join(dirname, logname+".log"),
			MaxSize:    FileSizeLimitMB,
			MaxBackups: MaxBackups,
			MaxAge:     MaxAgeDays,
			Compress:   true,
		},
	}
	return b, nil
}

// Filename returns the path to the current log file.
func (b *Backend) Filename() string {
	return b.logger.Filename
}

func (b *Backend) Write(data []byte) (int, error) {
	return b.logger.Write(data)
}

func (b *Backend) Close() error {
	return b.logger.Close()
}

// Rotate closes the current log file and opens a new one.
func (b *Backend) Rotate() error {
	return b.logger.Rotate()
}

// ParseLevel returns the slog level for one of debug, info, warn or error.
// An empty string is the info level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log level %q must be one of debug, info, warn or error: %w", s, os.ErrInvalid)
}

// NewHandler returns a text slog handler that writes to the backend and to
// the extra writers, typically os.Stderr.
func (b *Backend) NewHandler(level slog.Leveler, extra ...io.Writer) slog.Handler {
	ws := append([]io.Writer{b}, extra...)
	return slog.NewTextHandler(io.MultiWriter(ws...), &slog.HandlerOptions{Level: level})
}
