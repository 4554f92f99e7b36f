// Package logging builds the application's zap logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field names shared by every component so log lines stay greppable.
const (
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration"
	FieldKey      = "key"
	FieldAttempt  = "attempt"
	FieldNoteID   = "noteId"
	FieldFile     = "file"
	FieldBytes    = "bytes"
	FieldMimeType = "mimeType"
)

// Options selects where and how verbosely to log.
type Options struct {
	// Level is a zapcore level name ("debug", "info", ...). Empty means info.
	Level string

	// File, when set, receives the log instead of stderr. The TUI always
	// logs to a file since stderr shares the terminal.
	File string

	// Color enables colored level names; only sensible on a terminal.
	Color bool
}

// New builds a console-encoded logger. VOICENOTE_DEBUG forces debug level.
// The returned close function flushes and releases the log file.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if os.Getenv("VOICENOTE_DEBUG") != "" {
		level = zapcore.DebugLevel
	}

	var (
		sink    zapcore.WriteSyncer
		closeFn = func() {}
	)
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", opts.File, err)
		}
		sink = zapcore.Lock(f)
		closeFn = func() { _ = f.Close() }
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	logger := zap.New(newCore(sink, level, opts.Color && opts.File == ""), zap.AddCaller())
	return logger, func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}

// NewWriter logs to w at the given level. Tests and the CLI's --verbose
// mode use it.
func NewWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	return zap.New(newCore(zapcore.AddSync(w), level, false))
}

func newCore(sink zapcore.WriteSyncer, level zapcore.Level, color bool) zapcore.Core {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), sink, level)
}
