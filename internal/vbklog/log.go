// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package vbklog supplies the structured logging sink threaded through
// every core operation. Core packages depend only on the Logger interface;
// cmd/vintagebackup wires the concrete zap-backed implementation, the same
// way snapback.go wires a concrete tarsnap.Config.CmdLog into the library
// it drives.
package vbklog

import (
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface the core consumes. It mirrors
// the handful of levels original_source/lib/logs.py configures: debug
// detail, informational progress narration, and warnings for recoverable
// per-file failures.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// With returns a Logger that prefixes every message with a named field,
	// used to tag log lines with the operation in progress (e.g. "backup",
	// "prune", "move").
	With(field string, value any) Logger
}

// zapLogger adapts *zap.SugaredLogger to Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (z zapLogger) Debugf(format string, args ...any) { z.s.Debugf(format, args...) }
func (z zapLogger) Infof(format string, args ...any)  { z.s.Infof(format, args...) }
func (z zapLogger) Warnf(format string, args ...any)  { z.s.Warnf(format, args...) }
func (z zapLogger) Errorf(format string, args ...any) { z.s.Errorf(format, args...) }

func (z zapLogger) With(field string, value any) Logger {
	return zapLogger{s: z.s.With(field, value)}
}

// Config describes where log output should go, mirroring
// original_source/lib/logs.py's setup_log_file: a main log file, an
// optional warnings-only log file, and console echo when verbose.
type Config struct {
	// LogFile is the path of the main log file, or "" to disable file
	// logging.
	LogFile string

	// ErrorLogFile, if set, receives only Warn level and above, written
	// lazily so a quiet run never creates the file.
	ErrorLogFile string

	// Debug turns on debug-level output; otherwise the floor is Info.
	Debug bool

	// Console, when true, also writes human-readable output to stderr.
	// Color is used only when stderr is a real terminal.
	Console bool
}

// New builds a Logger from a Config. If the main log file cannot be
// opened, New returns a non-nil error, and cmd/vintagebackup then exits
// with status 1. The warnings-only file is opened on its first write, so
// a failure to open it is not reported by New.
func New(cfg Config) (Logger, func(), error) {
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	var cores []zapcore.Core
	var closers []func()

	fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, func() {}, err
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level))
		closers = append(closers, func() { f.Close() })
	}

	if cfg.ErrorLogFile != "" {
		cores = append(cores, zapcore.NewCore(fileEncoder, &lazyWriter{path: cfg.ErrorLogFile}, zapcore.WarnLevel))
	}

	if cfg.Console {
		consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
		consoleEncoderCfg.ConsoleSeparator = " "
		if isatty.IsTerminal(os.Stderr.Fd()) {
			consoleEncoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderCfg)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), level))
	}

	if len(cores) == 0 {
		cores = append(cores, zapcore.NewNopCore())
	}

	core := zapcore.NewTee(cores...)
	base := zap.New(core)
	cleanup := func() {
		base.Sync()
		for _, c := range closers {
			c()
		}
	}
	return zapLogger{s: base.Sugar()}, cleanup, nil
}

// lazyWriter opens its file on first write, matching Python's
// logging.FileHandler(delay=True) behavior used for the warnings-only log
// in original_source/lib/logs.py so a clean run never creates an empty file.
type lazyWriter struct {
	path string
	f    *os.File
}

func (w *lazyWriter) Write(p []byte) (int, error) {
	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return 0, err
		}
		w.f = f
	}
	return w.f.Write(p)
}

func (w *lazyWriter) Sync() error {
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

// Nop returns a Logger that discards everything, used in tests and as the
// default before setup_initial_null_logger's equivalent is wired.
func Nop() Logger {
	return zapLogger{s: zap.NewNop().Sugar()}
}
