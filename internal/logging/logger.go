// Package logging constructs the zap logger used across the pipeline:
// human-readable console output by default, JSON for machine consumption,
// with an optional file sink.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction. Zero value gives console output at
// Info level with no file sink.
type Options struct {
	JSON    bool   // Structured JSON output instead of console.
	Verbose bool   // Enable Debug level.
	LogFile string // Optional path; logs are appended to this file as well.
}

// New builds a sugared logger per opts. The returned close func flushes
// buffers and closes the file sink if one was opened; call it on shutdown.
func New(opts Options) (*zap.SugaredLogger, func(), error) {
	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	consoleEnc := newEncoder(opts.JSON)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.AddSync(os.Stdout), level),
	}

	var file *os.File
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		file = f
		// The file sink always uses JSON so logs stay greppable regardless
		// of console settings.
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(f), level))
	}

	logger := zap.New(zapcore.NewTee(cores...)).Sugar()

	closeFn := func() {
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger, closeFn, nil
}

func newEncoder(json bool) zapcore.Encoder {
	if json {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// NewNop returns a no-op logger for tests and early startup.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
