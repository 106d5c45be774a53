package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const AppName = "alexandria"

// LogConfig controls where diagnostics go. Level is one of none, normal or
// debug. The terminal UI owns the screen, so it only ever logs to File.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
	Mode  string `toml:"mode"` // append or overwrite
}

func levelFor(name string) (zapcore.Level, bool) {
	switch name {
	case "debug":
		return zapcore.DebugLevel, true
	case "normal":
		return zapcore.InfoLevel, true
	}
	return zapcore.InfoLevel, false
}

// PrepareLogger builds the program logger. With console set, messages are
// written to stderr as well. The returned function flushes and closes the
// log file.
func (conf LogConfig) PrepareLogger(console bool) (*zap.Logger, func() error, error) {
	level, enabled := levelFor(conf.Level)
	if !enabled {
		return zap.NewNop(), func() error { return nil }, nil
	}

	cores := []zapcore.Core{}
	closers := []func() error{}

	if console {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		ec.TimeKey = zapcore.OmitKey
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), level))
	}

	if conf.File != "" {
		flags := os.O_CREATE | os.O_WRONLY
		if conf.Mode == "append" {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		path := ExpandPath(conf.File)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("unable to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, flags, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to access log destination (%s): %w", path, err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(f), level))
		closers = append(closers, f.Close)
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named(AppName)
	closeFn := func() error {
		_ = logger.Sync()
		var err error
		for _, c := range closers {
			err = multierr.Append(err, c())
		}
		return err
	}
	return logger, closeFn, nil
}
