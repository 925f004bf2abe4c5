// Package logging builds the service's zap logger and the optional Loki sink.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	Level       string // debug, info, warn, error
	Development bool
	LokiURL     string // base URL of a Loki instance; empty disables shipping
	Labels      map[string]string
}

// New builds a zap.Logger. When LokiURL is set, log entries are additionally
// batched and shipped to Loki in the background; the returned close function
// flushes and stops the shipper.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
	}

	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	if opts.LokiURL == "" {
		return logger, func() { _ = logger.Sync() }, nil
	}

	shipper := newLokiShipper(opts.LokiURL, opts.Labels)
	lokiCore := newLokiCore(level, shipper)
	logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, lokiCore)
	}))

	closeFn := func() {
		_ = logger.Sync()
		shipper.Close()
	}
	return logger, closeFn, nil
}
