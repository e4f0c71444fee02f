// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	luxlog "github.com/luxfi/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/binding"
	"github.com/luxfi/fhevm/config"
	"github.com/luxfi/fhevm/gateway"
	"github.com/luxfi/fhevm/metrics"
	"github.com/luxfi/fhevm/signer"
)

const (
	logFileMaxSizeMB  = 100
	logFileMaxBackups = 5
	logFileMaxAgeDays = 28
)

// loadConfig builds the configuration from the command's flags, the
// environment and the optional config file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return config.Config{}, fmt.Errorf("couldn't configure flags: %w", err)
	}
	cfg, err := config.NewConfig(v)
	if err != nil {
		return config.Config{}, fmt.Errorf("couldn't build config: %w", err)
	}
	return cfg, nil
}

// newLogger writes to stderr and, when a log file is configured, to a
// size-rotated file.
func newLogger(cfg config.Config, stderr io.Writer) (luxlog.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error reading log level from config: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	newEncoder := zapcore.NewConsoleEncoder
	if cfg.LogJSON {
		newEncoder = zapcore.NewJSONEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(encoderConfig), zapcore.AddSync(stderr), level),
	}
	if cfg.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotating), level))
	}
	return luxlog.NewZapLogger(zap.New(zapcore.NewTee(cores...))), nil
}

// loadSigner returns the environment's signer, or nil if none is configured.
func loadSigner(ctx context.Context, logger luxlog.Logger) (fhevm.Signer, error) {
	s, err := signer.FromEnv(ctx, signer.PromptPassword)
	switch {
	case errors.Is(err, signer.ErrNoKeySource):
		logger.Debug("no signer configured; decryption and contract writes are unavailable")
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load signer: %w", err)
	}
	logger.Debug("loaded signer", luxlog.Stringer("address", s.Address()))
	return s, nil
}

// session is an initialized host together with the pieces it was built from.
type session struct {
	cfg    config.Config
	log    luxlog.Logger
	host   *binding.Host
	signer fhevm.Signer
}

type sessionOptions struct {
	// requireSigner fails before dialing if no signer is configured.
	requireSigner bool
	metrics       *metrics.OperationMetrics
}

func hostConfig(cfg config.Config, logger luxlog.Logger, s fhevm.Signer, m *metrics.OperationMetrics) binding.HostConfig {
	hostCfg := cfg.GetHostConfig()
	hostCfg.Signer = s
	hostCfg.EngineFactory = gateway.Factory(logger, &http.Client{Timeout: cfg.HTTPTimeout})
	hostCfg.Contract.Log = logger
	hostCfg.Log = logger
	hostCfg.Metrics = m
	return hostCfg
}

// openSession loads the configuration and signer and initializes a session.
func openSession(cmd *cobra.Command, opts sessionOptions) (*session, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	s, err := loadSigner(ctx, logger)
	if err != nil {
		return nil, err
	}
	if s == nil && opts.requireSigner {
		return nil, fhevm.ErrSignerUnavailable
	}

	hostCfg := hostConfig(cfg, logger, s, opts.metrics)
	host := binding.NewHost(hostCfg)
	if err := host.Configure(ctx, hostCfg); err != nil {
		return nil, err
	}
	return &session{
		cfg:    cfg,
		log:    logger,
		host:   host,
		signer: s,
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
