// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	luxlog "github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/api"
	"github.com/luxfi/fhevm/binding"
	"github.com/luxfi/fhevm/config"
	"github.com/luxfi/fhevm/gateway"
	"github.com/luxfi/fhevm/healthcheck"
	"github.com/luxfi/fhevm/metrics"
)

const (
	metricsPrefix   = "fhevm"
	shutdownTimeout = 10 * time.Second
	readTimeout     = 30 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation API, health check and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger luxlog.Logger) error {
	logger.Info("Initializing FHEVM server",
		"network", cfg.Network,
		"apiPort", cfg.APIPort,
		"metricsPort", cfg.MetricsPort,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registerer := prometheus.WrapRegistererWithPrefix(metricsPrefix+"_", registry)
	opMetrics := metrics.NewOperationMetrics(registerer)
	apiMetrics := metrics.NewAPIMetrics(registerer)

	s, err := loadSigner(ctx, logger)
	if err != nil {
		return err
	}
	hostCfg := hostConfig(cfg, logger, s, opMetrics)
	host := binding.NewHost(hostCfg)
	defer host.Close()

	// The server keeps running without a session; the watcher and
	// POST /api/fhe init retry.
	if err := host.Configure(ctx, hostCfg); err != nil {
		logger.Warn("Failed to initialize FHEVM session", luxlog.Err(err))
	}

	gw, err := newKeyGateway(cfg, logger)
	if err != nil {
		return err
	}
	ready := func() bool { return host.Handle().Ready }
	initOp := binding.NewInitOp(host)

	router, err := api.NewRouter(api.Config{
		Log:     logger,
		Metrics: apiMetrics,
		Network: cfg.GetNetwork(),
		Keys:    gw,
		Ready:   ready,
		Init: func(ctx context.Context) error {
			_, err := initOp.Init(ctx)
			return err
		},
		OpLog:      host.OpLog(),
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,
		Health:     healthcheck.NewHandler(healthcheck.NewChecker(ready, gw)),
	})
	if err != nil {
		return err
	}

	var wallet binding.Wallet
	if w, ok := s.(binding.Wallet); ok {
		wallet = w
	}
	watcher := binding.NewWatcher(host, wallet, cfg.WatchInterval)

	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.Go(func() error {
		return watcher.Run(ctx)
	})
	errGroup.Go(func() error {
		return runServer(ctx, logger, "API", cfg.APIPort, router)
	})
	errGroup.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(registry))
		return runServer(ctx, logger, "metrics", cfg.MetricsPort, mux)
	})

	logger.Info("Initialization complete")
	if err := errGroup.Wait(); err != nil {
		logger.Error("Exited with error", luxlog.Err(err))
		return err
	}
	logger.Info("Shut down")
	return nil
}

// newKeyGateway builds the gateway client used for key availability and the
// health check of the configured network.
func newKeyGateway(cfg config.Config, logger luxlog.Logger) (*gateway.Client, error) {
	netCfg, ok := fhevm.GetNetworkConfig(cfg.GetNetwork())
	if !ok {
		return nil, fmt.Errorf("%w: unknown network %q", fhevm.ErrInvalidInput, cfg.Network)
	}
	if cfg.GatewayURL != "" {
		netCfg.GatewayURL = cfg.GatewayURL
	}
	return gateway.New(gateway.Config{
		URL:        netCfg.GatewayURL,
		ChainID:    netCfg.ChainID,
		PublicKey:  cfg.PublicKey,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Log:        logger,
	})
}

func runServer(ctx context.Context, logger luxlog.Logger, name string, port uint16, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: readTimeout,
	}
	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting server", "name", name, "port", port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s server: %w", name, err)
	}
	return nil
}
