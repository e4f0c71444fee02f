// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package binding owns the single FHEVM session of an application and exposes
// it to independent operations, each with its own loading and error state.
package binding

import (
	"context"
	"errors"
	"sync"

	"github.com/luxfi/log"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/contract"
	"github.com/luxfi/fhevm/metrics"
)

var (
	ErrClosed     = errors.New("host is closed")
	ErrSuperseded = errors.New("initialization superseded by a newer configuration")
)

// HostConfig describes one session. Log, Metrics and OpLogSize are read by
// NewHost only; Configure uses the remaining fields.
type HostConfig struct {
	Network       fhevm.Network
	RPCURL        string
	GatewayURL    string
	PublicKey     string
	Signer        fhevm.Signer
	EngineFactory fhevm.EngineFactory
	Dialer        fhevm.Dialer
	Contract      contract.Config

	Log       log.Logger
	Metrics   *metrics.OperationMetrics
	OpLogSize int
}

// Handle is a read-only snapshot of the session.
type Handle struct {
	Client  *fhevm.Client
	Caller  *contract.Caller
	Ready   bool
	Network fhevm.Network
}

// Host holds the application's session. Configure replaces it; a
// configuration that finishes after a newer one started, or after Close, is
// discarded.
type Host struct {
	log     log.Logger
	metrics *metrics.OperationMetrics
	opLog   *OpLog

	lock       sync.RWMutex
	cfg        HostConfig
	generation uint64
	closed     bool
	client     *fhevm.Client
	caller     *contract.Caller
}

func NewHost(cfg HostConfig) *Host {
	logger := cfg.Log
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Host{
		log:     logger,
		metrics: cfg.Metrics,
		opLog:   NewOpLog(cfg.OpLogSize),
		cfg:     cfg,
	}
}

// Configure builds and initializes a session for cfg and installs it if no
// newer Configure call has started in the meantime. A failed initialization
// still installs the uninitialized client, so the handle reports not ready.
func (h *Host) Configure(ctx context.Context, cfg HostConfig) error {
	// A rejected configuration leaves the current session and its config
	// untouched.
	client, err := fhevm.NewClient(fhevm.ClientConfig{
		Network:       cfg.Network,
		RPCURL:        cfg.RPCURL,
		GatewayURL:    cfg.GatewayURL,
		PublicKey:     cfg.PublicKey,
		Signer:        cfg.Signer,
		EngineFactory: cfg.EngineFactory,
		Dialer:        cfg.Dialer,
		Log:           h.log,
	})
	if err != nil {
		return err
	}

	h.lock.Lock()
	if h.closed {
		h.lock.Unlock()
		return ErrClosed
	}
	h.generation++
	generation := h.generation
	h.cfg = cfg
	h.lock.Unlock()

	initErr := client.Init(ctx)
	h.metrics.Initialized(initErr)

	var caller *contract.Caller
	if initErr == nil {
		contractCfg := cfg.Contract
		if contractCfg.Log == nil {
			contractCfg.Log = h.log
		}
		caller, err = contract.FromClient(client, contractCfg)
		if err != nil {
			return err
		}
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	if h.closed {
		return ErrClosed
	}
	if generation != h.generation {
		h.log.Debug("discarding stale initialization",
			"generation", generation,
			"current", h.generation,
		)
		return ErrSuperseded
	}
	h.client = client
	h.caller = caller
	if initErr != nil {
		h.log.Warn("FHEVM session not ready",
			log.Stringer("network", client.Network()),
			log.Err(initErr),
		)
		return initErr
	}
	return nil
}

func (h *Host) Handle() Handle {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if h.client == nil {
		network := h.cfg.Network
		if network == "" {
			network = fhevm.DefaultNetwork
		}
		return Handle{Network: network}
	}
	return Handle{
		Client:  h.client,
		Caller:  h.caller,
		Ready:   h.client.IsInitialized(),
		Network: h.client.Network(),
	}
}

// Config returns the most recent configuration accepted by Configure, or the
// one given to NewHost.
func (h *Host) Config() HostConfig {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.cfg
}

func (h *Host) OpLog() *OpLog {
	return h.opLog
}

// Close detaches the host. Pending Configure calls and running operations
// finish without changing any state.
func (h *Host) Close() {
	h.lock.Lock()
	h.closed = true
	h.lock.Unlock()
}

func (h *Host) isClosed() bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.closed
}
