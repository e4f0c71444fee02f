// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package binding

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/metrics"
)

const testContract = "0x44cB004a09224332d7Bc4161aeF9cEDbAe43991d"

func localConfig(backend *fakeBackend, engine fhevm.Engine) HostConfig {
	return HostConfig{
		Network:       fhevm.Localhost,
		EngineFactory: factoryFor(engine),
		Dialer:        dialerFor(backend),
	}
}

func newReadyHost(t *testing.T) (*Host, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{chainID: 31337}
	cfg := localConfig(backend, &fakeEngine{chainID: 31337, value: big.NewInt(42)})
	cfg.Signer = &fakeSigner{addr: common.HexToAddress("0x01")}
	h := NewHost(cfg)
	require.NoError(t, h.Configure(context.Background(), cfg))
	return h, backend
}

func TestHandleBeforeConfigure(t *testing.T) {
	h := NewHost(HostConfig{})
	handle := h.Handle()
	require.False(t, handle.Ready)
	require.Nil(t, handle.Client)
	require.Equal(t, fhevm.DefaultNetwork, handle.Network)
}

func TestConfigure(t *testing.T) {
	h, _ := newReadyHost(t)
	handle := h.Handle()
	require.True(t, handle.Ready)
	require.Equal(t, fhevm.Localhost, handle.Network)
	require.NotNil(t, handle.Caller)
}

func TestConfigureFailureLeavesNotReady(t *testing.T) {
	backend := &fakeBackend{chainID: 1}
	cfg := localConfig(backend, &fakeEngine{})
	h := NewHost(cfg)

	err := h.Configure(context.Background(), cfg)
	require.ErrorIs(t, err, fhevm.ErrEngineFailure)

	handle := h.Handle()
	require.NotNil(t, handle.Client)
	require.False(t, handle.Ready)
	require.Nil(t, handle.Caller)
}

func TestConfigureRejectedKeepsSession(t *testing.T) {
	require := require.New(t)
	h, _ := newReadyHost(t)
	before := h.Config()

	bad := before
	bad.Network = "mainnet"
	require.ErrorIs(h.Configure(context.Background(), bad), fhevm.ErrInvalidInput)

	handle := h.Handle()
	require.True(handle.Ready)
	require.Equal(fhevm.Localhost, handle.Network)
	require.Equal(before.Network, h.Config().Network)
}

func TestConfigureLastWriteWins(t *testing.T) {
	require := require.New(t)
	backend := &fakeBackend{chainID: 31337}
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	slow := localConfig(backend, nil)
	slow.EngineFactory = blockingFactory(&fakeEngine{}, started, release)
	h := NewHost(slow)

	slowErr := make(chan error, 1)
	go func() {
		slowErr <- h.Configure(context.Background(), slow)
	}()
	<-started

	fast := localConfig(backend, &fakeEngine{})
	fast.PublicKey = "newer"
	require.NoError(h.Configure(context.Background(), fast))

	close(release)
	require.ErrorIs(<-slowErr, ErrSuperseded)

	handle := h.Handle()
	require.True(handle.Ready)
	require.Equal("newer", handle.Client.NetworkConfig().PublicKey)
	require.Equal("newer", h.Config().PublicKey)
}

func TestCloseDiscardsPendingConfigure(t *testing.T) {
	backend := &fakeBackend{chainID: 31337}
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	cfg := localConfig(backend, nil)
	cfg.EngineFactory = blockingFactory(&fakeEngine{}, started, release)
	h := NewHost(cfg)

	errs := make(chan error, 1)
	go func() {
		errs <- h.Configure(context.Background(), cfg)
	}()
	<-started
	h.Close()
	close(release)

	require.ErrorIs(t, <-errs, ErrClosed)
	require.False(t, h.Handle().Ready)
	require.ErrorIs(t, h.Configure(context.Background(), cfg), ErrClosed)
}

func TestConfigureRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	backend := &fakeBackend{chainID: 31337}
	cfg := localConfig(backend, &fakeEngine{})
	cfg.Metrics = metrics.NewOperationMetrics(reg)
	h := NewHost(cfg)
	require.NoError(t, h.Configure(context.Background(), cfg))

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "initializations" {
			found = true
			require.Equal(t, 1.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	require.True(t, found)
}

func TestConfigureInvalidNetwork(t *testing.T) {
	h := NewHost(HostConfig{})
	err := h.Configure(context.Background(), HostConfig{Network: "mainnet", EngineFactory: factoryFor(&fakeEngine{})})
	require.True(t, errors.Is(err, fhevm.ErrInvalidInput))
	require.Nil(t, h.Handle().Client)
}
