// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package binding

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/contract"
)

func TestOperationsBeforeConfigure(t *testing.T) {
	h := NewHost(HostConfig{})
	ctx := context.Background()

	enc := NewEncryptOp(h)
	_, err := enc.Encrypt(ctx, fhevm.Euint8, "1")
	require.ErrorIs(t, err, fhevm.ErrNotInitialized)
	require.False(t, enc.IsLoading())
	require.ErrorIs(t, enc.Err(), fhevm.ErrNotInitialized)

	read := NewReadOp(h)
	_, err = read.Read(ctx, contract.ReadParams{Address: testContract})
	require.ErrorIs(t, err, fhevm.ErrNotInitialized)

	write := NewWriteOp(h)
	_, err = write.Write(ctx, contract.WriteParams{Address: testContract})
	require.ErrorIs(t, err, fhevm.ErrNotInitialized)

	entries := h.OpLog().Entries()
	require.Len(t, entries, 3)
	for _, e := range entries {
		require.False(t, e.Success)
		require.NotEmpty(t, e.Error)
	}
}

func TestOperationsHaveIndependentState(t *testing.T) {
	require := require.New(t)
	h, _ := newReadyHost(t)
	ctx := context.Background()

	good := NewEncryptOp(h)
	bad := NewEncryptOp(h)

	res, err := good.Encrypt(ctx, fhevm.Euint32, "4294967295")
	require.NoError(err)
	require.Equal(fhevm.Euint32, res.Type)

	_, err = bad.Encrypt(ctx, fhevm.Euint32, "4294967296")
	require.ErrorIs(err, fhevm.ErrInvalidInput)

	require.NoError(good.Err())
	require.Same(res, good.Result())
	require.ErrorIs(bad.Err(), fhevm.ErrInvalidInput)
	require.Nil(bad.Result())

	entries := h.OpLog().Entries()
	require.Len(entries, 2)
	require.True(entries[0].Success)
	require.Equal(KindEncrypt, entries[0].Kind)
	require.Equal("euint32 4294967295", entries[0].InputSummary)
	require.False(entries[1].Success)
	require.NotEqual(entries[0].ID, entries[1].ID)
}

func TestDecryptOps(t *testing.T) {
	require := require.New(t)
	h, _ := newReadyHost(t)
	ctx := context.Background()
	handle := common.HexToHash("0x01")

	dec := NewDecryptOp(h)
	v, err := dec.Decrypt(ctx, handle, testContract)
	require.NoError(err)
	require.Equal(big.NewInt(42), v)

	_, err = dec.Decrypt(ctx, handle, "0xabc")
	require.ErrorIs(err, fhevm.ErrInvalidInput)
	require.ErrorIs(dec.Err(), fhevm.ErrInvalidInput)

	pub := NewPublicDecryptOp(h)
	v, err = pub.PublicDecrypt(ctx, handle, testContract)
	require.NoError(err)
	require.Equal(big.NewInt(42), v)
	require.NoError(pub.Err())

	kinds := []EntryKind{}
	for _, e := range h.OpLog().Entries() {
		kinds = append(kinds, e.Kind)
	}
	require.Equal([]EntryKind{KindDecrypt, KindDecrypt, KindPublicDecrypt}, kinds)
}

func TestOperationLoading(t *testing.T) {
	h, _ := newReadyHost(t)
	op := newOperation[int](h, KindContractRead)

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = op.Run(context.Background(), "slow", func(context.Context, Handle) (int, error) {
			close(started)
			<-release
			return 0, errors.New("failed")
		})
	}()
	<-started
	require.True(t, op.IsLoading())
	close(release)
	wg.Wait()
	require.False(t, op.IsLoading())
	require.EqualError(t, op.Err(), "failed")

	// A later success clears the previous error.
	_, err := op.Run(context.Background(), "fast", func(context.Context, Handle) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	require.NoError(t, op.Err())
	require.Equal(t, 7, op.Result())
}

func TestOperationAfterClose(t *testing.T) {
	h, _ := newReadyHost(t)
	op := NewEncryptOp(h)
	h.Close()

	res, err := op.Encrypt(context.Background(), fhevm.Ebool, "true")
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Nil(t, op.Result())
	require.False(t, op.IsLoading())
	require.Zero(t, h.OpLog().Len())
}

func TestOperationPanicClearsLoading(t *testing.T) {
	require := require.New(t)
	h, _ := newReadyHost(t)
	op := newOperation[int](h, KindContractWrite)

	require.Panics(func() {
		_, _ = op.Run(context.Background(), "boom", func(context.Context, Handle) (int, error) {
			panic("engine crashed")
		})
	})
	require.False(op.IsLoading())
	require.ErrorIs(op.Err(), errOperationPanicked)

	entries := h.OpLog().Entries()
	require.Len(entries, 1)
	require.False(entries[0].Success)
}

func TestInitOp(t *testing.T) {
	require := require.New(t)
	backend := &fakeBackend{chainID: 31337}
	var gatewayUp atomic.Bool
	cfg := localConfig(backend, nil)
	cfg.EngineFactory = func(context.Context, fhevm.EngineConfig) (fhevm.Engine, error) {
		if !gatewayUp.Load() {
			return nil, errors.New("gateway unreachable")
		}
		return &fakeEngine{chainID: 31337}, nil
	}
	h := NewHost(cfg)
	op := NewInitOp(h)
	ctx := context.Background()

	ran, err := op.Init(ctx)
	require.True(ran)
	require.ErrorIs(err, fhevm.ErrEngineFailure)
	require.False(h.Handle().Ready)

	gatewayUp.Store(true)
	ran, err = op.Init(ctx)
	require.NoError(err)
	require.True(ran)
	require.True(h.Handle().Ready)

	ran, err = op.Init(ctx)
	require.NoError(err)
	require.False(ran)

	entries := h.OpLog().Entries()
	require.Len(entries, 3)
	for _, e := range entries {
		require.Equal(KindInit, e.Kind)
		require.Equal("localhost", e.InputSummary)
	}
	require.False(entries[0].Success)
	require.True(entries[1].Success)
}
