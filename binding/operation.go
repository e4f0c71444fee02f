// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package binding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/contract"
)

var errOperationPanicked = errors.New("operation panicked")

// RunFunc performs the work of an operation against the current session.
type RunFunc[T any] func(ctx context.Context, h Handle) (T, error)

// Operation tracks the loading and error state of one kind of work. Separate
// operations never share state, even when bound to the same host.
type Operation[T any] struct {
	host *Host
	kind EntryKind

	// unbound operations run even when no session was ever configured.
	unbound bool

	lock    sync.RWMutex
	running int
	err     error
	result  T
}

func newOperation[T any](host *Host, kind EntryKind) *Operation[T] {
	return &Operation[T]{host: host, kind: kind}
}

// Run executes fn and records its outcome. Loading is cleared exactly once per
// call on every path, including a panic in fn, which is recorded as a failure
// and then propagated. Results that arrive after the host closed are returned
// to the caller but not recorded.
func (o *Operation[T]) Run(ctx context.Context, summary string, fn RunFunc[T]) (result T, err error) {
	o.lock.Lock()
	o.running++
	o.err = nil
	o.lock.Unlock()

	kind := string(o.kind)
	o.host.metrics.Started(kind)
	started := time.Now()

	returned := false
	defer func() {
		if !returned {
			err = errOperationPanicked
		}
		o.finish(summary, started, result, err)
	}()

	h := o.host.Handle()
	if h.Client == nil && !o.unbound {
		err = &fhevm.Error{Kind: fhevm.KindNotInitialized, Op: kind, Message: fhevm.ErrNotInitialized.Message}
	} else {
		result, err = fn(ctx, h)
	}
	returned = true
	return result, err
}

func (o *Operation[T]) finish(summary string, started time.Time, result T, err error) {
	kind := string(o.kind)
	elapsed := time.Since(started)
	o.host.metrics.Finished(kind, elapsed, err)

	closed := o.host.isClosed()
	if !closed {
		entry := Entry{
			Kind:         o.kind,
			InputSummary: summary,
			Started:      started,
			Duration:     elapsed,
			Success:      err == nil,
		}
		if err != nil {
			entry.Error = err.Error()
			o.host.log.Debug("operation failed",
				"kind", kind,
				"input", summary,
				log.Err(err),
			)
		}
		o.host.opLog.Append(entry)
	}

	o.lock.Lock()
	defer o.lock.Unlock()
	o.running--
	if !closed {
		o.err = err
		if err == nil {
			o.result = result
		}
	}
}

func (o *Operation[T]) IsLoading() bool {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.running > 0
}

// Err returns the error of the most recently finished run, or nil.
func (o *Operation[T]) Err() error {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.err
}

// Result returns the value of the most recent successful run.
func (o *Operation[T]) Result() T {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.result
}

func (o *Operation[T]) Kind() EntryKind {
	return o.kind
}

type EncryptOp struct {
	*Operation[*fhevm.EncryptionResult]
}

func NewEncryptOp(host *Host) *EncryptOp {
	return &EncryptOp{newOperation[*fhevm.EncryptionResult](host, KindEncrypt)}
}

// Encrypt encrypts value, given in its textual form, as type t. Unsigned
// values accept decimal or 0x hex; booleans accept "true" and "false".
func (o *EncryptOp) Encrypt(ctx context.Context, t fhevm.EncryptedType, value string) (*fhevm.EncryptionResult, error) {
	summary := fmt.Sprintf("%s %s", t, fhevm.SanitizeInput(value))
	return o.Run(ctx, summary, func(ctx context.Context, h Handle) (*fhevm.EncryptionResult, error) {
		return h.Client.EncryptValue(ctx, t, value)
	})
}

type DecryptOp struct {
	*Operation[*big.Int]
}

func NewDecryptOp(host *Host) *DecryptOp {
	return &DecryptOp{newOperation[*big.Int](host, KindDecrypt)}
}

func (o *DecryptOp) Decrypt(ctx context.Context, handle common.Hash, contractAddress string) (*big.Int, error) {
	summary := fmt.Sprintf("%s@%s", handle.Hex(), contractAddress)
	return o.Run(ctx, summary, func(ctx context.Context, h Handle) (*big.Int, error) {
		return h.Client.Decrypt(ctx, handle, contractAddress)
	})
}

type PublicDecryptOp struct {
	*Operation[*big.Int]
}

func NewPublicDecryptOp(host *Host) *PublicDecryptOp {
	return &PublicDecryptOp{newOperation[*big.Int](host, KindPublicDecrypt)}
}

func (o *PublicDecryptOp) PublicDecrypt(ctx context.Context, handle common.Hash, contractAddress string) (*big.Int, error) {
	summary := fmt.Sprintf("%s@%s", handle.Hex(), contractAddress)
	return o.Run(ctx, summary, func(ctx context.Context, h Handle) (*big.Int, error) {
		return h.Client.PublicDecrypt(ctx, handle, contractAddress)
	})
}

type ReadOp struct {
	*Operation[[]any]
}

func NewReadOp(host *Host) *ReadOp {
	return &ReadOp{newOperation[[]any](host, KindContractRead)}
}

func (o *ReadOp) Read(ctx context.Context, p contract.ReadParams) ([]any, error) {
	summary := fmt.Sprintf("%s.%s(%d args)", p.Address, p.Method, len(p.Args))
	return o.Run(ctx, summary, func(ctx context.Context, h Handle) ([]any, error) {
		if h.Caller == nil {
			return nil, &fhevm.Error{Kind: fhevm.KindNotInitialized, Op: string(KindContractRead), Message: fhevm.ErrNotInitialized.Message}
		}
		return h.Caller.Read(ctx, p)
	})
}

type WriteOp struct {
	*Operation[*types.Receipt]
}

func NewWriteOp(host *Host) *WriteOp {
	return &WriteOp{newOperation[*types.Receipt](host, KindContractWrite)}
}

func (o *WriteOp) Write(ctx context.Context, p contract.WriteParams) (*types.Receipt, error) {
	summary := fmt.Sprintf("%s.%s(%d args)", p.Address, p.Method, len(p.Args))
	return o.Run(ctx, summary, func(ctx context.Context, h Handle) (*types.Receipt, error) {
		if h.Caller == nil {
			return nil, &fhevm.Error{Kind: fhevm.KindNotInitialized, Op: string(KindContractWrite), Message: fhevm.ErrNotInitialized.Message}
		}
		return h.Caller.Write(ctx, p)
	})
}

// InitOp (re)initializes the host's session with its current configuration.
type InitOp struct {
	*Operation[bool]
}

func NewInitOp(host *Host) *InitOp {
	op := newOperation[bool](host, KindInit)
	op.unbound = true
	return &InitOp{op}
}

// Init configures the host again unless its session is already ready. The
// result reports whether Configure ran.
func (o *InitOp) Init(ctx context.Context) (bool, error) {
	cfg := o.host.Config()
	summary := cfg.Network.String()
	if cfg.Network == "" {
		summary = fhevm.DefaultNetwork.String()
	}
	return o.Run(ctx, summary, func(ctx context.Context, h Handle) (bool, error) {
		if h.Ready {
			return false, nil
		}
		return true, o.host.Configure(ctx, cfg)
	})
}
