// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package binding

import (
	"context"
	"errors"
	"math/big"
	"sync"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/geth/signer/core/apitypes"

	"github.com/luxfi/fhevm"
)

var errUnused = errors.New("unused")

type fakeEngine struct {
	chainID uint64
	value   *big.Int
}

func (*fakeEngine) Encrypt8(_ context.Context, v uint8) ([]byte, error) { return []byte{v}, nil }
func (*fakeEngine) Encrypt16(_ context.Context, v uint16) ([]byte, error) {
	return []byte{byte(v >> 8), byte(v)}, nil
}
func (*fakeEngine) Encrypt32(_ context.Context, v uint32) ([]byte, error) {
	return new(big.Int).SetUint64(uint64(v)).Bytes(), nil
}
func (*fakeEngine) Encrypt64(_ context.Context, v uint64) ([]byte, error) {
	return new(big.Int).SetUint64(v).Bytes(), nil
}
func (*fakeEngine) EncryptBool(_ context.Context, v bool) ([]byte, error) {
	if v {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}
func (*fakeEngine) EncryptAddress(_ context.Context, a common.Address) ([]byte, error) {
	return a.Bytes(), nil
}

func (e *fakeEngine) CreateEIP712(handle common.Hash, contract common.Address) (apitypes.TypedData, error) {
	return fhevm.NewReencryptTypedData(e.chainID, handle, contract), nil
}

func (e *fakeEngine) Reencrypt(context.Context, common.Hash, common.Address, []byte, common.Address) (*big.Int, error) {
	return e.value, nil
}

func (e *fakeEngine) PublicDecrypt(context.Context, common.Hash, common.Address) (*big.Int, error) {
	return e.value, nil
}

// fakeBackend reports a chain ID that tests can switch.
type fakeBackend struct {
	lock    sync.Mutex
	chainID uint64
}

func (b *fakeBackend) setChainID(id uint64) {
	b.lock.Lock()
	b.chainID = id
	b.lock.Unlock()
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return new(big.Int).SetUint64(b.chainID), nil
}

func (*fakeBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errUnused
}

func (*fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 0, errUnused
}

func (*fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, errUnused
}

func (*fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return nil, errUnused }

func (*fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return nil, errUnused
}

func (*fakeBackend) SendTransaction(context.Context, *types.Transaction) error { return errUnused }

func (*fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, errUnused
}

func dialerFor(b *fakeBackend) fhevm.Dialer {
	return func(context.Context, string) (fhevm.Backend, error) {
		return b, nil
	}
}

func factoryFor(e fhevm.Engine) fhevm.EngineFactory {
	return func(context.Context, fhevm.EngineConfig) (fhevm.Engine, error) {
		return e, nil
	}
}

// blockingFactory holds each engine creation until release is closed.
func blockingFactory(e fhevm.Engine, started chan<- struct{}, release <-chan struct{}) fhevm.EngineFactory {
	return func(ctx context.Context, _ fhevm.EngineConfig) (fhevm.Engine, error) {
		started <- struct{}{}
		select {
		case <-release:
			return e, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type fakeSigner struct {
	addr common.Address
}

func (s *fakeSigner) Address() common.Address { return s.addr }

func (*fakeSigner) SignTypedData(context.Context, apitypes.TypedData) ([]byte, error) {
	return []byte{1, 2, 3}, nil
}

func (*fakeSigner) SignTx(_ context.Context, tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

type fakeWallet struct {
	lock     sync.Mutex
	accounts []common.Address
}

func (w *fakeWallet) setAccounts(accounts ...common.Address) {
	w.lock.Lock()
	w.accounts = accounts
	w.lock.Unlock()
}

func (w *fakeWallet) Accounts(context.Context) ([]common.Address, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]common.Address(nil), w.accounts...), nil
}

func (*fakeWallet) ForAccount(account common.Address) fhevm.Signer {
	return &fakeSigner{addr: account}
}
