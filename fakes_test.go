// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/geth/signer/core/apitypes"
)

type fakeEngine struct {
	calls       atomic.Int64
	chainID     uint64
	err         error
	value       *big.Int
	lastSig     []byte
	lastUser    common.Address
	lastPayload string
	mu          sync.Mutex
}

func (e *fakeEngine) encrypt(tag string) ([]byte, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	e.mu.Lock()
	e.lastPayload = tag
	e.mu.Unlock()
	return []byte(tag), nil
}

func (e *fakeEngine) Encrypt8(_ context.Context, v uint8) ([]byte, error) {
	return e.encrypt("u8:" + big.NewInt(int64(v)).String())
}

func (e *fakeEngine) Encrypt16(_ context.Context, v uint16) ([]byte, error) {
	return e.encrypt("u16:" + big.NewInt(int64(v)).String())
}

func (e *fakeEngine) Encrypt32(_ context.Context, v uint32) ([]byte, error) {
	return e.encrypt("u32:" + big.NewInt(int64(v)).String())
}

func (e *fakeEngine) Encrypt64(_ context.Context, v uint64) ([]byte, error) {
	return e.encrypt("u64:" + new(big.Int).SetUint64(v).String())
}

func (e *fakeEngine) EncryptBool(_ context.Context, v bool) ([]byte, error) {
	if v {
		return e.encrypt("bool:true")
	}
	return e.encrypt("bool:false")
}

func (e *fakeEngine) EncryptAddress(_ context.Context, a common.Address) ([]byte, error) {
	return e.encrypt("addr:" + a.Hex())
}

func (e *fakeEngine) CreateEIP712(handle common.Hash, contract common.Address) (apitypes.TypedData, error) {
	e.calls.Add(1)
	return NewReencryptTypedData(e.chainID, handle, contract), nil
}

func (e *fakeEngine) Reencrypt(_ context.Context, _ common.Hash, _ common.Address, sig []byte, user common.Address) (*big.Int, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	e.mu.Lock()
	e.lastSig = sig
	e.lastUser = user
	e.mu.Unlock()
	return e.value, nil
}

func (e *fakeEngine) PublicDecrypt(context.Context, common.Hash, common.Address) (*big.Int, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return e.value, nil
}

type fakeBackend struct {
	chainID *big.Int
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) { return b.chainID, nil }

func (*fakeBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (*fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 0, errors.New("not implemented")
}

func (*fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 0, nil }

func (*fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (*fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{}, nil
}

func (*fakeBackend) SendTransaction(context.Context, *types.Transaction) error { return nil }

func (*fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

type fakeSigner struct {
	addr common.Address
	err  error
	seen []apitypes.TypedData
}

func (s *fakeSigner) Address() common.Address { return s.addr }

func (s *fakeSigner) SignTypedData(_ context.Context, td apitypes.TypedData) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.seen = append(s.seen, td)
	return []byte{0xde, 0xad, 0xbe, 0xef}, nil
}

func (s *fakeSigner) SignTx(_ context.Context, tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, s.err
}

type codedError struct {
	code int
}

func (e codedError) Error() string  { return "wallet error" }
func (e codedError) ErrorCode() int { return e.code }

func dialerFor(chainID uint64) Dialer {
	return func(context.Context, string) (Backend, error) {
		return &fakeBackend{chainID: new(big.Int).SetUint64(chainID)}, nil
	}
}

func factoryFor(engine Engine) EngineFactory {
	return func(context.Context, EngineConfig) (Engine, error) {
		return engine, nil
	}
}
