// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/signer"
)

const testABI = `[
	{"type":"function","name":"get","stateMutability":"view",
	 "inputs":[{"name":"id","type":"uint256"}],
	 "outputs":[{"name":"value","type":"uint256"},{"name":"label","type":"string"}]},
	{"type":"function","name":"set","stateMutability":"nonpayable",
	 "inputs":[{"name":"id","type":"uint256"},{"name":"value","type":"uint32"}],
	 "outputs":[]}
]`

const testAddress = "0x44cB004a09224332d7Bc4161aeF9cEDbAe43991d"

type fakeBackend struct {
	mu          sync.Mutex
	chainID     *big.Int
	callOutput  []byte
	estimate    uint64
	estimateErr error
	baseFee     *big.Int
	tip         *big.Int
	nonce       uint64
	sent        []*types.Transaction
	sendErr     error
	pending     int
	status      uint64
	lastCall    ethereum.CallMsg
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) { return b.chainID, nil }

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastCall = msg
	return b.callOutput, nil
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return b.estimate, b.estimateErr
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return b.tip, nil }

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: b.baseFee}, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	b.nonce++
	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending > 0 {
		b.pending--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: hash, Status: b.status, BlockNumber: big.NewInt(10)}, nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(31337),
		estimate: 100000,
		baseFee:  big.NewInt(10),
		tip:      big.NewInt(2),
		status:   types.ReceiptStatusSuccessful,
	}
}

func newSigner(t *testing.T) fhevm.Signer {
	t.Helper()
	s, err := signer.GenerateKeySigner()
	require.NoError(t, err)
	return s
}

func TestRead(t *testing.T) {
	require := require.New(t)
	parsed, err := abi.JSON(strings.NewReader(testABI))
	require.NoError(err)
	out, err := parsed.Methods["get"].Outputs.Pack(big.NewInt(5), "wheat")
	require.NoError(err)

	backend := newBackend()
	backend.callOutput = out
	c, err := NewCaller(backend, nil, Config{})
	require.NoError(err)

	values, err := c.Read(context.Background(), ReadParams{
		Address: testAddress,
		ABI:     testABI,
		Method:  "get",
		Args:    []any{big.NewInt(1)},
	})
	require.NoError(err)
	require.Equal([]any{big.NewInt(5), "wheat"}, values)
	require.Equal(common.HexToAddress(testAddress), *backend.lastCall.To)
}

func TestValidationPrecedesSubmission(t *testing.T) {
	tests := []struct {
		name   string
		params WriteParams
		signer bool
		kind   fhevm.Kind
	}{
		{
			name:   "bad address",
			params: WriteParams{Address: "0x12", ABI: testABI, Method: "set", Args: []any{big.NewInt(1), uint32(2)}},
			signer: true,
			kind:   fhevm.KindInvalidInput,
		},
		{
			name:   "no signer",
			params: WriteParams{Address: testAddress, ABI: testABI, Method: "set", Args: []any{big.NewInt(1), uint32(2)}},
			kind:   fhevm.KindSignerUnavailable,
		},
		{
			name:   "bad abi",
			params: WriteParams{Address: testAddress, ABI: "{", Method: "set"},
			signer: true,
			kind:   fhevm.KindInvalidInput,
		},
		{
			name:   "unknown method",
			params: WriteParams{Address: testAddress, ABI: testABI, Method: "burn"},
			signer: true,
			kind:   fhevm.KindInvalidInput,
		},
		{
			name:   "arg count",
			params: WriteParams{Address: testAddress, ABI: testABI, Method: "set", Args: []any{big.NewInt(1)}},
			signer: true,
			kind:   fhevm.KindInvalidInput,
		},
		{
			name:   "arg type",
			params: WriteParams{Address: testAddress, ABI: testABI, Method: "set", Args: []any{"one", uint32(2)}},
			signer: true,
			kind:   fhevm.KindInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newBackend()
			var s fhevm.Signer
			if tt.signer {
				s = newSigner(t)
			}
			c, err := NewCaller(backend, s, Config{})
			require.NoError(t, err)

			_, err = c.Write(context.Background(), tt.params)
			require.Equal(t, tt.kind, fhevm.KindOf(err))
			require.Empty(t, backend.sent)
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	require := require.New(t)
	backend := newBackend()
	backend.nonce = 7
	backend.pending = 1
	s := newSigner(t)
	c, err := NewCaller(backend, s, Config{MaxPriorityFeePerGas: big.NewInt(1)})
	require.NoError(err)

	receipt, err := c.Write(context.Background(), WriteParams{
		Address: testAddress,
		ABI:     testABI,
		Method:  "set",
		Args:    []any{big.NewInt(1), uint32(2)},
	})
	require.NoError(err)
	require.Equal(types.ReceiptStatusSuccessful, receipt.Status)

	require.Len(backend.sent, 1)
	tx := backend.sent[0]
	require.Equal(uint64(7), tx.Nonce())
	require.Equal(uint64(120000), tx.Gas())
	require.Equal(big.NewInt(1), tx.GasTipCap())
	require.Equal(big.NewInt(31), tx.GasFeeCap())
	require.Equal(types.DynamicFeeTxType, int(tx.Type()))

	from, err := types.Sender(types.LatestSignerForChainID(backend.chainID), tx)
	require.NoError(err)
	require.Equal(s.Address(), from)
}

func TestWriteReverted(t *testing.T) {
	require := require.New(t)
	backend := newBackend()
	backend.status = types.ReceiptStatusFailed
	c, err := NewCaller(backend, newSigner(t), Config{})
	require.NoError(err)

	receipt, err := c.Write(context.Background(), WriteParams{
		Address: testAddress,
		ABI:     testABI,
		Method:  "set",
		Args:    []any{big.NewInt(1), uint32(2)},
	})
	require.ErrorIs(err, fhevm.ErrTransactionFailed)
	require.NotNil(receipt)

	var receiptErr *ReceiptError
	require.True(errors.As(err, &receiptErr))
	require.Equal(receipt, receiptErr.Receipt)
}

func TestWriteSubmissionErrors(t *testing.T) {
	t.Run("estimate revert", func(t *testing.T) {
		backend := newBackend()
		backend.estimateErr = errors.New("execution reverted: policy inactive")
		c, err := NewCaller(backend, newSigner(t), Config{})
		require.NoError(t, err)
		_, err = c.Write(context.Background(), WriteParams{
			Address: testAddress, ABI: testABI, Method: "set", Args: []any{big.NewInt(1), uint32(2)},
		})
		require.ErrorIs(t, err, fhevm.ErrEngineFailure)
		require.ErrorContains(t, err, "policy inactive")
	})
	t.Run("send failure", func(t *testing.T) {
		backend := newBackend()
		backend.sendErr = errors.New("nonce too low")
		c, err := NewCaller(backend, newSigner(t), Config{})
		require.NoError(t, err)
		_, err = c.Write(context.Background(), WriteParams{
			Address: testAddress, ABI: testABI, Method: "set", Args: []any{big.NewInt(1), uint32(2)},
		})
		require.ErrorIs(t, err, fhevm.ErrEngineFailure)
	})
	t.Run("receipt timeout", func(t *testing.T) {
		backend := newBackend()
		backend.pending = 1 << 20
		c, err := NewCaller(backend, newSigner(t), Config{ReceiptTimeout: 100 * time.Millisecond})
		require.NoError(t, err)
		_, err = c.Write(context.Background(), WriteParams{
			Address: testAddress, ABI: testABI, Method: "set", Args: []any{big.NewInt(1), uint32(2)},
		})
		require.ErrorIs(t, err, fhevm.ErrEngineFailure)
	})
}

func TestParseABICached(t *testing.T) {
	require := require.New(t)
	c, err := NewCaller(newBackend(), nil, Config{})
	require.NoError(err)

	a, err := c.ParseABI(context.Background(), testABI)
	require.NoError(err)
	b, err := c.ParseABI(context.Background(), testABI)
	require.NoError(err)
	require.Same(a, b)
}

func TestNewCallerValidation(t *testing.T) {
	_, err := NewCaller(nil, nil, Config{})
	require.Error(t, err)
	_, err = NewCaller(newBackend(), nil, Config{GasBufferPercent: 50})
	require.Error(t, err)
}
