// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract performs generic reads and signed writes against EVM
// contracts described by a JSON ABI.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/cache"
	"github.com/luxfi/fhevm/utils"
)

const (
	DefaultGasBufferPercent = 120
	DefaultReceiptTimeout   = 2 * time.Minute
	DefaultABICacheSize     = 64

	// If the max base fee is not explicitly set, use 3x the current base fee estimate
	defaultBaseFeeFactor = 3
)

// ReceiptError carries the receipt of a mined transaction that did not
// succeed.
type ReceiptError struct {
	Receipt *types.Receipt
}

func (e *ReceiptError) Error() string {
	return fmt.Sprintf("transaction %s reverted in block %s", e.Receipt.TxHash.Hex(), e.Receipt.BlockNumber)
}

type Config struct {
	// GasBufferPercent scales the gas estimate; 120 adds 20%.
	GasBufferPercent uint64
	// ReceiptTimeout bounds the wait for a receipt after submission.
	ReceiptTimeout time.Duration
	// MaxPriorityFeePerGas caps the suggested tip when set.
	MaxPriorityFeePerGas *big.Int
	ABICacheSize         int
	Log                  log.Logger
}

// Caller reads from and writes to contracts through one backend. Writes are
// signed by signer and submitted in nonce order.
type Caller struct {
	backend fhevm.Backend
	signer  fhevm.Signer
	log     log.Logger

	gasBufferPercent uint64
	receiptTimeout   time.Duration
	maxPriorityFee   *big.Int

	abis      *cache.LRUCache[string, *abi.ABI]
	nonceLock sync.Mutex
}

// NewCaller builds a Caller. signer may be nil for read-only use.
func NewCaller(backend fhevm.Backend, signer fhevm.Signer, cfg Config) (*Caller, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if cfg.GasBufferPercent == 0 {
		cfg.GasBufferPercent = DefaultGasBufferPercent
	}
	if cfg.GasBufferPercent < 100 {
		return nil, fmt.Errorf("gas buffer percent %d is below 100", cfg.GasBufferPercent)
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = DefaultReceiptTimeout
	}
	if cfg.ABICacheSize <= 0 {
		cfg.ABICacheSize = DefaultABICacheSize
	}
	if cfg.Log == nil {
		cfg.Log = log.NewNoOpLogger()
	}
	abis, err := cache.NewLRUCache[string, *abi.ABI](cfg.ABICacheSize)
	if err != nil {
		return nil, err
	}
	return &Caller{
		backend:          backend,
		signer:           signer,
		log:              cfg.Log,
		gasBufferPercent: cfg.GasBufferPercent,
		receiptTimeout:   cfg.ReceiptTimeout,
		maxPriorityFee:   cfg.MaxPriorityFeePerGas,
		abis:             abis,
	}, nil
}

// FromClient builds a Caller over an initialized client's provider and
// signer.
func FromClient(client *fhevm.Client, cfg Config) (*Caller, error) {
	backend, err := client.Backend()
	if err != nil {
		return nil, err
	}
	return NewCaller(backend, client.Signer(), cfg)
}

type ReadParams struct {
	Address string
	ABI     string
	Method  string
	Args    []any
}

type WriteParams struct {
	Address string
	ABI     string
	Method  string
	Args    []any
	// Value is the amount of wei sent with the call; nil means zero.
	Value *big.Int
}

// Read calls a view method and returns its unpacked outputs.
func (c *Caller) Read(ctx context.Context, p ReadParams) ([]any, error) {
	const op = "contract read"
	to, method, data, err := c.prepare(ctx, op, p.Address, p.ABI, p.Method, p.Args)
	if err != nil {
		return nil, err
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	if c.signer != nil {
		msg.From = c.signer.Address()
	}
	out, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fhevm.WrapEngineError(op, fmt.Errorf("call %s: %w", p.Method, err))
	}
	values, err := method.Outputs.Unpack(out)
	if err != nil {
		return nil, fhevm.WrapEngineError(op, fmt.Errorf("unpack %s: %w", p.Method, err))
	}
	return values, nil
}

// Write submits a signed transaction invoking a state-changing method and
// waits for its receipt. A mined transaction that failed returns an error of
// kind TransactionFailed wrapping a *ReceiptError.
func (c *Caller) Write(ctx context.Context, p WriteParams) (*types.Receipt, error) {
	const op = "contract write"
	if r := fhevm.ValidateAddress(p.Address); !r.Valid {
		return nil, &fhevm.Error{Kind: fhevm.KindInvalidInput, Op: op, Message: r.Reason}
	}
	if c.signer == nil {
		return nil, &fhevm.Error{Kind: fhevm.KindSignerUnavailable, Op: op, Message: fhevm.ErrSignerUnavailable.Message}
	}
	to, _, data, err := c.prepare(ctx, op, p.Address, p.ABI, p.Method, p.Args)
	if err != nil {
		return nil, err
	}
	value := p.Value
	if value == nil {
		value = new(big.Int)
	}

	signed, err := c.signAndSend(ctx, op, to, value, data)
	if err != nil {
		return nil, err
	}

	receipt, err := c.waitForReceipt(ctx, signed.Hash())
	if err != nil {
		c.log.Error("Failed to get transaction receipt",
			log.Stringer("txID", signed.Hash()),
			log.Err(err),
		)
		return nil, fhevm.WrapEngineError(op, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &fhevm.Error{
			Kind:    fhevm.KindTransactionFailed,
			Op:      op,
			Message: fhevm.ErrTransactionFailed.Message,
			Err:     &ReceiptError{Receipt: receipt},
		}
	}
	return receipt, nil
}

func (c *Caller) signAndSend(ctx context.Context, op string, to common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	from := c.signer.Address()
	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fhevm.WrapEngineError(op, fmt.Errorf("failed to get chain ID: %w", err))
	}

	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return nil, fhevm.WrapEngineError(op, fmt.Errorf("failed to estimate gas: %w", err))
	}
	gasLimit := gas * c.gasBufferPercent / 100

	gasTipCap, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fhevm.WrapEngineError(op, fmt.Errorf("failed to get gas tip cap: %w", err))
	}
	if c.maxPriorityFee != nil && gasTipCap.Cmp(c.maxPriorityFee) > 0 {
		gasTipCap = new(big.Int).Set(c.maxPriorityFee)
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fhevm.WrapEngineError(op, fmt.Errorf("failed to get head: %w", err))
	}
	maxBaseFee := new(big.Int)
	if head.BaseFee != nil {
		maxBaseFee.Mul(head.BaseFee, big.NewInt(defaultBaseFeeFactor))
	}
	gasFeeCap := new(big.Int).Add(maxBaseFee, gasTipCap)

	// Hold the lock until the transaction is sent so concurrent writes
	// are submitted in nonce order.
	c.nonceLock.Lock()
	defer c.nonceLock.Unlock()

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fhevm.WrapEngineError(op, fmt.Errorf("failed to get pending nonce: %w", err))
	}
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	})
	signed, err := c.signer.SignTx(ctx, tx, chainID)
	if err != nil {
		return nil, fhevm.WrapEngineError(op, err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		c.log.Error("Failed to send transaction", log.Err(err))
		return nil, fhevm.WrapEngineError(op, err)
	}
	c.log.Info("Sent transaction",
		log.Stringer("txID", signed.Hash()),
		"nonce", nonce,
		"gas", gasLimit,
	)
	return signed, nil
}

func (c *Caller) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	operation := func() (err error) {
		receipt, err = c.backend.TransactionReceipt(ctx, txHash)
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.log.Debug("receipt lookup failed", log.Stringer("txID", txHash), log.Err(err))
		}
		if err == nil && receipt == nil {
			err = ethereum.NotFound
		}
		return err
	}
	if err := utils.WithRetriesTimeout(ctx, c.log, operation, c.receiptTimeout, "waitForReceipt"); err != nil {
		return nil, err
	}
	return receipt, nil
}

// prepare validates the target and arguments and packs the call data.
func (c *Caller) prepare(
	ctx context.Context,
	op string,
	address string,
	abiJSON string,
	methodName string,
	args []any,
) (common.Address, abi.Method, []byte, error) {
	if r := fhevm.ValidateAddress(address); !r.Valid {
		return common.Address{}, abi.Method{}, nil, &fhevm.Error{Kind: fhevm.KindInvalidInput, Op: op, Message: r.Reason}
	}
	parsed, err := c.ParseABI(ctx, abiJSON)
	if err != nil {
		return common.Address{}, abi.Method{}, nil, &fhevm.Error{Kind: fhevm.KindInvalidInput, Op: op, Message: "invalid ABI", Err: err}
	}
	method, ok := parsed.Methods[methodName]
	if !ok {
		return common.Address{}, abi.Method{}, nil, &fhevm.Error{
			Kind:    fhevm.KindInvalidInput,
			Op:      op,
			Message: fmt.Sprintf("method %q not found in ABI", methodName),
		}
	}
	if r := fhevm.ValidateArgs(args, len(method.Inputs)); !r.Valid {
		return common.Address{}, abi.Method{}, nil, &fhevm.Error{
			Kind:    fhevm.KindInvalidInput,
			Op:      op,
			Message: fmt.Sprintf("%s: %s", methodName, r.Reason),
		}
	}
	data, err := parsed.Pack(methodName, args...)
	if err != nil {
		return common.Address{}, abi.Method{}, nil, &fhevm.Error{
			Kind:    fhevm.KindInvalidInput,
			Op:      op,
			Message: fmt.Sprintf("failed to pack %s arguments", methodName),
			Err:     err,
		}
	}
	return common.HexToAddress(address), method, data, nil
}

// ParseABI parses a JSON ABI, caching the result by its text.
func (c *Caller) ParseABI(ctx context.Context, abiJSON string) (*abi.ABI, error) {
	return c.abis.Get(ctx, abiJSON, func(_ context.Context, text string) (*abi.ABI, error) {
		parsed, err := abi.JSON(strings.NewReader(text))
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	}, false)
}
