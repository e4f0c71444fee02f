// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"context"
	"errors"
	"math/big"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

var errUnused = errors.New("unused")

// chainIDBackend reports the localhost chain ID and nothing else.
type chainIDBackend struct{}

func (chainIDBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(testChainID), nil }

func (chainIDBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errUnused
}

func (chainIDBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 0, errUnused
}

func (chainIDBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, errUnused
}

func (chainIDBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return nil, errUnused }

func (chainIDBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return nil, errUnused
}

func (chainIDBackend) SendTransaction(context.Context, *types.Transaction) error { return errUnused }

func (chainIDBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, errUnused
}
