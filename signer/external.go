// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/geth/rpc"
	"github.com/luxfi/geth/signer/core/apitypes"
)

var errUnsupportedTxType = errors.New("external signer only signs dynamic fee transactions")

// Caller performs JSON-RPC calls. *rpc.Client satisfies it.
type Caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// ExternalSigner delegates signing to an external wallet that speaks the
// account_* JSON-RPC namespace. Requests the user declines come back as
// fhevm.ErrUserRejected.
type ExternalSigner struct {
	client  Caller
	account common.Address
}

// DialExternal connects to an external signer endpoint. If account is the
// zero address the first account the signer lists is used.
func DialExternal(ctx context.Context, endpoint string, account common.Address) (*ExternalSigner, error) {
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial external signer: %w", err)
	}
	return NewExternalSigner(ctx, client, account)
}

func NewExternalSigner(ctx context.Context, client Caller, account common.Address) (*ExternalSigner, error) {
	s := &ExternalSigner{client: client, account: account}
	if account == (common.Address{}) {
		accounts, err := s.Accounts(ctx)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			return nil, fhevm.ErrSignerUnavailable
		}
		s.account = accounts[0]
	}
	return s, nil
}

// Accounts lists the accounts the external signer currently exposes.
func (s *ExternalSigner) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := s.client.CallContext(ctx, &accounts, "account_list"); err != nil {
		return nil, classify("account_list", err)
	}
	return accounts, nil
}

func (s *ExternalSigner) Address() common.Address {
	return s.account
}

func (s *ExternalSigner) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	var sig hexutil.Bytes
	addr := common.NewMixedcaseAddress(s.account)
	if err := s.client.CallContext(ctx, &sig, "account_signTypedData", addr, data); err != nil {
		return nil, classify("account_signTypedData", err)
	}
	return sig, nil
}

type signTransactionResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

func (s *ExternalSigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if tx.Type() != types.DynamicFeeTxType {
		return nil, errUnsupportedTxType
	}
	args := apitypes.SendTxArgs{
		From:                 common.NewMixedcaseAddress(s.account),
		Gas:                  hexutil.Uint64(tx.Gas()),
		MaxFeePerGas:         (*hexutil.Big)(tx.GasFeeCap()),
		MaxPriorityFeePerGas: (*hexutil.Big)(tx.GasTipCap()),
		Value:                hexutil.Big(*tx.Value()),
		Nonce:                hexutil.Uint64(tx.Nonce()),
		ChainID:              (*hexutil.Big)(chainID),
	}
	if to := tx.To(); to != nil {
		mixed := common.NewMixedcaseAddress(*to)
		args.To = &mixed
	}
	data := hexutil.Bytes(tx.Data())
	args.Data = &data

	var res signTransactionResult
	if err := s.client.CallContext(ctx, &res, "account_signTransaction", args); err != nil {
		return nil, classify("account_signTransaction", err)
	}
	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(res.Raw); err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	return signed, nil
}

func classify(method string, err error) error {
	if fhevm.IsUserRejection(err) {
		return &fhevm.Error{Kind: fhevm.KindUserRejected, Op: method, Message: fhevm.ErrUserRejected.Message, Err: err}
	}
	return fmt.Errorf("%s: %w", method, err)
}

// ForAccount returns a signer for another account on the same endpoint.
func (s *ExternalSigner) ForAccount(account common.Address) fhevm.Signer {
	return &ExternalSigner{client: s.client, account: account}
}
