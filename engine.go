// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/signer/core/apitypes"
)

// Engine is the external FHE engine. Encryption, key management and
// re-encryption all happen behind this interface; the client only validates
// inputs and shapes requests.
type Engine interface {
	Encrypt8(ctx context.Context, value uint8) ([]byte, error)
	Encrypt16(ctx context.Context, value uint16) ([]byte, error)
	Encrypt32(ctx context.Context, value uint32) ([]byte, error)
	Encrypt64(ctx context.Context, value uint64) ([]byte, error)
	EncryptBool(ctx context.Context, value bool) ([]byte, error)
	EncryptAddress(ctx context.Context, addr common.Address) ([]byte, error)

	// CreateEIP712 returns the typed data a user signs to authorize
	// re-encryption of handle under contract.
	CreateEIP712(handle common.Hash, contract common.Address) (apitypes.TypedData, error)

	// Reencrypt returns the plaintext of handle for the holder of signature.
	Reencrypt(ctx context.Context, handle common.Hash, contract common.Address, signature []byte, user common.Address) (*big.Int, error)

	// PublicDecrypt returns the plaintext of a publicly decryptable handle.
	PublicDecrypt(ctx context.Context, handle common.Hash, contract common.Address) (*big.Int, error)
}

// EngineConfig binds an engine to one network.
type EngineConfig struct {
	ChainID    uint64
	GatewayURL string
	PublicKey  string
}

// EngineFactory instantiates an Engine. It is called once per successful
// client initialization.
type EngineFactory func(ctx context.Context, cfg EngineConfig) (Engine, error)
