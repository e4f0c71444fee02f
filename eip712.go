// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/math"
	"github.com/luxfi/geth/signer/core/apitypes"
)

const (
	ReencryptDomainName    = "Authorization token"
	ReencryptDomainVersion = "1"
	ReencryptPrimaryType   = "Reencrypt"
)

// NewReencryptTypedData builds the EIP-712 payload authorizing re-encryption
// of handle under contract on chainID.
func NewReencryptTypedData(chainID uint64, handle common.Hash, contract common.Address) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			ReencryptPrimaryType: {
				{Name: "handle", Type: "bytes32"},
				{Name: "contractAddress", Type: "address"},
			},
		},
		PrimaryType: ReencryptPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              ReencryptDomainName,
			Version:           ReencryptDomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(chainID)),
			VerifyingContract: contract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"handle":          handle.Hex(),
			"contractAddress": contract.Hex(),
		},
	}
}

// TypedDataHash returns the EIP-712 digest a signer signs for td.
func TypedDataHash(td apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, invalidInput("typed data", "%v", err)
	}
	return hash, nil
}
