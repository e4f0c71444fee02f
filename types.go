// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/rlp"
)

// EncryptedType names an encrypted value type understood by the FHEVM.
type EncryptedType string

const (
	Euint8   EncryptedType = "euint8"
	Euint16  EncryptedType = "euint16"
	Euint32  EncryptedType = "euint32"
	Euint64  EncryptedType = "euint64"
	Euint128 EncryptedType = "euint128"
	Euint256 EncryptedType = "euint256"
	Ebool    EncryptedType = "ebool"
	Eaddress EncryptedType = "eaddress"
)

// EncryptableTypes are the types the client can produce.
var EncryptableTypes = []EncryptedType{Euint8, Euint16, Euint32, Euint64, Ebool, Eaddress}

// TypeForWidth maps an unsigned integer width to its encrypted type.
func TypeForWidth(width int) (EncryptedType, bool) {
	switch width {
	case 8:
		return Euint8, true
	case 16:
		return Euint16, true
	case 32:
		return Euint32, true
	case 64:
		return Euint64, true
	default:
		return "", false
	}
}

// Width returns the bit width of an unsigned integer type, or 0.
func (t EncryptedType) Width() int {
	switch t {
	case Euint8:
		return 8
	case Euint16:
		return 16
	case Euint32:
		return 32
	case Euint64:
		return 64
	case Euint128:
		return 128
	case Euint256:
		return 256
	default:
		return 0
	}
}

// Encryptable reports whether the client can produce ciphertexts of type t.
func (t EncryptedType) Encryptable() bool {
	for _, e := range EncryptableTypes {
		if e == t {
			return true
		}
	}
	return false
}

func (t EncryptedType) String() string { return string(t) }

// ParseEncryptedType parses a type name such as "euint32".
func ParseEncryptedType(s string) (EncryptedType, error) {
	t := EncryptedType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case Euint8, Euint16, Euint32, Euint64, Euint128, Euint256, Ebool, Eaddress:
		return t, nil
	}
	return "", invalidInput("parse type", "unknown encrypted type %q", s)
}

// EncryptionResult is an encrypted input produced by the engine. It is never
// mutated after creation.
type EncryptionResult struct {
	Data  []byte
	Type  EncryptedType
	Value any
}

// Hex returns the 0x-prefixed ciphertext, as passed to contract calls.
func (r *EncryptionResult) Hex() string {
	return hexutil.Encode(r.Data)
}

type encryptionEnvelope struct {
	Type string
	Data []byte
}

// MarshalBinary encodes the type and ciphertext as RLP. The plaintext value is
// never serialized.
func (r *EncryptionResult) MarshalBinary() ([]byte, error) {
	return rlp.EncodeToBytes(&encryptionEnvelope{Type: string(r.Type), Data: r.Data})
}

// ParseEncryptionResult decodes an envelope written by MarshalBinary.
func ParseEncryptionResult(b []byte) (*EncryptionResult, error) {
	var env encryptionEnvelope
	if err := rlp.DecodeBytes(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	t, err := ParseEncryptedType(env.Type)
	if err != nil {
		return nil, err
	}
	return &EncryptionResult{Data: env.Data, Type: t}, nil
}

// ParseHandle parses a ciphertext handle given as a decimal integer or a
// 0x-prefixed hex string of at most 32 bytes.
func ParseHandle(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Hash{}, invalidInput("parse handle", "handle is required")
	}
	if has0x(s) {
		digits := s[2:]
		if len(digits)%2 == 1 {
			digits = "0" + digits
		}
		b, err := hex.DecodeString(digits)
		if err != nil || len(b) == 0 {
			return common.Hash{}, invalidInput("parse handle", "invalid hex handle %q", s)
		}
		if len(b) > common.HashLength {
			return common.Hash{}, invalidInput("parse handle", "handle %q exceeds 32 bytes", s)
		}
		return common.BytesToHash(b), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return common.Hash{}, invalidInput("parse handle", "invalid handle %q: %v", s, err)
	}
	return common.Hash(v.Bytes32()), nil
}

func has0x(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
