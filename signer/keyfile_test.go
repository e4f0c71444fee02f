// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

// Cheap scrypt cost for tests.
const testScryptN = 1 << 10

func TestKeyFileRoundTrip(t *testing.T) {
	require := require.New(t)
	key, err := crypto.GenerateKey()
	require.NoError(err)

	kf, err := encryptKey(key, []byte("hunter2"), testScryptN)
	require.NoError(err)
	require.Equal(common.Address(crypto.PubkeyToAddress(key.PublicKey)), kf.Address)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(WriteKeyFile(path, kf))

	info, err := os.Stat(path)
	require.NoError(err)
	require.Equal(os.FileMode(0o600), info.Mode().Perm())

	s, err := LoadKeySigner(path, []byte("hunter2"))
	require.NoError(err)
	require.Equal(kf.Address, s.Address())

	_, err = LoadKeySigner(path, []byte("wrong"))
	require.ErrorIs(err, ErrInvalidPassword)

	require.ErrorIs(WriteKeyFile(path, kf), ErrKeyFileExists)
}

func TestKeyFileTamperedAddress(t *testing.T) {
	require := require.New(t)
	key, err := crypto.GenerateKey()
	require.NoError(err)
	kf, err := encryptKey(key, []byte("pw"), testScryptN)
	require.NoError(err)

	kf.Address[0] ^= 0xff
	_, err = DecryptKey(kf, []byte("pw"))
	require.ErrorIs(err, ErrInvalidPassword)
}

func TestEncryptKeyRequiresPassword(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = EncryptKey(key, nil)
	require.ErrorIs(t, err, ErrEmptyPassword)
}
