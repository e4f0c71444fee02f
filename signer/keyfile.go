// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/scrypt"
)

const (
	keyFileVersion = 1

	// N=2^18 costs about 256MB and under two seconds per derivation.
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrKeyFileExists   = errors.New("key file already exists")
)

// KeyFile is the on-disk form of an encrypted private key. The address is
// stored in clear so it can be shown without the password.
type KeyFile struct {
	Version    int            `json:"version"`
	Address    common.Address `json:"address"`
	KDF        kdfParams      `json:"kdf"`
	Salt       string         `json:"salt"`
	Nonce      string         `json:"nonce"`
	CipherText string         `json:"ciphertext"`
}

type kdfParams struct {
	Name string `json:"name"`
	N    int    `json:"n"`
	R    int    `json:"r"`
	P    int    `json:"p"`
}

// EncryptKey seals key under password with scrypt and AES-GCM.
func EncryptKey(key *ecdsa.PrivateKey, password []byte) (*KeyFile, error) {
	return encryptKey(key, password, scryptN)
}

func encryptKey(key *ecdsa.PrivateKey, password []byte, n int) (*KeyFile, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	kdf := kdfParams{Name: "scrypt", N: n, R: scryptR, P: scryptP}
	aead, err := newAEAD(password, salt, kdf)
	if err != nil {
		return nil, err
	}
	plaintext := crypto.FromECDSA(key)
	defer clear(plaintext)

	address := common.Address(crypto.PubkeyToAddress(key.PublicKey))
	return &KeyFile{
		Version:    keyFileVersion,
		Address:    address,
		KDF:        kdf,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, plaintext, address.Bytes())),
	}, nil
}

// DecryptKey opens a key file. A wrong password yields ErrInvalidPassword.
func DecryptKey(kf *KeyFile, password []byte) (*ecdsa.PrivateKey, error) {
	if kf.Version != keyFileVersion {
		return nil, fmt.Errorf("unsupported key file version %d", kf.Version)
	}
	if kf.KDF.Name != "scrypt" {
		return nil, fmt.Errorf("unsupported kdf %q", kf.KDF.Name)
	}
	salt, err := base64.StdEncoding.DecodeString(kf.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(kf.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(kf.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	aead, err := newAEAD(password, salt, kf.KDF)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, kf.Address.Bytes())
	if err != nil {
		return nil, ErrInvalidPassword
	}
	defer clear(plaintext)
	return crypto.ToECDSA(plaintext)
}

func newAEAD(password, salt []byte, kdf kdfParams) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, kdf.N, kdf.R, kdf.P, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// WriteKeyFile writes kf to path with owner-only permissions. It refuses to
// overwrite an existing non-empty file.
func WriteKeyFile(path string, kf *KeyFile) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
	}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key file: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func ReadKeyFile(path string) (*KeyFile, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key file: %w", err)
	}
	return &kf, nil
}

// LoadKeySigner reads and decrypts the key file at path.
func LoadKeySigner(path string, password []byte) (*KeySigner, error) {
	kf, err := ReadKeyFile(path)
	if err != nil {
		return nil, err
	}
	key, err := DecryptKey(kf, password)
	if err != nil {
		return nil, err
	}
	return NewKeySigner(key)
}
