// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/geth/common"
	"golang.org/x/term"
)

// EnvPrefix prefixes every signer environment variable.
const EnvPrefix = "FHEVM"

// EnvConfig selects a signer from the environment. At most one source is
// used, in field order.
type EnvConfig struct {
	PrivateKey     string `envconfig:"PRIVATE_KEY"`
	KeyFile        string `envconfig:"KEY_FILE"`
	KeyPassword    string `envconfig:"KEY_PASSWORD"`
	ExternalSigner string `envconfig:"EXTERNAL_SIGNER"`
	Account        string `envconfig:"ACCOUNT"`
}

// PasswordFunc supplies a key file password.
type PasswordFunc func(prompt string) ([]byte, error)

func LoadEnvConfig() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process signer env: %w", err)
	}
	return cfg, nil
}

// FromEnv builds the signer described by FHEVM_* environment variables. It
// returns ErrNoKeySource when none is set; callers that only encrypt can
// proceed without a signer.
func FromEnv(ctx context.Context, password PasswordFunc) (fhevm.Signer, error) {
	cfg, err := LoadEnvConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Signer(ctx, password)
}

func (c EnvConfig) Signer(ctx context.Context, password PasswordFunc) (fhevm.Signer, error) {
	switch {
	case c.PrivateKey != "":
		s, err := NewKeySignerFromHex(c.PrivateKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	case c.KeyFile != "":
		pw := []byte(c.KeyPassword)
		if len(pw) == 0 {
			if password == nil {
				return nil, ErrEmptyPassword
			}
			var err error
			if pw, err = password("Enter key file password: "); err != nil {
				return nil, err
			}
		}
		defer clear(pw)
		s, err := LoadKeySigner(c.KeyFile, pw)
		if err != nil {
			return nil, err
		}
		return s, nil
	case c.ExternalSigner != "":
		var account common.Address
		if c.Account != "" {
			if r := fhevm.ValidateAddress(c.Account); !r.Valid {
				return nil, fmt.Errorf("%w: %s", fhevm.ErrInvalidInput, r.Reason)
			}
			account = common.HexToAddress(c.Account)
		}
		s, err := DialExternal(ctx, c.ExternalSigner, account)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, ErrNoKeySource
	}
}

// PromptPassword reads a password from the terminal without echo.
func PromptPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal: set FHEVM_KEY_PASSWORD or run interactively")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyPassword
	}
	return raw, nil
}
