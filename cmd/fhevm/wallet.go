// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/luxfi/fhevm/signer"
)

const qrSize = 256

var errPasswordMismatch = errors.New("passwords do not match")

type qrFlags struct {
	png      string
	terminal bool
}

func (f *qrFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.png, "qr", "", "Write the address as a QR code PNG to this path")
	cmd.Flags().BoolVar(&f.terminal, "qr-terminal", false, "Print the address as a QR code")
}

func (f *qrFlags) render(w io.Writer, address string) error {
	if f.png == "" && !f.terminal {
		return nil
	}
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to create QR code: %w", err)
	}
	if f.terminal {
		fmt.Fprint(w, qr.ToSmallString(false))
	}
	if f.png != "" {
		if err := qr.WriteFile(qrSize, f.png); err != nil {
			return fmt.Errorf("failed to write QR code: %w", err)
		}
	}
	return nil
}

func newWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Create and inspect signer keys",
	}
	cmd.AddCommand(newWalletNewCmd(), newWalletAddressCmd())
	return cmd
}

func newWalletNewCmd() *cobra.Command {
	var (
		out string
		qr  qrFlags
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a key and write it to a password-encrypted key file",
		Long: `Generate a secp256k1 key and write it to a key file encrypted with a
password from FHEVM_KEY_PASSWORD or an interactive prompt. Use the file with
FHEVM_KEY_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := newKeyPassword()
			if err != nil {
				return err
			}
			defer clear(password)

			key, err := signer.GenerateKeySigner()
			if err != nil {
				return err
			}
			kf, err := signer.EncryptKey(key.PrivateKey(), password)
			if err != nil {
				return err
			}
			if err := signer.WriteKeyFile(out, kf); err != nil {
				return err
			}
			address := key.Address().Hex()
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", address)
			return qr.render(cmd.OutOrStdout(), address)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "fhevm-key.json", "Key file path")
	qr.register(cmd)
	return cmd
}

// newKeyPassword reads the password from the environment or prompts for it
// twice.
func newKeyPassword() ([]byte, error) {
	env, err := signer.LoadEnvConfig()
	if err != nil {
		return nil, err
	}
	if env.KeyPassword != "" {
		return []byte(env.KeyPassword), nil
	}
	password, err := signer.PromptPassword("New key file password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := signer.PromptPassword("Repeat password: ")
	if err != nil {
		clear(password)
		return nil, err
	}
	defer clear(confirm)
	if !bytes.Equal(password, confirm) {
		clear(password)
		return nil, errPasswordMismatch
	}
	return password, nil
}

func newWalletAddressCmd() *cobra.Command {
	var qr qrFlags
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Print the address of the configured signer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := signer.FromEnv(cmd.Context(), signer.PromptPassword)
			if err != nil {
				return err
			}
			address := s.Address().Hex()
			fmt.Fprintln(cmd.OutOrStdout(), address)
			return qr.render(cmd.OutOrStdout(), address)
		},
	}
	qr.register(cmd)
	return cmd
}
