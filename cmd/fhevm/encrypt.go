// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/binding"
)

func newNetworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List the supported networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, n := range fhevm.Networks() {
				cfg, _ := fhevm.GetNetworkConfig(n)
				fmt.Fprintf(out, "%-10s chain %-9d %-22s rpc %s gateway %s\n",
					n, cfg.ChainID, cfg.Name, cfg.RPCURL, cfg.GatewayURL)
			}
			return nil
		},
	}
}

func newEncryptCmd() *cobra.Command {
	var (
		typeName string
		envelope bool
	)
	cmd := &cobra.Command{
		Use:   "encrypt VALUE",
		Short: "Encrypt a value for use as a contract input",
		Long: `Encrypt a value under the network public key and print the ciphertext.

Unsigned values accept decimal or 0x hex; ebool accepts true or false;
eaddress accepts a 0x address.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := fhevm.ParseEncryptedType(typeName)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.host.Close()

			result, err := binding.NewEncryptOp(s.host).Encrypt(cmd.Context(), t, args[0])
			if err != nil {
				return err
			}
			if !envelope {
				fmt.Fprintln(cmd.OutOrStdout(), result.Hex())
				return nil
			}
			b, err := result.MarshalBinary()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "0x%s\n", hex.EncodeToString(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", string(fhevm.Euint32), "Encrypted type: euint8, euint16, euint32, euint64, ebool or eaddress")
	cmd.Flags().BoolVar(&envelope, "envelope", false, "Print the RLP envelope carrying the type with the ciphertext")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	var contractAddress string
	cmd := &cobra.Command{
		Use:   "decrypt HANDLE",
		Short: "Decrypt a ciphertext handle the signer may read",
		Long: `Decrypt a ciphertext handle by signing an EIP-712 reencryption request
for the given contract. Requires a configured signer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := fhevm.ParseHandle(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd, sessionOptions{requireSigner: true})
			if err != nil {
				return err
			}
			defer s.host.Close()

			value, err := binding.NewDecryptOp(s.host).Decrypt(cmd.Context(), handle, contractAddress)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
	cmd.Flags().StringVarP(&contractAddress, "contract", "c", "", "Address of the contract owning the handle")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}

func newPublicDecryptCmd() *cobra.Command {
	var contractAddress string
	cmd := &cobra.Command{
		Use:   "public-decrypt HANDLE",
		Short: "Decrypt a publicly decryptable ciphertext handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := fhevm.ParseHandle(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.host.Close()

			value, err := binding.NewPublicDecryptOp(s.host).PublicDecrypt(cmd.Context(), handle, contractAddress)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
	cmd.Flags().StringVarP(&contractAddress, "contract", "c", "", "Address of the contract owning the handle")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}
