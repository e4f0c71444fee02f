// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/luxfi/fhevm/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fhevm",
		Short: "FHEVM client - encrypted inputs, decryption and confidential contracts",
		Long: `fhevm encrypts inputs for FHEVM contracts, decrypts ciphertext handles
through the network gateway and calls confidential contracts.

Signers are read from the environment: FHEVM_PRIVATE_KEY, FHEVM_KEY_FILE
(with FHEVM_KEY_PASSWORD or an interactive prompt) or FHEVM_EXTERNAL_SIGNER.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().AddFlagSet(config.BuildFlagSet())

	rootCmd.AddCommand(
		newNetworksCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
		newPublicDecryptCmd(),
		newContractCmd(),
		newInsuranceCmd(),
		newWalletCmd(),
		newServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the configuration keys and their environment variables",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			config.DisplayUsageText()
		},
	}
}
