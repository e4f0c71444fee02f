// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"sort"
	"strings"
)

// Network identifies an entry in the static network table.
type Network string

const (
	Sepolia   Network = "sepolia"
	Localhost Network = "localhost"
	Zama      Network = "zama"
)

// DefaultNetwork is used when no network is configured.
const DefaultNetwork = Sepolia

// NetworkConfig holds the static connection parameters of a network.
type NetworkConfig struct {
	ChainID    uint64 `json:"chainId"`
	Name       string `json:"name"`
	RPCURL     string `json:"rpcUrl"`
	GatewayURL string `json:"gatewayUrl"`
	// PublicKey is optional; when empty the engine fetches it from the gateway.
	PublicKey string `json:"publicKey,omitempty"`
}

var networks = map[Network]NetworkConfig{
	Sepolia: {
		ChainID:    11155111,
		Name:       "Sepolia Testnet",
		RPCURL:     "https://eth-sepolia.g.alchemy.com/v2/demo",
		GatewayURL: "https://gateway.sepolia.zama.ai",
	},
	Localhost: {
		ChainID:    31337,
		Name:       "Local Hardhat Network",
		RPCURL:     "http://localhost:8545",
		GatewayURL: "http://localhost:8546",
	},
	Zama: {
		ChainID:    8009,
		Name:       "Zama Devnet",
		RPCURL:     "https://devnet.zama.ai",
		GatewayURL: "https://gateway.devnet.zama.ai",
	},
}

func (n Network) String() string { return string(n) }

// GetNetworkConfig returns a copy of the table entry for n.
func GetNetworkConfig(n Network) (NetworkConfig, bool) {
	cfg, ok := networks[n]
	return cfg, ok
}

// Networks returns the known networks in name order.
func Networks() []Network {
	out := make([]Network, 0, len(networks))
	for n := range networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseNetwork resolves a network name, case-insensitively.
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := networks[n]; !ok {
		return "", invalidInput("parse network", "unknown network %q", s)
	}
	return n, nil
}

// NetworkByChainID finds the network whose table entry has chainID.
func NetworkByChainID(chainID uint64) (Network, bool) {
	for n, cfg := range networks {
		if cfg.ChainID == chainID {
			return n, true
		}
	}
	return "", false
}
