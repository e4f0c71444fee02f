// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable keys
	EnvPrefix        = "FHEVM"
	ConfigFileEnvKey = "FHEVM_CONFIG_FILE"

	// Top-level configuration keys
	LogLevelKey         = "log-level"
	LogFileKey          = "log-file"
	LogJSONKey          = "log-json"
	NetworkKey          = "network"
	RPCURLKey           = "rpc-url"
	GatewayURLKey       = "gateway-url"
	PublicKeyKey        = "public-key"
	HTTPTimeoutKey      = "http-timeout"
	APIPortKey          = "api-port"
	MetricsPortKey      = "metrics-port"
	RateLimitKey        = "rate-limit"
	RateWindowKey       = "rate-window"
	GasBufferPercentKey = "gas-buffer-percent"
	ReceiptTimeoutKey   = "receipt-timeout"
	WatchIntervalKey    = "watch-interval"
	OpLogSizeKey        = "op-log-size"
	InsuranceAddressKey = "insurance-address"
)
