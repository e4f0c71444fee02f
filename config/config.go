// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/binding"
	"github.com/luxfi/fhevm/contract"
	"github.com/luxfi/fhevm/gateway"
	"github.com/luxfi/fhevm/insurance"
)

const (
	defaultLogLevel    = "info"
	defaultAPIPort     = uint16(8080)
	defaultMetricsPort = uint16(9090)
	defaultRateLimit   = 10
	defaultRateWindow  = time.Minute
)

var (
	errInvalidRateLimit = errors.New("rate limit must be positive")
	errInvalidPorts     = errors.New("api and metrics ports must differ")
)

// Config is the CLI and server configuration. Signer secrets are not part of
// it; they are read from the environment by the signer package.
type Config struct {
	LogLevel         string        `mapstructure:"log-level" json:"log-level"`
	LogFile          string        `mapstructure:"log-file" json:"log-file"`
	LogJSON          bool          `mapstructure:"log-json" json:"log-json"`
	Network          string        `mapstructure:"network" json:"network"`
	RPCURL           string        `mapstructure:"rpc-url" json:"rpc-url"`
	GatewayURL       string        `mapstructure:"gateway-url" json:"gateway-url"`
	PublicKey        string        `mapstructure:"public-key" json:"public-key"`
	HTTPTimeout      time.Duration `mapstructure:"http-timeout" json:"http-timeout"`
	APIPort          uint16        `mapstructure:"api-port" json:"api-port"`
	MetricsPort      uint16        `mapstructure:"metrics-port" json:"metrics-port"`
	RateLimit        int           `mapstructure:"rate-limit" json:"rate-limit"`
	RateWindow       time.Duration `mapstructure:"rate-window" json:"rate-window"`
	GasBufferPercent uint64        `mapstructure:"gas-buffer-percent" json:"gas-buffer-percent"`
	ReceiptTimeout   time.Duration `mapstructure:"receipt-timeout" json:"receipt-timeout"`
	WatchInterval    time.Duration `mapstructure:"watch-interval" json:"watch-interval"`
	OpLogSize        int           `mapstructure:"op-log-size" json:"op-log-size"`
	InsuranceAddress string        `mapstructure:"insurance-address" json:"insurance-address"`
}

func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if _, err := fhevm.ParseNetwork(c.Network); err != nil {
		return err
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return errInvalidRateLimit
	}
	if c.APIPort == c.MetricsPort {
		return errInvalidPorts
	}
	if c.GasBufferPercent < 100 {
		return fmt.Errorf("gas buffer percent %d is below 100", c.GasBufferPercent)
	}
	if r := fhevm.ValidateAddress(c.InsuranceAddress); !r.Valid {
		return fmt.Errorf("invalid insurance address: %s", r.Reason)
	}
	return nil
}

// GetNetwork returns the parsed network. Validate must have succeeded.
func (c *Config) GetNetwork() fhevm.Network {
	n, _ := fhevm.ParseNetwork(c.Network)
	return n
}

func (c *Config) GetContractConfig() contract.Config {
	return contract.Config{
		GasBufferPercent: c.GasBufferPercent,
		ReceiptTimeout:   c.ReceiptTimeout,
	}
}

// GetHostConfig returns the session parameters. The caller adds the signer,
// engine factory and observability hooks.
func (c *Config) GetHostConfig() binding.HostConfig {
	return binding.HostConfig{
		Network:    c.GetNetwork(),
		RPCURL:     c.RPCURL,
		GatewayURL: c.GatewayURL,
		PublicKey:  c.PublicKey,
		Contract:   c.GetContractConfig(),
		OpLogSize:  c.OpLogSize,
	}
}

// defaults covers every key so that environment variables are seen by
// viper.Unmarshal.
func defaults() map[string]any {
	return map[string]any{
		LogLevelKey:         defaultLogLevel,
		LogFileKey:          "",
		LogJSONKey:          false,
		NetworkKey:          string(fhevm.DefaultNetwork),
		RPCURLKey:           "",
		GatewayURLKey:       "",
		PublicKeyKey:        "",
		HTTPTimeoutKey:      gateway.DefaultTimeout,
		APIPortKey:          defaultAPIPort,
		MetricsPortKey:      defaultMetricsPort,
		RateLimitKey:        defaultRateLimit,
		RateWindowKey:       defaultRateWindow,
		GasBufferPercentKey: uint64(contract.DefaultGasBufferPercent),
		ReceiptTimeoutKey:   contract.DefaultReceiptTimeout,
		WatchIntervalKey:    binding.DefaultWatchInterval,
		OpLogSizeKey:        binding.DefaultOpLogSize,
		InsuranceAddressKey: insurance.ContractAddress,
	}
}
