// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func NewConfig(v *viper.Viper) (Config, error) {
	cfg, err := BuildConfig(v)
	if err != nil {
		return cfg, err
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// BuildFlagSet declares a flag for every configuration key. Flag defaults are
// zero values so that config file and environment values are not masked;
// SetDefaultConfigValues supplies the real defaults.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("fhevm", pflag.ContinueOnError)
	fs.String(ConfigFileKey, "", "Path to a JSON config file")
	fs.String(LogLevelKey, "", "Log level: debug, info, warn or error")
	fs.String(LogFileKey, "", "Also write logs to this file, rotated by size")
	fs.Bool(LogJSONKey, false, "Write logs as JSON")
	fs.String(NetworkKey, "", "Network: sepolia, localhost or zama")
	fs.String(RPCURLKey, "", "Override the network's RPC URL")
	fs.String(GatewayURLKey, "", "Override the network's gateway URL")
	fs.String(PublicKeyKey, "", "Use this network public key instead of fetching it")
	fs.Duration(HTTPTimeoutKey, 0, "Gateway request timeout")
	fs.Uint16(APIPortKey, 0, "Port of the HTTP API")
	fs.Uint16(MetricsPortKey, 0, "Port of the metrics endpoint")
	fs.Int(RateLimitKey, 0, "API requests allowed per client per window")
	fs.Duration(RateWindowKey, 0, "API rate limit window")
	fs.Uint64(GasBufferPercentKey, 0, "Gas limit as a percentage of the estimate")
	fs.Duration(ReceiptTimeoutKey, 0, "How long to wait for a transaction receipt")
	fs.Duration(WatchIntervalKey, 0, "How often to poll the provider for chain and account changes")
	fs.Int(OpLogSizeKey, 0, "Number of operations kept in the operation log")
	fs.String(InsuranceAddressKey, "", "Address of the insurance contract")
	return fs
}

// BuildViper builds the viper instance. The config file is optional and may
// be given by flag or by the FHEVM_CONFIG_FILE environment variable. Every key
// may also be set by an FHEVM_ prefixed environment variable.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Map flag names to env var names. Flags are capitalized, and hyphens are replaced with underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := bindChangedFlags(v, fs); err != nil {
		return nil, err
	}

	filename := v.GetString(ConfigFileKey)
	if filename == "" {
		filename = os.Getenv(ConfigFileEnvKey)
	}
	if filename == "" {
		return v, nil
	}
	path, err := homedir.Expand(filename)
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return v, nil
}

// bindChangedFlags binds only the flags set on the command line, so a flag's
// zero default never overrides the config file or environment.
func bindChangedFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || !f.Changed {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

func SetDefaultConfigValues(v *viper.Viper) {
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
}

// BuildConfig constructs the config using Viper.
// The following precedence order is used. Each item takes precedence over the item below it:
//  1. Flags
//  2. Environment variables
//  3. Config file
//  4. Defaults
func BuildConfig(v *viper.Viper) (Config, error) {
	SetDefaultConfigValues(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal viper config: %w", err)
	}
	return cfg, nil
}

// DisplayUsageText prints the configuration keys and their defaults.
func DisplayUsageText() {
	d := defaults()
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("Configuration keys may be set by flag, by an %s_ environment variable or in the JSON config file.\n", EnvPrefix)
	for _, k := range keys {
		env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(k, "-", "_"))
		fmt.Printf("  --%-20s %-28s default %v\n", k, env, d[k])
	}
}
