// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

var (
	errChainIDMismatch = errors.New("provider chain ID does not match network")
	errNoEngineFactory = errors.New("engine factory is required")
)

// ClientConfig configures a Client. RPCURL, GatewayURL and PublicKey
// override the network table entry when set.
type ClientConfig struct {
	Network       Network
	RPCURL        string
	GatewayURL    string
	PublicKey     string
	Signer        Signer
	EngineFactory EngineFactory
	Dialer        Dialer
	Log           log.Logger
}

// Client is a session against one FHEVM network. It starts uninitialized;
// Init moves it to ready exactly once. Every operation fails with
// ErrNotInitialized before that and never touches the engine.
type Client struct {
	network Network
	netCfg  NetworkConfig
	signer  Signer
	factory EngineFactory
	dial    Dialer
	log     log.Logger

	initGroup singleflight.Group
	ready     atomic.Bool

	lock    sync.RWMutex
	engine  Engine
	backend Backend
}

func NewClient(cfg ClientConfig) (*Client, error) {
	network := cfg.Network
	if network == "" {
		network = DefaultNetwork
	}
	netCfg, ok := GetNetworkConfig(network)
	if !ok {
		return nil, invalidInput("new client", "unknown network %q", cfg.Network)
	}
	if cfg.EngineFactory == nil {
		return nil, &Error{Kind: KindInvalidInput, Op: "new client", Err: errNoEngineFactory}
	}
	if cfg.RPCURL != "" {
		netCfg.RPCURL = cfg.RPCURL
	}
	if cfg.GatewayURL != "" {
		netCfg.GatewayURL = cfg.GatewayURL
	}
	if cfg.PublicKey != "" {
		netCfg.PublicKey = cfg.PublicKey
	}
	dial := cfg.Dialer
	if dial == nil {
		dial = DialBackend
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Client{
		network: network,
		netCfg:  netCfg,
		signer:  cfg.Signer,
		factory: cfg.EngineFactory,
		dial:    dial,
		log:     logger,
	}, nil
}

// Init dials the provider, confirms its chain ID and instantiates the engine.
// Calls after a successful Init return nil without side effects. Concurrent
// calls share a single attempt; a failed attempt may be retried. The shared
// attempt is not cancelled by any one caller; a caller whose ctx is done
// stops waiting and gets ctx.Err().
func (c *Client) Init(ctx context.Context) error {
	if c.ready.Load() {
		return nil
	}
	attemptCtx := context.WithoutCancel(ctx)
	ch := c.initGroup.DoChan("init", func() (interface{}, error) {
		if c.ready.Load() {
			return nil, nil
		}
		return nil, c.init(attemptCtx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) init(ctx context.Context) error {
	const op = "init"
	c.log.Debug("initializing FHEVM client",
		log.Stringer("network", c.network),
		"rpcURL", c.netCfg.RPCURL,
	)

	backend, err := c.dial(ctx, c.netCfg.RPCURL)
	if err != nil {
		return WrapEngineError(op, fmt.Errorf("failed to dial %s: %w", c.netCfg.RPCURL, err))
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return WrapEngineError(op, fmt.Errorf("failed to get chain ID: %w", err))
	}
	if !chainID.IsUint64() || chainID.Uint64() != c.netCfg.ChainID {
		return &Error{
			Kind:    KindEngineFailure,
			Op:      op,
			Message: fmt.Sprintf("expected chain ID %d, got %s", c.netCfg.ChainID, chainID),
			Err:     errChainIDMismatch,
		}
	}

	engine, err := c.factory(ctx, EngineConfig{
		ChainID:    c.netCfg.ChainID,
		GatewayURL: c.netCfg.GatewayURL,
		PublicKey:  c.netCfg.PublicKey,
	})
	if err != nil {
		c.log.Warn("failed to create FHEVM instance", log.Err(err))
		return WrapEngineError(op, err)
	}

	c.lock.Lock()
	c.engine = engine
	c.backend = backend
	c.lock.Unlock()
	c.ready.Store(true)

	c.log.Info("FHEVM client initialized",
		log.Stringer("network", c.network),
		log.Stringer("chainID", chainID),
	)
	return nil
}

func (c *Client) IsInitialized() bool {
	return c.ready.Load()
}

func (c *Client) Network() Network {
	return c.network
}

// NetworkConfig returns the effective network parameters, overrides applied.
func (c *Client) NetworkConfig() NetworkConfig {
	return c.netCfg
}

// Signer returns the configured signer, or nil.
func (c *Client) Signer() Signer {
	return c.signer
}

// Address returns the signer's address.
func (c *Client) Address() (common.Address, error) {
	if c.signer == nil {
		return common.Address{}, signerUnavailable("address")
	}
	return c.signer.Address(), nil
}

// Backend returns the provider dialed by Init.
func (c *Client) Backend() (Backend, error) {
	if !c.ready.Load() {
		return nil, notInitialized("backend")
	}
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.backend, nil
}

func (c *Client) engineFor(op string) (Engine, error) {
	if !c.ready.Load() {
		return nil, notInitialized(op)
	}
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.engine, nil
}

// EncryptUnsigned encrypts value as an unsigned integer of the given width.
func (c *Client) EncryptUnsigned(ctx context.Context, width int, value *big.Int) (*EncryptionResult, error) {
	op := fmt.Sprintf("encrypt%d", width)
	engine, err := c.engineFor(op)
	if err != nil {
		return nil, err
	}
	if err := checkRange(op, value, width); err != nil {
		return nil, err
	}

	v := value.Uint64()
	var data []byte
	switch width {
	case 8:
		data, err = engine.Encrypt8(ctx, uint8(v))
	case 16:
		data, err = engine.Encrypt16(ctx, uint16(v))
	case 32:
		data, err = engine.Encrypt32(ctx, uint32(v))
	case 64:
		data, err = engine.Encrypt64(ctx, v)
	}
	if err != nil {
		return nil, WrapEngineError(op, err)
	}
	t, _ := TypeForWidth(width)
	return &EncryptionResult{Data: data, Type: t, Value: new(big.Int).Set(value)}, nil
}

func (c *Client) Encrypt8(ctx context.Context, value uint64) (*EncryptionResult, error) {
	return c.EncryptUnsigned(ctx, 8, new(big.Int).SetUint64(value))
}

func (c *Client) Encrypt16(ctx context.Context, value uint64) (*EncryptionResult, error) {
	return c.EncryptUnsigned(ctx, 16, new(big.Int).SetUint64(value))
}

func (c *Client) Encrypt32(ctx context.Context, value uint64) (*EncryptionResult, error) {
	return c.EncryptUnsigned(ctx, 32, new(big.Int).SetUint64(value))
}

func (c *Client) Encrypt64(ctx context.Context, value uint64) (*EncryptionResult, error) {
	return c.EncryptUnsigned(ctx, 64, new(big.Int).SetUint64(value))
}

func (c *Client) EncryptBool(ctx context.Context, value bool) (*EncryptionResult, error) {
	const op = "encryptBool"
	engine, err := c.engineFor(op)
	if err != nil {
		return nil, err
	}
	data, err := engine.EncryptBool(ctx, value)
	if err != nil {
		return nil, WrapEngineError(op, err)
	}
	return &EncryptionResult{Data: data, Type: Ebool, Value: value}, nil
}

func (c *Client) EncryptAddress(ctx context.Context, address string) (*EncryptionResult, error) {
	const op = "encryptAddress"
	engine, err := c.engineFor(op)
	if err != nil {
		return nil, err
	}
	if err := checkAddress(op, address); err != nil {
		return nil, err
	}
	addr := common.HexToAddress(address)
	data, err := engine.EncryptAddress(ctx, addr)
	if err != nil {
		return nil, WrapEngineError(op, err)
	}
	return &EncryptionResult{Data: data, Type: Eaddress, Value: addr}, nil
}

// Decrypt re-encrypts handle for the signer and returns the plaintext. The
// signer authorizes the request by signing EIP-712 typed data that binds the
// handle to contractAddress.
func (c *Client) Decrypt(ctx context.Context, handle common.Hash, contractAddress string) (*big.Int, error) {
	const op = "decrypt"
	engine, err := c.engineFor(op)
	if err != nil {
		return nil, err
	}
	if err := checkAddress(op, contractAddress); err != nil {
		return nil, err
	}
	if c.signer == nil {
		return nil, signerUnavailable(op)
	}
	contract := common.HexToAddress(contractAddress)

	typedData, err := engine.CreateEIP712(handle, contract)
	if err != nil {
		return nil, WrapEngineError(op, err)
	}
	signature, err := c.signer.SignTypedData(ctx, typedData)
	if err != nil {
		c.log.Debug("typed data signing failed", log.Err(err))
		return nil, WrapEngineError(op, err)
	}
	value, err := engine.Reencrypt(ctx, handle, contract, signature, c.signer.Address())
	if err != nil {
		return nil, WrapEngineError(op, err)
	}
	return value, nil
}

// PublicDecrypt decrypts a publicly decryptable handle. No signature is
// required.
func (c *Client) PublicDecrypt(ctx context.Context, handle common.Hash, contractAddress string) (*big.Int, error) {
	const op = "publicDecrypt"
	engine, err := c.engineFor(op)
	if err != nil {
		return nil, err
	}
	if err := checkAddress(op, contractAddress); err != nil {
		return nil, err
	}
	value, err := engine.PublicDecrypt(ctx, handle, common.HexToAddress(contractAddress))
	if err != nil {
		return nil, WrapEngineError(op, err)
	}
	return value, nil
}

// EncryptValue parses value according to t and encrypts it. Unsigned values
// accept decimal or 0x hex; booleans accept "true" and "false".
func (c *Client) EncryptValue(ctx context.Context, t EncryptedType, value string) (*EncryptionResult, error) {
	const op = "encrypt"
	if !c.ready.Load() {
		return nil, notInitialized(op)
	}
	switch t {
	case Ebool:
		b, err := ParseBool(value)
		if err != nil {
			return nil, err
		}
		return c.EncryptBool(ctx, b)
	case Eaddress:
		return c.EncryptAddress(ctx, strings.TrimSpace(value))
	}
	if !t.Encryptable() {
		return nil, invalidInput(op, "type %s cannot be encrypted", t)
	}
	v, err := ParseUnsigned(value, t.Width())
	if err != nil {
		return nil, err
	}
	return c.EncryptUnsigned(ctx, t.Width(), v)
}
