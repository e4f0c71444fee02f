// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package gateway implements fhevm.Engine against an FHEVM gateway's HTTP
// JSON API. Encryption of inputs, key distribution and decryption all happen
// on the gateway side.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/cache"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/signer/core/apitypes"
	"github.com/luxfi/log"
)

const (
	keysPath          = "/keys"
	encryptPath       = "/encrypt"
	reencryptPath     = "/reencrypt"
	publicDecryptPath = "/public-decrypt"

	jsonContentType = "application/json"
	requestIDHeader = "X-Request-Id"

	DefaultTimeout          = 30 * time.Second
	DefaultKeyTTL           = 10 * time.Minute
	DefaultDecryptCacheSize = 1024
)

var (
	ErrMissingURL       = errors.New("gateway URL is required")
	ErrMissingChainID   = errors.New("chain ID is required")
	ErrEmptyCiphertext  = errors.New("gateway returned an empty ciphertext")
	ErrEmptyPublicKey   = errors.New("gateway returned an empty public key")
	ErrInvalidPlaintext = errors.New("gateway returned an invalid plaintext")
)

// StatusError is returned for non-2xx gateway responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.Code)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.Code, e.Message)
}

type Config struct {
	URL              string
	ChainID          uint64
	PublicKey        string
	UserAgent        string
	KeyTTL           time.Duration
	DecryptCacheSize int
	HTTPClient       *http.Client
	Log              log.Logger
}

var _ fhevm.Engine = (*Client)(nil)

// Client talks to a single gateway for a single chain.
type Client struct {
	baseURL   *url.URL
	chainID   uint64
	publicKey string
	userAgent string
	http      *http.Client
	log       log.Logger

	keys      *cache.TTLCache[uint64, string]
	decrypted *cache.FIFOCache[string, *big.Int]
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	if cfg.ChainID == 0 {
		return nil, ErrMissingChainID
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway URL: %w", err)
	}
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = DefaultKeyTTL
	}
	if cfg.DecryptCacheSize <= 0 {
		cfg.DecryptCacheSize = DefaultDecryptCacheSize
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "fhevm-go"
	}
	if cfg.Log == nil {
		cfg.Log = log.NewNoOpLogger()
	}
	return &Client{
		baseURL:   base,
		chainID:   cfg.ChainID,
		publicKey: cfg.PublicKey,
		userAgent: cfg.UserAgent,
		http:      cfg.HTTPClient,
		log:       cfg.Log,
		keys:      cache.NewTTLCache[uint64, string](cfg.KeyTTL),
		decrypted: cache.NewFIFOCache[string, *big.Int](cfg.DecryptCacheSize),
	}, nil
}

// Factory returns an fhevm.EngineFactory producing gateway clients that share
// httpClient. The network public key is fetched eagerly so a misconfigured
// gateway fails initialization.
func Factory(logger log.Logger, httpClient *http.Client) fhevm.EngineFactory {
	return func(ctx context.Context, cfg fhevm.EngineConfig) (fhevm.Engine, error) {
		c, err := New(Config{
			URL:        cfg.GatewayURL,
			ChainID:    cfg.ChainID,
			PublicKey:  cfg.PublicKey,
			HTTPClient: httpClient,
			Log:        logger,
		})
		if err != nil {
			return nil, err
		}
		if _, err := c.PublicKey(ctx, false); err != nil {
			return nil, err
		}
		return c, nil
	}
}

// PublicKey returns the network FHE public key. A key given in the config is
// returned as is; otherwise it is fetched from the gateway and cached.
func (c *Client) PublicKey(ctx context.Context, refresh bool) (string, error) {
	if c.publicKey != "" {
		return c.publicKey, nil
	}
	return c.keys.Get(ctx, c.chainID, c.fetchPublicKey, refresh)
}

type keysResponse struct {
	PublicKey string `json:"publicKey"`
}

func (c *Client) fetchPublicKey(ctx context.Context, chainID uint64) (string, error) {
	endpoint := c.endpoint(keysPath)
	q := endpoint.Query()
	q.Set("chainId", strconv.FormatUint(chainID, 10))
	endpoint.RawQuery = q.Encode()

	var resp keysResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch public key: %w", err)
	}
	if resp.PublicKey == "" {
		return "", ErrEmptyPublicKey
	}
	return resp.PublicKey, nil
}

type encryptRequest struct {
	ChainID   uint64 `json:"chainId"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	PublicKey string `json:"publicKey"`
}

type encryptResponse struct {
	Ciphertext string `json:"ciphertext"`
}

func (c *Client) encrypt(ctx context.Context, typ fhevm.EncryptedType, value string) ([]byte, error) {
	pk, err := c.PublicKey(ctx, false)
	if err != nil {
		return nil, err
	}
	var resp encryptResponse
	req := encryptRequest{ChainID: c.chainID, Type: typ.String(), Value: value, PublicKey: pk}
	if err := c.do(ctx, http.MethodPost, c.endpoint(encryptPath), req, &resp); err != nil {
		return nil, err
	}
	if resp.Ciphertext == "" {
		return nil, ErrEmptyCiphertext
	}
	ct, err := hexutil.Decode(resp.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	return ct, nil
}

func (c *Client) Encrypt8(ctx context.Context, v uint8) ([]byte, error) {
	return c.encrypt(ctx, fhevm.Euint8, strconv.FormatUint(uint64(v), 10))
}

func (c *Client) Encrypt16(ctx context.Context, v uint16) ([]byte, error) {
	return c.encrypt(ctx, fhevm.Euint16, strconv.FormatUint(uint64(v), 10))
}

func (c *Client) Encrypt32(ctx context.Context, v uint32) ([]byte, error) {
	return c.encrypt(ctx, fhevm.Euint32, strconv.FormatUint(uint64(v), 10))
}

func (c *Client) Encrypt64(ctx context.Context, v uint64) ([]byte, error) {
	return c.encrypt(ctx, fhevm.Euint64, strconv.FormatUint(v, 10))
}

func (c *Client) EncryptBool(ctx context.Context, v bool) ([]byte, error) {
	return c.encrypt(ctx, fhevm.Ebool, strconv.FormatBool(v))
}

func (c *Client) EncryptAddress(ctx context.Context, addr common.Address) ([]byte, error) {
	return c.encrypt(ctx, fhevm.Eaddress, addr.Hex())
}

func (c *Client) CreateEIP712(handle common.Hash, contract common.Address) (apitypes.TypedData, error) {
	return fhevm.NewReencryptTypedData(c.chainID, handle, contract), nil
}

type reencryptRequest struct {
	ChainID         uint64 `json:"chainId"`
	Handle          string `json:"handle"`
	ContractAddress string `json:"contractAddress"`
	Signature       string `json:"signature"`
	UserAddress     string `json:"userAddress"`
}

type decryptRequest struct {
	ChainID         uint64 `json:"chainId"`
	Handle          string `json:"handle"`
	ContractAddress string `json:"contractAddress"`
}

type plaintextResponse struct {
	Value string `json:"value"`
}

func (c *Client) Reencrypt(
	ctx context.Context,
	handle common.Hash,
	contract common.Address,
	signature []byte,
	user common.Address,
) (*big.Int, error) {
	req := reencryptRequest{
		ChainID:         c.chainID,
		Handle:          handle.Hex(),
		ContractAddress: contract.Hex(),
		Signature:       hexutil.Encode(signature),
		UserAddress:     user.Hex(),
	}
	var resp plaintextResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint(reencryptPath), req, &resp); err != nil {
		return nil, err
	}
	return parsePlaintext(resp.Value)
}

// PublicDecrypt results are cached: a publicly decrypted handle never
// changes value.
func (c *Client) PublicDecrypt(ctx context.Context, handle common.Hash, contract common.Address) (*big.Int, error) {
	key := contract.Hex() + "/" + handle.Hex()
	v, err := c.decrypted.Get(ctx, key, func(ctx context.Context, _ string) (*big.Int, error) {
		req := decryptRequest{ChainID: c.chainID, Handle: handle.Hex(), ContractAddress: contract.Hex()}
		var resp plaintextResponse
		if err := c.do(ctx, http.MethodPost, c.endpoint(publicDecryptPath), req, &resp); err != nil {
			return nil, err
		}
		return parsePlaintext(resp.Value)
	})
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(v), nil
}

// Ping checks that the gateway serves the network public key.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetchPublicKey(ctx, c.chainID)
	return err
}

func (c *Client) endpoint(path string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return &u
}

func (c *Client) do(ctx context.Context, method string, endpoint *url.URL, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to serialize json body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("can't create %s request: %w", method, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", jsonContentType)
	if reader != nil {
		req.Header.Set("Content-Type", jsonContentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint.Path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("gateway request",
		"method", method,
		"path", endpoint.Path,
		"status", resp.StatusCode,
		"requestID", requestID,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var er errorResponse
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &er) == nil {
		switch {
		case er.Error != "":
			msg = er.Error
		case er.Message != "":
			msg = er.Message
		}
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}

func parsePlaintext(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidPlaintext
	}
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		// Plaintexts may come back as a zero-padded 32-byte word.
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" && len(s) > 2 {
			digits = "0"
		}
		v, err = uint256.FromHex("0x" + digits)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPlaintext, s, err)
	}
	return v.ToBig(), nil
}
