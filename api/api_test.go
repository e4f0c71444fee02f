// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/binding"
	"github.com/luxfi/fhevm/metrics"
)

const testContract = "0x44cB004a09224332d7Bc4161aeF9cEDbAe43991d"

type fakeKeys struct {
	key       string
	err       error
	refreshes int
}

func (k *fakeKeys) PublicKey(_ context.Context, refresh bool) (string, error) {
	if refresh {
		k.refreshes++
	}
	return k.key, k.err
}

func newTestRouter(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1000
	}
	h, err := NewRouter(cfg)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestFHEInfo(t *testing.T) {
	h := newTestRouter(t, Config{})
	rec, body := do(t, h, http.MethodGet, FHEPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, []any{EncryptPath, DecryptPath, ComputePath}, body["endpoints"])
}

func TestFHEOperation(t *testing.T) {
	var inits int
	ready := false
	h := newTestRouter(t, Config{
		Ready: func() bool { return ready },
		Init: func(context.Context) error {
			inits++
			ready = true
			return nil
		},
	})

	rec, body := do(t, h, http.MethodPost, FHEPath, `{"operation":"verify"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["isValid"])

	rec, body = do(t, h, http.MethodPost, FHEPath, `{"operation":"init"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, 1, inits)

	_, body = do(t, h, http.MethodPost, FHEPath, `{"operation":"verify"}`)
	require.Equal(t, true, body["isValid"])

	rec, body = do(t, h, http.MethodPost, FHEPath, `{"operation":"explode"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Unknown operation", body["error"])

	rec, _ = do(t, h, http.MethodPost, FHEPath, `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFHEInitFailure(t *testing.T) {
	h := newTestRouter(t, Config{
		Init: func(context.Context) error { return errors.New("dial failed") },
	})
	rec, body := do(t, h, http.MethodPost, FHEPath, `{"operation":"init"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "FHE initialization failed", body["error"])
}

func TestEncrypt(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantType string
	}{
		{name: "default type", body: `{"value":42}`, wantCode: http.StatusOK, wantType: "euint32"},
		{name: "euint8 max", body: `{"value":255,"type":"euint8"}`, wantCode: http.StatusOK, wantType: "euint8"},
		{name: "euint8 overflow", body: `{"value":256,"type":"euint8"}`, wantCode: http.StatusBadRequest},
		{name: "negative", body: `{"value":-1,"type":"euint16"}`, wantCode: http.StatusBadRequest},
		{name: "fraction", body: `{"value":1.5}`, wantCode: http.StatusBadRequest},
		{name: "euint64 max as string", body: `{"value":"18446744073709551615","type":"euint64"}`, wantCode: http.StatusOK, wantType: "euint64"},
		{name: "euint64 max as number", body: `{"value":18446744073709551615,"type":"euint64"}`, wantCode: http.StatusOK, wantType: "euint64"},
		{name: "hex string", body: `{"value":"0xff","type":"euint8"}`, wantCode: http.StatusOK, wantType: "euint8"},
		{name: "bool", body: `{"value":true,"type":"ebool"}`, wantCode: http.StatusOK, wantType: "ebool"},
		{name: "bool string", body: `{"value":"FALSE","type":"ebool"}`, wantCode: http.StatusOK, wantType: "ebool"},
		{name: "bool number", body: `{"value":1,"type":"ebool"}`, wantCode: http.StatusBadRequest},
		{name: "address", body: `{"value":"` + testContract + `","type":"eaddress"}`, wantCode: http.StatusOK, wantType: "eaddress"},
		{name: "bad address", body: `{"value":"0x1234","type":"eaddress"}`, wantCode: http.StatusBadRequest},
		{name: "decrypt-only type", body: `{"value":1,"type":"euint256"}`, wantCode: http.StatusBadRequest},
		{name: "unknown type", body: `{"value":1,"type":"euint7"}`, wantCode: http.StatusBadRequest},
		{name: "missing value", body: `{"type":"euint8"}`, wantCode: http.StatusBadRequest},
		{name: "null value", body: `{"value":null}`, wantCode: http.StatusBadRequest},
	}
	h := newTestRouter(t, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPost, EncryptPath, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				require.NotEmpty(t, body["error"])
				return
			}
			require.Equal(t, true, body["success"])
			require.Equal(t, tt.wantType, body["type"])
			require.NotZero(t, body["timestamp"])
		})
	}
}

func TestEncryptInfo(t *testing.T) {
	h := newTestRouter(t, Config{})
	rec, body := do(t, h, http.MethodGet, EncryptPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t,
		[]any{"euint8", "euint16", "euint32", "euint64", "ebool", "eaddress"},
		body["supportedTypes"],
	)
}

func TestDecrypt(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "valid", body: `{"ciphertext":"0x01","contractAddress":"` + testContract + `"}`, wantCode: http.StatusOK},
		{name: "decimal handle", body: `{"ciphertext":12345,"contractAddress":"` + testContract + `"}`, wantCode: http.StatusOK},
		{name: "with signature", body: `{"ciphertext":"0x01","contractAddress":"` + testContract + `","signature":"0xabcd"}`, wantCode: http.StatusOK},
		{name: "bad signature", body: `{"ciphertext":"0x01","contractAddress":"` + testContract + `","signature":"zz"}`, wantCode: http.StatusBadRequest},
		{name: "missing ciphertext", body: `{"contractAddress":"` + testContract + `"}`, wantCode: http.StatusBadRequest},
		{name: "missing contract", body: `{"ciphertext":"0x01"}`, wantCode: http.StatusBadRequest},
		{name: "bad contract", body: `{"ciphertext":"0x01","contractAddress":"0xnothex"}`, wantCode: http.StatusBadRequest},
		{name: "bad handle", body: `{"ciphertext":"0xzz","contractAddress":"` + testContract + `"}`, wantCode: http.StatusBadRequest},
	}
	h := newTestRouter(t, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPost, DecryptPath, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusOK {
				require.Equal(t, "Decryption request validated", body["message"])
			}
		})
	}

	rec, body := do(t, h, http.MethodPost, DecryptPath, `{"ciphertext":"0x01"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Ciphertext and contract address are required", body["error"])
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "add", body: `{"operation":"add","operands":["0x01","0x02"]}`, wantCode: http.StatusOK},
		{name: "lt with contract", body: `{"operation":"lt","operands":[1,2],"contractAddress":"` + testContract + `"}`, wantCode: http.StatusOK},
		{name: "unsupported", body: `{"operation":"pow","operands":[1,2]}`, wantCode: http.StatusBadRequest, wantErr: "Unsupported operation. Supported: add, sub, mul, div, eq, ne, gt, lt"},
		{name: "missing operands", body: `{"operation":"add"}`, wantCode: http.StatusBadRequest, wantErr: "Operation and operands array are required"},
		{name: "missing operation", body: `{"operands":[1,2]}`, wantCode: http.StatusBadRequest, wantErr: "Operation and operands array are required"},
		{name: "one operand", body: `{"operation":"add","operands":[1]}`, wantCode: http.StatusBadRequest},
		{name: "operands not array", body: `{"operation":"add","operands":"x"}`, wantCode: http.StatusBadRequest},
		{name: "bad contract", body: `{"operation":"add","operands":[1,2],"contractAddress":"nope"}`, wantCode: http.StatusBadRequest},
	}
	h := newTestRouter(t, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPost, ComputePath, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				require.Equal(t, tt.wantErr, body["error"])
			}
			if tt.wantCode == http.StatusOK {
				require.Equal(t, float64(2), body["operandCount"])
			}
		})
	}

	rec, body := do(t, h, http.MethodGet, ComputePath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["supportedOperations"], 8)
}

func TestKeys(t *testing.T) {
	require := require.New(t)
	keys := &fakeKeys{key: "0xkey"}
	h := newTestRouter(t, Config{Network: fhevm.Sepolia, Keys: keys})

	rec, body := do(t, h, http.MethodGet, KeysPath, "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("sepolia", body["network"])
	require.Equal(true, body["publicKey"].(map[string]any)["available"])

	// Other networks have no key source here.
	_, body = do(t, h, http.MethodGet, KeysPath+"?network=zama", "")
	require.Equal("zama", body["network"])
	require.Equal(false, body["publicKey"].(map[string]any)["available"])

	rec, _ = do(t, h, http.MethodGet, KeysPath+"?network=mainnet", "")
	require.Equal(http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodPost, KeysPath, `{"action":"refresh"}`)
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("Keys refreshed successfully", body["message"])
	require.Equal(1, keys.refreshes)

	_, body = do(t, h, http.MethodPost, KeysPath, `{"action":"validate"}`)
	require.Equal(true, body["valid"])

	rec, body = do(t, h, http.MethodPost, KeysPath, `{"action":"rotate"}`)
	require.Equal(http.StatusBadRequest, rec.Code)
	require.Equal("Unknown action", body["error"])

	keys.err = errors.New("gateway down")
	rec, _ = do(t, h, http.MethodPost, KeysPath, `{"action":"refresh"}`)
	require.Equal(http.StatusInternalServerError, rec.Code)

	_, body = do(t, h, http.MethodPost, KeysPath, `{"action":"validate"}`)
	require.Equal(false, body["valid"])
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, Config{})
	rec, body := do(t, h, http.MethodDelete, EncryptPath, "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "Method not allowed", body["error"])

	rec, body = do(t, h, http.MethodGet, "/api/unknown", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not found", body["error"])
}

func TestRateLimit(t *testing.T) {
	require := require.New(t)
	registry := prometheus.NewRegistry()
	m := metrics.NewAPIMetrics(registry)
	h := newTestRouter(t, Config{
		Metrics:    m,
		RateLimit:  2,
		RateWindow: time.Hour,
	})

	for range 2 {
		rec, _ := do(t, h, http.MethodGet, FHEPath, "")
		require.Equal(http.StatusOK, rec.Code)
	}
	rec, body := do(t, h, http.MethodGet, FHEPath, "")
	require.Equal(http.StatusTooManyRequests, rec.Code)
	require.Equal("Too many requests", body["error"])
	require.NotEmpty(rec.Header().Get("Retry-After"))

	// Clients are limited independently.
	req := httptest.NewRequest(http.MethodGet, FHEPath, nil)
	req.RemoteAddr = "10.0.0.9:4000"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	require.Equal(http.StatusOK, other.Code)

	require.Equal(float64(1), counterValue(t, registry, "api_rate_limited"))
}

func counterValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func TestNewRouterValidation(t *testing.T) {
	_, err := NewRouter(Config{RateLimit: -1})
	require.ErrorIs(t, err, errNoRateLimit)
}

func TestClientLimiterRetryAfter(t *testing.T) {
	require := require.New(t)
	l, err := newClientLimiter(1, 10*time.Second)
	require.NoError(err)

	now := time.Unix(1_700_000_000, 0)
	ok, _ := l.reserve("a", now)
	require.True(ok)
	ok, wait := l.reserve("a", now)
	require.False(ok)
	require.InDelta(float64(10*time.Second), float64(wait), float64(time.Millisecond))
	require.Equal("10", retryAfterSeconds(10*time.Second))
	require.Equal("1", retryAfterSeconds(200*time.Millisecond))

	// A denied request does not consume a token.
	ok, _ = l.reserve("a", now.Add(10*time.Second))
	require.True(ok)
}

func TestMountedHandlers(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := newTestRouter(t, Config{Health: ok, MetricsHandler: ok})

	rec, _ := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusTeapot, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func TestOpLog(t *testing.T) {
	require := require.New(t)

	rec, _ := do(t, newTestRouter(t, Config{}), http.MethodGet, OpLogPath, "")
	require.Equal(http.StatusNotFound, rec.Code)

	opLog := binding.NewOpLog(4)
	h := newTestRouter(t, Config{OpLog: opLog})
	rec, body := do(t, h, http.MethodGet, OpLogPath, "")
	require.Equal(http.StatusOK, rec.Code)
	require.Empty(body["entries"])

	opLog.Append(binding.Entry{Kind: binding.KindInit, InputSummary: "localhost", Success: true})
	opLog.Append(binding.Entry{Kind: binding.KindEncrypt, InputSummary: "euint8 7", Error: "not initialized"})
	rec, body = do(t, h, http.MethodGet, OpLogPath, "")
	require.Equal(http.StatusOK, rec.Code)
	entries, ok := body["entries"].([]any)
	require.True(ok)
	require.Len(entries, 2)
	last := entries[1].(map[string]any)
	require.Equal("encrypt", last["kind"])
	require.Equal(false, last["success"])
	require.Equal("not initialized", last["error"])
}
