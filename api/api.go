// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package api serves the request validation endpoints. They check the shape
// of encryption, decryption and computation requests; the cryptography itself
// happens in the SDK client and on-chain.
//
//	@title			FHEVM validation API
//	@version		1.0
//	@description	Validates FHEVM encryption, decryption and computation requests.
//	@BasePath		/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/luxfi/log"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/luxfi/fhevm"
	_ "github.com/luxfi/fhevm/api/docs"
	"github.com/luxfi/fhevm/binding"
	"github.com/luxfi/fhevm/metrics"
)

const (
	FHEPath     = "/api/fhe"
	EncryptPath = "/api/fhe/encrypt"
	DecryptPath = "/api/fhe/decrypt"
	ComputePath = "/api/fhe/compute"
	KeysPath    = "/api/keys"
	OpLogPath   = "/api/oplog"
	SwaggerPath = "/swagger"

	DefaultRateLimit  = 10
	DefaultRateWindow = time.Minute

	maxBodyBytes = 1 << 20
)

var errNoRateLimit = errors.New("rate limit must be positive")

// OpLogSource is satisfied by *binding.OpLog.
type OpLogSource interface {
	Entries() []binding.Entry
}

// KeySource is satisfied by *gateway.Client.
type KeySource interface {
	PublicKey(ctx context.Context, refresh bool) (string, error)
}

type Config struct {
	Log     log.Logger
	Metrics *metrics.APIMetrics
	// Network is the network the server's session runs on.
	Network fhevm.Network
	// Keys serves /api/keys when set.
	Keys KeySource
	// Ready reports whether the session is initialized.
	Ready func() bool
	// Init initializes the session on POST /api/fhe {"operation":"init"}.
	Init func(ctx context.Context) error
	// OpLog serves /api/oplog when set.
	OpLog OpLogSource

	RateLimit  int
	RateWindow time.Duration

	// Health and Metrics handlers are mounted at /health and /metrics when
	// set.
	Health         http.Handler
	MetricsHandler http.Handler
}

type server struct {
	log     log.Logger
	metrics *metrics.APIMetrics
	network fhevm.Network
	keys    KeySource
	ready   func() bool
	init    func(ctx context.Context) error
	opLog   OpLogSource
	limiter *clientLimiter
	now     func() time.Time
}

// NewRouter builds the HTTP handler for every endpoint.
func NewRouter(cfg Config) (http.Handler, error) {
	s, err := newServer(cfg)
	if err != nil {
		return nil, err
	}
	return s.routes(cfg), nil
}

func newServer(cfg Config) (*server, error) {
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateWindow == 0 {
		cfg.RateWindow = DefaultRateWindow
	}
	if cfg.RateLimit < 0 || cfg.RateWindow < 0 {
		return nil, errNoRateLimit
	}
	if cfg.Log == nil {
		cfg.Log = log.NewNoOpLogger()
	}
	if cfg.Network == "" {
		cfg.Network = fhevm.DefaultNetwork
	}
	limiter, err := newClientLimiter(cfg.RateLimit, cfg.RateWindow)
	if err != nil {
		return nil, err
	}
	return &server{
		log:     cfg.Log,
		metrics: cfg.Metrics,
		network: cfg.Network,
		keys:    cfg.Keys,
		ready:   cfg.Ready,
		init:    cfg.Init,
		opLog:   cfg.OpLog,
		limiter: limiter,
		now:     time.Now,
	}, nil
}

func (s *server) routes(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(s.log, w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(s.log, w, http.StatusNotFound, "Not found")
	})

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get(FHEPath, s.handleFHEInfo)
		r.Post(FHEPath, s.handleFHE)
		r.Get(EncryptPath, s.handleEncryptInfo)
		r.Post(EncryptPath, s.handleEncrypt)
		r.Get(DecryptPath, s.handleDecryptInfo)
		r.Post(DecryptPath, s.handleDecrypt)
		r.Get(ComputePath, s.handleComputeInfo)
		r.Post(ComputePath, s.handleCompute)
		r.Get(KeysPath, s.handleGetKeys)
		r.Post(KeysPath, s.handleKeys)
		if s.opLog != nil {
			r.Get(OpLogPath, s.handleOpLog)
		}
	})

	r.Get(SwaggerPath+"/*", httpSwagger.WrapHandler)
	if cfg.Health != nil {
		r.Method(http.MethodGet, "/health", cfg.Health)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	return r
}

// observe counts every request by route pattern and status code.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.Request(route, status, time.Since(startTime))
	})
}

func (s *server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)
		ok, wait := s.limiter.reserve(client, s.now())
		if !ok {
			s.metrics.RateLimited()
			s.log.Debug("rate limited request",
				"client", client,
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", retryAfterSeconds(wait))
			writeJSONError(s.log, w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(
	logger log.Logger,
	w http.ResponseWriter,
	httpStatusCode int,
	errorMsg string,
) {
	resp, err := json.Marshal(
		ErrorResponse{
			Error: errorMsg,
		},
	)
	if err != nil {
		msg := "Error marshalling JSON error response"
		logger.Error(msg, log.Err(err))
		resp = []byte(msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)

	_, err = w.Write(resp)
	if err != nil {
		logger.Error("Error writing error response", log.Err(err))
	}
}

func writeJSON(logger log.Logger, w http.ResponseWriter, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		msg := "Failed to marshal response"
		logger.Error(msg, log.Err(err))
		writeJSONError(logger, w, http.StatusInternalServerError, msg)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		logger.Error("Error writing response", log.Err(err))
	}
}

// decodeBody decodes a JSON body, keeping numbers as json.Number so large
// integers survive intact.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("could not decode request body: %w", err)
	}
	return nil
}
