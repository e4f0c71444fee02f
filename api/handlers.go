// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/binding"
)

const defaultEncryptType = fhevm.Euint32

// computeOperations is ordered for display; supportedComputeOperations is
// used for lookup.
var (
	computeOperations          = []string{"add", "sub", "mul", "div", "eq", "ne", "gt", "lt"}
	supportedComputeOperations = newStringSet(computeOperations...)
)

func newStringSet(elts ...string) set.Set[string] {
	s := set.NewSet[string](len(elts))
	s.Add(elts...)
	return s
}

type InfoResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

type EndpointResponse struct {
	Endpoint            string   `json:"endpoint"`
	Description         string   `json:"description"`
	Method              string   `json:"method,omitempty"`
	SupportedTypes      []string `json:"supportedTypes,omitempty"`
	SupportedOperations []string `json:"supportedOperations,omitempty"`
}

type OperationRequest struct {
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type OperationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	IsValid *bool  `json:"isValid,omitempty"`
}

type EncryptRequest struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

type DecryptRequest struct {
	Ciphertext      any    `json:"ciphertext"`
	ContractAddress string `json:"contractAddress"`
	Signature       string `json:"signature"`
}

type ComputeRequest struct {
	Operation       string `json:"operation"`
	Operands        []any  `json:"operands"`
	ContractAddress string `json:"contractAddress"`
}

type ValidatedResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Type         string `json:"type,omitempty"`
	Operation    string `json:"operation,omitempty"`
	OperandCount *int   `json:"operandCount,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

type KeyAvailability struct {
	Available bool  `json:"available"`
	Timestamp int64 `json:"timestamp"`
}

type KeysResponse struct {
	Success   bool            `json:"success"`
	Network   string          `json:"network"`
	PublicKey KeyAvailability `json:"publicKey"`
	Message   string          `json:"message"`
}

type KeysRequest struct {
	Action string `json:"action"`
}

type KeysActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Valid   *bool  `json:"valid,omitempty"`
}

// handleFHEInfo lists the validation endpoints.
//
//	@Summary	List FHE endpoints
//	@Produce	json
//	@Success	200	{object}	InfoResponse
//	@Router		/api/fhe [get]
func (s *server) handleFHEInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.log, w, InfoResponse{
		Status:    "ok",
		Message:   "FHE API is running",
		Endpoints: []string{EncryptPath, DecryptPath, ComputePath},
	})
}

// handleFHE runs a session-level operation.
//
//	@Summary	Initialize or verify the session
//	@Accept		json
//	@Produce	json
//	@Param		request	body		OperationRequest	true	"operation is init or verify"
//	@Success	200		{object}	OperationResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/fhe [post]
func (s *server) handleFHE(w http.ResponseWriter, r *http.Request) {
	var req OperationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Operation {
	case "init":
		if s.init != nil {
			if err := s.init(r.Context()); err != nil {
				s.log.Warn("session initialization failed", log.Err(err))
				writeJSONError(s.log, w, http.StatusInternalServerError, "FHE initialization failed")
				return
			}
		}
		writeJSON(s.log, w, OperationResponse{
			Success: true,
			Message: "FHE initialized successfully",
		})
	case "verify":
		ready := s.ready == nil || s.ready()
		writeJSON(s.log, w, OperationResponse{
			Success: true,
			IsValid: &ready,
		})
	default:
		writeJSONError(s.log, w, http.StatusBadRequest, "Unknown operation")
	}
}

// handleEncryptInfo describes the encryption endpoint.
//
//	@Summary	Describe the encryption endpoint
//	@Produce	json
//	@Success	200	{object}	EndpointResponse
//	@Router		/api/fhe/encrypt [get]
func (s *server) handleEncryptInfo(w http.ResponseWriter, _ *http.Request) {
	types := make([]string, len(fhevm.EncryptableTypes))
	for i, t := range fhevm.EncryptableTypes {
		types[i] = t.String()
	}
	writeJSON(s.log, w, EndpointResponse{
		Endpoint:       EncryptPath,
		Description:    "Validate encryption requests",
		SupportedTypes: types,
	})
}

// handleEncrypt checks that a value can be encrypted as the requested type.
//
//	@Summary	Validate an encryption request
//	@Accept		json
//	@Produce	json
//	@Param		request	body		EncryptRequest	true	"type defaults to euint32"
//	@Success	200		{object}	ValidatedResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/fhe/encrypt [post]
func (s *server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Value == nil {
		writeJSONError(s.log, w, http.StatusBadRequest, "Value is required")
		return
	}

	t := defaultEncryptType
	if req.Type != "" {
		parsed, err := fhevm.ParseEncryptedType(req.Type)
		if err != nil || !parsed.Encryptable() {
			writeJSONError(s.log, w, http.StatusBadRequest, fmt.Sprintf("Unsupported type %q", req.Type))
			return
		}
		t = parsed
	}
	if err := checkEncryptValue(t, req.Value); err != nil {
		writeJSONError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(s.log, w, ValidatedResponse{
		Success:   true,
		Message:   "Encryption request validated",
		Type:      t.String(),
		Timestamp: s.now().UnixMilli(),
	})
}

// checkEncryptValue accepts JSON numbers and strings for integer types, JSON
// booleans and strings for ebool, and address strings for eaddress.
func checkEncryptValue(t fhevm.EncryptedType, value any) error {
	switch t {
	case fhevm.Ebool:
		switch v := value.(type) {
		case bool:
			return nil
		case string:
			_, err := fhevm.ParseBool(v)
			return err
		}
		return fmt.Errorf("value for %s must be a boolean", t)
	case fhevm.Eaddress:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("value for %s must be a string", t)
		}
		if res := fhevm.ValidateAddress(fhevm.SanitizeInput(v)); !res.Valid {
			return fmt.Errorf("%s", res.Reason)
		}
		return nil
	}

	var s string
	switch v := value.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	default:
		return fmt.Errorf("value for %s must be an integer", t)
	}
	_, err := fhevm.ParseUnsigned(s, t.Width())
	return err
}

// handleDecryptInfo describes the decryption endpoint.
//
//	@Summary	Describe the decryption endpoint
//	@Produce	json
//	@Success	200	{object}	EndpointResponse
//	@Router		/api/fhe/decrypt [get]
func (s *server) handleDecryptInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.log, w, EndpointResponse{
		Endpoint:    DecryptPath,
		Description: "Validate decryption requests (requires EIP-712 signature)",
		Method:      http.MethodPost,
	})
}

// handleDecrypt checks a decryption request. Decryption itself needs the
// user's EIP-712 signature and runs in the SDK client.
//
//	@Summary	Validate a decryption request
//	@Accept		json
//	@Produce	json
//	@Param		request	body		DecryptRequest	true	"ciphertext handle and contract"
//	@Success	200		{object}	ValidatedResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/fhe/decrypt [post]
func (s *server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}
	handle := operandString(req.Ciphertext)
	if handle == "" || req.ContractAddress == "" {
		writeJSONError(s.log, w, http.StatusBadRequest, "Ciphertext and contract address are required")
		return
	}
	if res := fhevm.ValidateAddress(fhevm.SanitizeInput(req.ContractAddress)); !res.Valid {
		writeJSONError(s.log, w, http.StatusBadRequest, res.Reason)
		return
	}
	if _, err := fhevm.ParseHandle(handle); err != nil {
		writeJSONError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Signature != "" {
		if _, err := hexutil.Decode(req.Signature); err != nil {
			writeJSONError(s.log, w, http.StatusBadRequest, "Signature must be 0x-prefixed hex")
			return
		}
	}

	writeJSON(s.log, w, ValidatedResponse{
		Success:   true,
		Message:   "Decryption request validated",
		Timestamp: s.now().UnixMilli(),
	})
}

// operandString renders a handle given as a JSON string or number.
func operandString(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// handleComputeInfo describes the computation endpoint.
//
//	@Summary	Describe the computation endpoint
//	@Produce	json
//	@Success	200	{object}	EndpointResponse
//	@Router		/api/fhe/compute [get]
func (s *server) handleComputeInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.log, w, EndpointResponse{
		Endpoint:            ComputePath,
		Description:         "Validate homomorphic computation requests",
		SupportedOperations: computeOperations,
	})
}

// handleCompute checks a homomorphic computation request. The computation
// runs on-chain.
//
//	@Summary	Validate a computation request
//	@Accept		json
//	@Produce	json
//	@Param		request	body		ComputeRequest	true	"operation and operands"
//	@Success	200		{object}	ValidatedResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/fhe/compute [post]
func (s *server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Operation == "" || req.Operands == nil {
		writeJSONError(s.log, w, http.StatusBadRequest, "Operation and operands array are required")
		return
	}
	if !supportedComputeOperations.Contains(req.Operation) {
		writeJSONError(s.log, w, http.StatusBadRequest,
			"Unsupported operation. Supported: "+strings.Join(computeOperations, ", "))
		return
	}
	if res := fhevm.ValidateArgs(req.Operands, 2); !res.Valid {
		writeJSONError(s.log, w, http.StatusBadRequest, res.Reason)
		return
	}
	if req.ContractAddress != "" {
		if res := fhevm.ValidateAddress(fhevm.SanitizeInput(req.ContractAddress)); !res.Valid {
			writeJSONError(s.log, w, http.StatusBadRequest, res.Reason)
			return
		}
	}

	count := len(req.Operands)
	writeJSON(s.log, w, ValidatedResponse{
		Success:      true,
		Message:      "Computation request validated",
		Operation:    req.Operation,
		OperandCount: &count,
		Timestamp:    s.now().UnixMilli(),
	})
}

// handleGetKeys reports whether the network's public key is available.
//
//	@Summary	Report public key availability
//	@Produce	json
//	@Param		network	query		string	false	"network name, defaults to the server's"
//	@Success	200		{object}	KeysResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/keys [get]
func (s *server) handleGetKeys(w http.ResponseWriter, r *http.Request) {
	network := s.network
	if q := r.URL.Query().Get("network"); q != "" {
		parsed, err := fhevm.ParseNetwork(q)
		if err != nil {
			writeJSONError(s.log, w, http.StatusBadRequest, err.Error())
			return
		}
		network = parsed
	}

	// Only the server's own network has a key source.
	available := false
	if s.keys != nil && network == s.network {
		key, err := s.keys.PublicKey(r.Context(), false)
		if err != nil {
			s.log.Debug("public key unavailable",
				"network", network.String(),
				log.Err(err),
			)
		}
		available = err == nil && key != ""
	}

	writeJSON(s.log, w, KeysResponse{
		Success: true,
		Network: network.String(),
		PublicKey: KeyAvailability{
			Available: available,
			Timestamp: s.now().UnixMilli(),
		},
		Message: "Use SDK client to get encryption keys",
	})
}

// handleKeys refreshes or validates the network public key.
//
//	@Summary	Refresh or validate the public key
//	@Accept		json
//	@Produce	json
//	@Param		request	body		KeysRequest	true	"action is refresh or validate"
//	@Success	200		{object}	KeysActionResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/keys [post]
func (s *server) handleKeys(w http.ResponseWriter, r *http.Request) {
	var req KeysRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Action {
	case "refresh":
		if s.keys != nil {
			if _, err := s.keys.PublicKey(r.Context(), true); err != nil {
				s.log.Warn("public key refresh failed", log.Err(err))
				writeJSONError(s.log, w, http.StatusInternalServerError, "Failed to process key operation")
				return
			}
		}
		writeJSON(s.log, w, KeysActionResponse{
			Success: true,
			Message: "Keys refreshed successfully",
		})
	case "validate":
		valid := true
		if s.keys != nil {
			key, err := s.keys.PublicKey(r.Context(), false)
			valid = err == nil && key != ""
		}
		writeJSON(s.log, w, KeysActionResponse{
			Success: true,
			Valid:   &valid,
		})
	default:
		writeJSONError(s.log, w, http.StatusBadRequest, "Unknown action")
	}
}

type OpLogResponse struct {
	Entries []binding.Entry `json:"entries"`
}

// handleOpLog lists the most recent session operations in the order they
// finished.
//
//	@Summary	List recent operations
//	@Produce	json
//	@Success	200	{object}	OpLogResponse
//	@Router		/api/oplog [get]
func (s *server) handleOpLog(w http.ResponseWriter, _ *http.Request) {
	entries := s.opLog.Entries()
	if entries == nil {
		entries = []binding.Entry{}
	}
	writeJSON(s.log, w, OpLogResponse{Entries: entries})
}
