// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an SDK failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotInitialized
	KindInvalidInput
	KindSignerUnavailable
	KindEngineFailure
	KindTransactionFailed
	KindUserRejected
)

// UserRejectedCode is the wallet error code for a request the user declined.
const UserRejectedCode = 4001

func (k Kind) String() string {
	switch k {
	case KindNotInitialized:
		return "not initialized"
	case KindInvalidInput:
		return "invalid input"
	case KindSignerUnavailable:
		return "signer unavailable"
	case KindEngineFailure:
		return "engine failure"
	case KindTransactionFailed:
		return "transaction failed"
	case KindUserRejected:
		return "user rejected"
	default:
		return "unknown"
	}
}

var (
	ErrNotInitialized    = &Error{Kind: KindNotInitialized, Message: "FHEVM not initialized"}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrSignerUnavailable = &Error{Kind: KindSignerUnavailable, Message: "signer not available"}
	ErrEngineFailure     = &Error{Kind: KindEngineFailure, Message: "engine failure"}
	ErrTransactionFailed = &Error{Kind: KindTransactionFailed, Message: "transaction failed"}
	ErrUserRejected      = &Error{Kind: KindUserRejected, Message: "user rejected request"}
)

// Error is the error type returned by every SDK operation. errors.Is matches
// any *Error of the same Kind, so callers can compare against the sentinels.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func invalidInput(op, format string, args ...any) *Error {
	return newError(KindInvalidInput, op, format, args...)
}

func notInitialized(op string) *Error {
	return &Error{Kind: KindNotInitialized, Op: op, Message: ErrNotInitialized.Message}
}

func signerUnavailable(op string) *Error {
	return &Error{Kind: KindSignerUnavailable, Op: op, Message: ErrSignerUnavailable.Message}
}

// rpcCoder matches wallet and JSON-RPC errors that expose a numeric code.
type rpcCoder interface {
	ErrorCode() int
}

// IsUserRejection reports whether err is a wallet rejection (code 4001).
func IsUserRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	var coder rpcCoder
	if errors.As(err, &coder) && coder.ErrorCode() == UserRejectedCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}

// WrapEngineError classifies a failure coming from the engine, gateway or
// wallet. Errors that already carry a Kind, and context cancellations, are
// returned unchanged.
func WrapEngineError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if IsUserRejection(err) {
		return &Error{Kind: KindUserRejected, Op: op, Message: ErrUserRejected.Message, Err: err}
	}
	return &Error{Kind: KindEngineFailure, Op: op, Message: ErrEngineFailure.Message, Err: err}
}
