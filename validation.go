// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidationResult reports whether an input passed a check and, if not, why.
type ValidationResult struct {
	Valid  bool
	Reason string
}

func valid() ValidationResult { return ValidationResult{Valid: true} }

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{Reason: fmt.Sprintf(format, args...)}
}

// SupportedWidth reports whether width is one of the unsigned integer widths
// accepted for encryption.
func SupportedWidth(width int) bool {
	switch width {
	case 8, 16, 32, 64:
		return true
	default:
		return false
	}
}

// MaxValue returns 2^width-1, or nil for an unsupported width.
func MaxValue(width int) *big.Int {
	if !SupportedWidth(width) {
		return nil
	}
	max := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return max.Sub(max, big.NewInt(1))
}

// ValidateRange passes iff value is within [0, 2^width-1] for a supported width.
func ValidateRange(value *big.Int, width int) ValidationResult {
	if !SupportedWidth(width) {
		return invalid("unsupported bit width %d", width)
	}
	if value == nil {
		return invalid("value is required")
	}
	if value.Sign() < 0 {
		return invalid("value %s is negative", value)
	}
	if value.Cmp(MaxValue(width)) > 0 {
		return invalid("value %s exceeds %d-bit maximum %s", value, width, MaxValue(width))
	}
	return valid()
}

// ValidateAddress passes iff s is a 0x-prefixed 20-byte hex address.
func ValidateAddress(s string) ValidationResult {
	if !addressPattern.MatchString(s) {
		return invalid("invalid contract address %q", s)
	}
	return valid()
}

// ValidateArgs checks an argument list against the expected ABI input count.
func ValidateArgs(args []any, expected int) ValidationResult {
	if len(args) != expected {
		return invalid("expected %d arguments, got %d", expected, len(args))
	}
	return valid()
}

// SanitizeInput trims whitespace and strips angle brackets.
func SanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}

// ParseUnsigned parses a decimal or 0x-prefixed hex integer and checks it
// against width.
func ParseUnsigned(s string, width int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, invalidInput("parse", "%q is not an integer", s)
	}
	if err := checkRange("parse", v, width); err != nil {
		return nil, err
	}
	return v, nil
}

func checkRange(op string, value *big.Int, width int) error {
	if r := ValidateRange(value, width); !r.Valid {
		return invalidInput(op, "%s", r.Reason)
	}
	return nil
}

func checkAddress(op, s string) error {
	if r := ValidateAddress(s); !r.Valid {
		return invalidInput(op, "%s", r.Reason)
	}
	return nil
}

// ParseBool accepts "true" and "false" in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, invalidInput("parse", "%q is not a boolean", s)
}
