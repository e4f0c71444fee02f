// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/core/types"
	"github.com/spf13/cobra"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/binding"
	"github.com/luxfi/fhevm/contract"
)

var errUnsupportedArgType = errors.New("unsupported argument type")

type contractFlags struct {
	address string
	abi     string
	value   string
}

func (f *contractFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.address, "address", "a", "", "Contract address")
	cmd.Flags().StringVar(&f.abi, "abi", "", "Contract ABI as JSON or a path to a JSON file")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("abi")
}

// abiJSON returns the flag value if it is inline JSON, otherwise the contents
// of the file it names.
func (f *contractFlags) abiJSON() (string, error) {
	if strings.HasPrefix(strings.TrimSpace(f.abi), "[") {
		return f.abi, nil
	}
	b, err := os.ReadFile(f.abi)
	if err != nil {
		return "", fmt.Errorf("failed to read ABI file: %w", err)
	}
	return string(b), nil
}

func newContractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Call contract methods",
	}
	cmd.AddCommand(newContractReadCmd(), newContractWriteCmd())
	return cmd
}

func newContractReadCmd() *cobra.Command {
	var flags contractFlags
	cmd := &cobra.Command{
		Use:   "read METHOD [ARGS...]",
		Short: "Call a view method and print its outputs as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abiJSON, err := flags.abiJSON()
			if err != nil {
				return err
			}
			s, err := openSession(cmd, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.host.Close()

			callArgs, err := methodArgs(cmd, s.host, abiJSON, args[0], args[1:])
			if err != nil {
				return err
			}
			out, err := binding.NewReadOp(s.host).Read(cmd.Context(), contract.ReadParams{
				Address: flags.address,
				ABI:     abiJSON,
				Method:  args[0],
				Args:    callArgs,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	flags.register(cmd)
	return cmd
}

func newContractWriteCmd() *cobra.Command {
	var flags contractFlags
	cmd := &cobra.Command{
		Use:   "write METHOD [ARGS...]",
		Short: "Send a transaction and wait for its receipt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abiJSON, err := flags.abiJSON()
			if err != nil {
				return err
			}
			var value *big.Int
			if flags.value != "" {
				v, ok := new(big.Int).SetString(flags.value, 0)
				if !ok || v.Sign() < 0 {
					return fmt.Errorf("%w: invalid value %q", fhevm.ErrInvalidInput, flags.value)
				}
				value = v
			}
			s, err := openSession(cmd, sessionOptions{requireSigner: true})
			if err != nil {
				return err
			}
			defer s.host.Close()

			callArgs, err := methodArgs(cmd, s.host, abiJSON, args[0], args[1:])
			if err != nil {
				return err
			}
			receipt, err := binding.NewWriteOp(s.host).Write(cmd.Context(), contract.WriteParams{
				Address: flags.address,
				ABI:     abiJSON,
				Method:  args[0],
				Args:    callArgs,
				Value:   value,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summarizeReceipt(receipt))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.value, "value", "", "Wei to send with the transaction")
	return cmd
}

type receiptSummary struct {
	TxHash      common.Hash `json:"txHash"`
	BlockNumber *big.Int    `json:"blockNumber"`
	Status      uint64      `json:"status"`
	GasUsed     uint64      `json:"gasUsed"`
}

func summarizeReceipt(r *types.Receipt) receiptSummary {
	return receiptSummary{
		TxHash:      r.TxHash,
		BlockNumber: r.BlockNumber,
		Status:      r.Status,
		GasUsed:     r.GasUsed,
	}
}

// methodArgs converts command line arguments to the Go values the method's
// ABI inputs expect.
func methodArgs(cmd *cobra.Command, host *binding.Host, abiJSON, method string, raw []string) ([]any, error) {
	caller := host.Handle().Caller
	if caller == nil {
		return nil, fhevm.ErrNotInitialized
	}
	parsed, err := caller.ParseABI(cmd.Context(), abiJSON)
	if err != nil {
		return nil, err
	}
	m, ok := parsed.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: method %q not found in ABI", fhevm.ErrInvalidInput, method)
	}
	return convertArgs(m.Inputs, raw)
}

func convertArgs(inputs abi.Arguments, raw []string) ([]any, error) {
	if len(inputs) != len(raw) {
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", fhevm.ErrInvalidInput, len(inputs), len(raw))
	}
	out := make([]any, len(raw))
	for i, input := range inputs {
		v, err := convertArg(input.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d (%s %s): %w", fhevm.ErrInvalidInput, i, input.Type, input.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

// convertArg parses s as a value of t. Arrays and slices are given as JSON
// arrays.
func convertArg(t abi.Type, s string) (any, error) {
	s = strings.TrimSpace(s)
	switch t.T {
	case abi.UintTy, abi.IntTy:
		return convertInt(t, s)
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.AddressTy:
		if r := fhevm.ValidateAddress(s); !r.Valid {
			return nil, errors.New(r.Reason)
		}
		return common.HexToAddress(s), nil
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(b), t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return convertList(t, s)
	default:
		return nil, fmt.Errorf("%w %s", errUnsupportedArgType, t)
	}
}

func convertInt(t abi.Type, s string) (any, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	if t.T == abi.UintTy {
		if v.Sign() < 0 || v.BitLen() > t.Size {
			return nil, fmt.Errorf("%s out of range for %s", v, t)
		}
		switch t.Size {
		case 8:
			return uint8(v.Uint64()), nil
		case 16:
			return uint16(v.Uint64()), nil
		case 32:
			return uint32(v.Uint64()), nil
		case 64:
			return v.Uint64(), nil
		}
		return v, nil
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("%s out of range for %s", v, t)
	}
	switch t.Size {
	case 8:
		return int8(v.Int64()), nil
	case 16:
		return int16(v.Int64()), nil
	case 32:
		return int32(v.Int64()), nil
	case 64:
		return v.Int64(), nil
	}
	return v, nil
}

func convertList(t abi.Type, s string) (any, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("expected a JSON array: %w", err)
	}
	if t.T == abi.ArrayTy && len(items) != t.Size {
		return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(items))
	}

	var list reflect.Value
	if t.T == abi.ArrayTy {
		list = reflect.New(t.GetType()).Elem()
	} else {
		list = reflect.MakeSlice(t.GetType(), len(items), len(items))
	}
	for i, item := range items {
		// Elements may be JSON strings or bare numbers and booleans.
		var elem string
		if err := json.Unmarshal(item, &elem); err != nil {
			elem = string(item)
		}
		v, err := convertArg(*t.Elem, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		list.Index(i).Set(reflect.ValueOf(v))
	}
	return list.Interface(), nil
}
