// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package insurance binds the private agriculture insurance demo contract.
// Policy and claim rules live on-chain; this package only shapes calls and
// decodes results.
package insurance

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/contract"
)

const secondsPerDay = 86400

var (
	errUnknownEnum    = errors.New("unknown value")
	errUnexpectedType = errors.New("unexpected output type")
)

// Reader is satisfied by *contract.Caller and *binding.ReadOp.
type Reader interface {
	Read(ctx context.Context, p contract.ReadParams) ([]any, error)
}

// Writer is satisfied by *contract.Caller and *binding.WriteOp.
type Writer interface {
	Write(ctx context.Context, p contract.WriteParams) (*types.Receipt, error)
}

type Client struct {
	reader  Reader
	writer  Writer
	address string
}

// New binds the contract at address, or at ContractAddress when empty.
// writer may be nil for read-only use.
func New(reader Reader, writer Writer, address string) *Client {
	if address == "" {
		address = ContractAddress
	}
	return &Client{reader: reader, writer: writer, address: address}
}

func (c *Client) Address() string {
	return c.address
}

func (c *Client) read(ctx context.Context, method string, args ...any) ([]any, error) {
	return c.reader.Read(ctx, contract.ReadParams{
		Address: c.address,
		ABI:     ABI,
		Method:  method,
		Args:    args,
	})
}

func (c *Client) write(ctx context.Context, method string, args ...any) (*types.Receipt, error) {
	if c.writer == nil {
		return nil, &fhevm.Error{Kind: fhevm.KindSignerUnavailable, Op: method, Message: fhevm.ErrSignerUnavailable.Message}
	}
	return c.writer.Write(ctx, contract.WriteParams{
		Address: c.address,
		ABI:     ABI,
		Method:  method,
		Args:    args,
	})
}

func (c *Client) CreatePolicy(ctx context.Context, req PolicyRequest) (*types.Receipt, error) {
	const op = "createPolicy"
	if !req.CropType.Valid() {
		return nil, invalid(op, "unknown crop type %d", uint8(req.CropType))
	}
	if req.FarmSize == nil || req.FarmSize.Sign() <= 0 {
		return nil, invalid(op, "farm size must be positive")
	}
	if req.DurationDays == 0 {
		return nil, invalid(op, "duration must be at least one day")
	}
	duration := new(big.Int).Mul(new(big.Int).SetUint64(req.DurationDays), big.NewInt(secondsPerDay))
	return c.write(ctx, op,
		req.Coverage,
		req.Premium,
		uint8(req.CropType),
		req.FarmSize,
		duration,
		req.IPFSHash,
	)
}

func (c *Client) SubmitClaim(ctx context.Context, req ClaimRequest) (*types.Receipt, error) {
	const op = "submitClaim"
	if req.PolicyID == nil || req.PolicyID.Sign() < 0 {
		return nil, invalid(op, "policy ID is required")
	}
	if !req.RiskType.Valid() {
		return nil, invalid(op, "unknown risk type %d", uint8(req.RiskType))
	}
	return c.write(ctx, op,
		req.PolicyID,
		req.DamageAmount,
		req.ClaimAmount,
		uint8(req.RiskType),
		req.EvidenceHash,
	)
}

func (c *Client) AuthorizeAssessor(ctx context.Context, assessor common.Address) (*types.Receipt, error) {
	return c.write(ctx, "authorizeAssessor", assessor)
}

func (c *Client) RevokeAssessor(ctx context.Context, assessor common.Address) (*types.Receipt, error) {
	return c.write(ctx, "revokeAssessor", assessor)
}

func (c *Client) AssignAssessor(ctx context.Context, claimID *big.Int, assessor common.Address) (*types.Receipt, error) {
	return c.write(ctx, "assignAssessor", claimID, assessor)
}

func (c *Client) PerformAssessment(ctx context.Context, req AssessmentRequest) (*types.Receipt, error) {
	return c.write(ctx, "performAssessment",
		req.ClaimID,
		req.ActualYield,
		req.ExpectedYield,
		req.LossPercentage,
		req.WeatherImpact,
	)
}

func (c *Client) ProcessClaimDecision(ctx context.Context, claimID *big.Int) (*types.Receipt, error) {
	return c.write(ctx, "processClaimDecision", claimID)
}

func (c *Client) PayClaim(ctx context.Context, claimID *big.Int) (*types.Receipt, error) {
	return c.write(ctx, "payClaim", claimID)
}

func (c *Client) GetPolicyDetails(ctx context.Context, policyID *big.Int) (*Policy, error) {
	const op = "getPolicyDetails"
	out, err := c.read(ctx, op, policyID)
	if err != nil {
		return nil, err
	}
	d := decoder{op: op, out: out}
	p := &Policy{
		PolicyID:  new(big.Int).Set(policyID),
		Farmer:    d.address(0),
		CropType:  CropType(d.uint8(1)),
		FarmSize:  d.bigInt(2),
		CreatedAt: d.bigInt(3),
		ExpiresAt: d.bigInt(4),
		IsActive:  d.bool(5),
		IPFSHash:  d.string(6),
	}
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}

func (c *Client) GetClaimDetails(ctx context.Context, claimID *big.Int) (*Claim, error) {
	const op = "getClaimDetails"
	out, err := c.read(ctx, op, claimID)
	if err != nil {
		return nil, err
	}
	d := decoder{op: op, out: out}
	claim := &Claim{
		ClaimID:      new(big.Int).Set(claimID),
		PolicyID:     d.bigInt(0),
		Farmer:       d.address(1),
		RiskType:     RiskFactor(d.uint8(2)),
		Status:       ClaimStatus(d.uint8(3)),
		SubmittedAt:  d.bigInt(4),
		ReviewedAt:   d.bigInt(5),
		PaidAt:       d.bigInt(6),
		EvidenceHash: d.string(7),
	}
	if d.err != nil {
		return nil, d.err
	}
	return claim, nil
}

func (c *Client) GetFarmerPolicies(ctx context.Context, farmer common.Address) ([]*big.Int, error) {
	const op = "getFarmerPolicies"
	out, err := c.read(ctx, op, farmer)
	if err != nil {
		return nil, err
	}
	d := decoder{op: op, out: out}
	ids := d.bigInts(0)
	if d.err != nil {
		return nil, d.err
	}
	return ids, nil
}

func (c *Client) GetFarmerClaims(ctx context.Context, farmer common.Address) ([]*big.Int, error) {
	const op = "getFarmerClaims"
	out, err := c.read(ctx, op, farmer)
	if err != nil {
		return nil, err
	}
	d := decoder{op: op, out: out}
	ids := d.bigInts(0)
	if d.err != nil {
		return nil, d.err
	}
	return ids, nil
}

func (c *Client) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	const op = "getSystemStats"
	out, err := c.read(ctx, op)
	if err != nil {
		return nil, err
	}
	d := decoder{op: op, out: out}
	stats := &SystemStats{
		TotalPolicies:  d.bigInt(0),
		TotalClaims:    d.bigInt(1),
		ActivePolicies: d.bigInt(2),
	}
	if d.err != nil {
		return nil, d.err
	}
	return stats, nil
}

// FarmerPolicies loads the details of every policy held by farmer.
func (c *Client) FarmerPolicies(ctx context.Context, farmer common.Address) ([]*Policy, error) {
	ids, err := c.GetFarmerPolicies(ctx, farmer)
	if err != nil {
		return nil, err
	}
	policies := make([]*Policy, 0, len(ids))
	for _, id := range ids {
		p, err := c.GetPolicyDetails(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", id, err)
		}
		policies = append(policies, p)
	}
	return policies, nil
}

// FarmerClaims loads the details of every claim submitted by farmer.
func (c *Client) FarmerClaims(ctx context.Context, farmer common.Address) ([]*Claim, error) {
	ids, err := c.GetFarmerClaims(ctx, farmer)
	if err != nil {
		return nil, err
	}
	claims := make([]*Claim, 0, len(ids))
	for _, id := range ids {
		claim, err := c.GetClaimDetails(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("claim %s: %w", id, err)
		}
		claims = append(claims, claim)
	}
	return claims, nil
}

func invalid(op, format string, args ...any) error {
	return &fhevm.Error{Kind: fhevm.KindInvalidInput, Op: op, Message: fmt.Sprintf(format, args...)}
}

// decoder pulls typed values out of unpacked outputs, keeping the first
// failure.
type decoder struct {
	op  string
	out []any
	err error
}

func (d *decoder) get(i int) any {
	if d.err != nil {
		return nil
	}
	if i >= len(d.out) {
		d.err = fmt.Errorf("%s: %w: missing output %d", d.op, errUnexpectedType, i)
		return nil
	}
	return d.out[i]
}

func (d *decoder) fail(i int, v any) {
	if d.err == nil {
		d.err = fmt.Errorf("%s: %w: output %d is %T", d.op, errUnexpectedType, i, v)
	}
}

func (d *decoder) bigInt(i int) *big.Int {
	v := d.get(i)
	if b, ok := v.(*big.Int); ok {
		return b
	}
	d.fail(i, v)
	return nil
}

func (d *decoder) bigInts(i int) []*big.Int {
	v := d.get(i)
	if b, ok := v.([]*big.Int); ok {
		return b
	}
	d.fail(i, v)
	return nil
}

func (d *decoder) uint8(i int) uint8 {
	v := d.get(i)
	if b, ok := v.(uint8); ok {
		return b
	}
	d.fail(i, v)
	return 0
}

func (d *decoder) address(i int) common.Address {
	v := d.get(i)
	if a, ok := v.(common.Address); ok {
		return a
	}
	d.fail(i, v)
	return common.Address{}
}

func (d *decoder) bool(i int) bool {
	v := d.get(i)
	if b, ok := v.(bool); ok {
		return b
	}
	d.fail(i, v)
	return false
}

func (d *decoder) string(i int) string {
	v := d.get(i)
	if s, ok := v.(string); ok {
		return s
	}
	d.fail(i, v)
	return ""
}
