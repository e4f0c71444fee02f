// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/spf13/cobra"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/binding"
	"github.com/luxfi/fhevm/insurance"
)

// openInsurance opens a session and binds the configured insurance contract.
// Reads and writes run as host operations.
func openInsurance(cmd *cobra.Command, write bool) (*session, *insurance.Client, error) {
	s, err := openSession(cmd, sessionOptions{requireSigner: write})
	if err != nil {
		return nil, nil, err
	}
	var writer insurance.Writer
	if write {
		writer = binding.NewWriteOp(s.host)
	}
	client := insurance.New(binding.NewReadOp(s.host), writer, s.cfg.InsuranceAddress)
	return s, client, nil
}

func parseID(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid ID %q", fhevm.ErrInvalidInput, s)
	}
	return v, nil
}

func parseAddress(s string) (common.Address, error) {
	if r := fhevm.ValidateAddress(s); !r.Valid {
		return common.Address{}, fmt.Errorf("%w: %s", fhevm.ErrInvalidInput, r.Reason)
	}
	return common.HexToAddress(s), nil
}

// farmerArg returns the address argument if given, else the signer's.
func farmerArg(s *session, args []string) (common.Address, error) {
	if len(args) == 1 {
		return parseAddress(args[0])
	}
	if s.signer == nil {
		return common.Address{}, fmt.Errorf("%w: pass a farmer address or configure a signer", fhevm.ErrInvalidInput)
	}
	return s.signer.Address(), nil
}

func newInsuranceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insurance",
		Short: "Use the private agriculture insurance contract",
	}
	cmd.AddCommand(
		newCreatePolicyCmd(),
		newSubmitClaimCmd(),
		newPolicyCmd(),
		newClaimCmd(),
		newPoliciesCmd(),
		newClaimsCmd(),
		newStatsCmd(),
		newAssessorCmd(),
		newClaimActionCmd("assign CLAIM ASSESSOR", "Assign an assessor to a claim", 2,
			func(cmd *cobra.Command, c *insurance.Client, id *big.Int, args []string) (*types.Receipt, error) {
				assessor, err := parseAddress(args[1])
				if err != nil {
					return nil, err
				}
				return c.AssignAssessor(cmd.Context(), id, assessor)
			}),
		newAssessCmd(),
		newClaimActionCmd("decide CLAIM", "Process the decision for an assessed claim", 1,
			func(cmd *cobra.Command, c *insurance.Client, id *big.Int, _ []string) (*types.Receipt, error) {
				return c.ProcessClaimDecision(cmd.Context(), id)
			}),
		newClaimActionCmd("pay CLAIM", "Pay an approved claim", 1,
			func(cmd *cobra.Command, c *insurance.Client, id *big.Int, _ []string) (*types.Receipt, error) {
				return c.PayClaim(cmd.Context(), id)
			}),
	)
	return cmd
}

func newCreatePolicyCmd() *cobra.Command {
	var (
		req      insurance.PolicyRequest
		crop     string
		farmSize string
	)
	cmd := &cobra.Command{
		Use:   "create-policy",
		Short: "Create an insurance policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.CropType, err = insurance.ParseCropType(crop); err != nil {
				return fmt.Errorf("%w: %w", fhevm.ErrInvalidInput, err)
			}
			if req.FarmSize, err = parseID(farmSize); err != nil {
				return err
			}
			s, c, err := openInsurance(cmd, true)
			if err != nil {
				return err
			}
			defer s.host.Close()

			receipt, err := c.CreatePolicy(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summarizeReceipt(receipt))
		},
	}
	cmd.Flags().Uint32Var(&req.Coverage, "coverage", 0, "Coverage amount")
	cmd.Flags().Uint32Var(&req.Premium, "premium", 0, "Premium amount")
	cmd.Flags().StringVar(&crop, "crop", "Wheat", "Crop type: Wheat, Corn, Rice, Soybeans, Cotton or Other")
	cmd.Flags().StringVar(&farmSize, "farm-size", "", "Farm size")
	cmd.Flags().Uint64Var(&req.DurationDays, "days", 365, "Policy duration in days")
	cmd.Flags().StringVar(&req.IPFSHash, "ipfs", "", "IPFS hash of the policy documents")
	_ = cmd.MarkFlagRequired("coverage")
	_ = cmd.MarkFlagRequired("premium")
	_ = cmd.MarkFlagRequired("farm-size")
	return cmd
}

func newSubmitClaimCmd() *cobra.Command {
	var (
		req    insurance.ClaimRequest
		policy string
		risk   string
	)
	cmd := &cobra.Command{
		Use:   "submit-claim",
		Short: "Submit a claim against a policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.PolicyID, err = parseID(policy); err != nil {
				return err
			}
			if req.RiskType, err = insurance.ParseRiskFactor(risk); err != nil {
				return fmt.Errorf("%w: %w", fhevm.ErrInvalidInput, err)
			}
			s, c, err := openInsurance(cmd, true)
			if err != nil {
				return err
			}
			defer s.host.Close()

			receipt, err := c.SubmitClaim(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summarizeReceipt(receipt))
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "", "Policy ID")
	cmd.Flags().Uint32Var(&req.DamageAmount, "damage", 0, "Damage amount")
	cmd.Flags().Uint32Var(&req.ClaimAmount, "amount", 0, "Claimed amount")
	cmd.Flags().StringVar(&risk, "risk", "Drought", "Risk factor: Drought, Flood, Hail, Frost, Disease or Pest")
	cmd.Flags().StringVar(&req.EvidenceHash, "evidence", "", "IPFS hash of the evidence")
	_ = cmd.MarkFlagRequired("policy")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy ID",
		Short: "Show a policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, c, err := openInsurance(cmd, false)
			if err != nil {
				return err
			}
			defer s.host.Close()

			p, err := c.GetPolicyDetails(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim ID",
		Short: "Show a claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, c, err := openInsurance(cmd, false)
			if err != nil {
				return err
			}
			defer s.host.Close()

			claim, err := c.GetClaimDetails(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), claimView{Claim: claim, StatusName: claim.Status.String()})
		},
	}
}

// claimView adds readable enum names to a claim.
type claimView struct {
	*insurance.Claim
	StatusName string `json:"statusName"`
}

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies [FARMER]",
		Short: "List a farmer's policies, by default the signer's",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := openInsurance(cmd, false)
			if err != nil {
				return err
			}
			defer s.host.Close()

			farmer, err := farmerArg(s, args)
			if err != nil {
				return err
			}
			policies, err := c.FarmerPolicies(cmd.Context(), farmer)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), policies)
		},
	}
}

func newClaimsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claims [FARMER]",
		Short: "List a farmer's claims, by default the signer's",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := openInsurance(cmd, false)
			if err != nil {
				return err
			}
			defer s.host.Close()

			farmer, err := farmerArg(s, args)
			if err != nil {
				return err
			}
			claims, err := c.FarmerClaims(cmd.Context(), farmer)
			if err != nil {
				return err
			}
			views := make([]claimView, len(claims))
			for i, claim := range claims {
				views[i] = claimView{Claim: claim, StatusName: claim.Status.String()}
			}
			return printJSON(cmd.OutOrStdout(), views)
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show system-wide policy and claim counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, c, err := openInsurance(cmd, false)
			if err != nil {
				return err
			}
			defer s.host.Close()

			stats, err := c.GetSystemStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

// assessorAction has the shape of an insurance.Client method expression.
type assessorAction func(c *insurance.Client, ctx context.Context, assessor common.Address) (*types.Receipt, error)

func newAssessorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assessor",
		Short: "Manage authorized assessors",
	}
	cmd.AddCommand(
		newAssessorActionCmd("authorize ADDRESS", "Authorize an assessor", (*insurance.Client).AuthorizeAssessor),
		newAssessorActionCmd("revoke ADDRESS", "Revoke an assessor", (*insurance.Client).RevokeAssessor),
	)
	return cmd
}

func newAssessorActionCmd(use, short string, action assessorAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assessor, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			s, c, err := openInsurance(cmd, true)
			if err != nil {
				return err
			}
			defer s.host.Close()

			receipt, err := action(c, cmd.Context(), assessor)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summarizeReceipt(receipt))
		},
	}
}

func newAssessCmd() *cobra.Command {
	var req insurance.AssessmentRequest
	cmd := &cobra.Command{
		Use:   "assess CLAIM",
		Short: "Record an assessment for a claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.ClaimID, err = parseID(args[0]); err != nil {
				return err
			}
			s, c, err := openInsurance(cmd, true)
			if err != nil {
				return err
			}
			defer s.host.Close()

			receipt, err := c.PerformAssessment(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summarizeReceipt(receipt))
		},
	}
	cmd.Flags().Uint32Var(&req.ActualYield, "actual-yield", 0, "Actual yield")
	cmd.Flags().Uint32Var(&req.ExpectedYield, "expected-yield", 0, "Expected yield")
	cmd.Flags().Uint32Var(&req.LossPercentage, "loss", 0, "Loss percentage")
	cmd.Flags().Uint32Var(&req.WeatherImpact, "weather-impact", 0, "Weather impact score")
	return cmd
}

type claimAction func(cmd *cobra.Command, c *insurance.Client, claimID *big.Int, args []string) (*types.Receipt, error)

func newClaimActionCmd(use, short string, nargs int, action claimAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, c, err := openInsurance(cmd, true)
			if err != nil {
				return err
			}
			defer s.host.Close()

			receipt, err := action(cmd, c, id, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summarizeReceipt(receipt))
		},
	}
}
