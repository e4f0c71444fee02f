// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package insurance

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/geth/common"
)

type CropType uint8

const (
	Wheat CropType = iota
	Corn
	Rice
	Soybeans
	Cotton
	OtherCrop
)

var cropTypeNames = []string{"Wheat", "Corn", "Rice", "Soybeans", "Cotton", "Other"}

func (c CropType) String() string {
	if int(c) < len(cropTypeNames) {
		return cropTypeNames[c]
	}
	return fmt.Sprintf("CropType(%d)", uint8(c))
}

func (c CropType) Valid() bool { return int(c) < len(cropTypeNames) }

func ParseCropType(s string) (CropType, error) {
	i, err := parseEnum(s, cropTypeNames)
	return CropType(i), err
}

type RiskFactor uint8

const (
	Drought RiskFactor = iota
	Flood
	Hail
	Frost
	Disease
	Pest
)

var riskFactorNames = []string{"Drought", "Flood", "Hail", "Frost", "Disease", "Pest"}

func (r RiskFactor) String() string {
	if int(r) < len(riskFactorNames) {
		return riskFactorNames[r]
	}
	return fmt.Sprintf("RiskFactor(%d)", uint8(r))
}

func (r RiskFactor) Valid() bool { return int(r) < len(riskFactorNames) }

func ParseRiskFactor(s string) (RiskFactor, error) {
	i, err := parseEnum(s, riskFactorNames)
	return RiskFactor(i), err
}

type ClaimStatus uint8

const (
	Submitted ClaimStatus = iota
	UnderReview
	Approved
	Rejected
	Paid
)

var claimStatusNames = []string{"Submitted", "Under Review", "Approved", "Rejected", "Paid"}

func (s ClaimStatus) String() string {
	if int(s) < len(claimStatusNames) {
		return claimStatusNames[s]
	}
	return fmt.Sprintf("ClaimStatus(%d)", uint8(s))
}

// parseEnum accepts a case-insensitive name or the numeric value.
func parseEnum(s string, names []string) (uint8, error) {
	s = strings.TrimSpace(s)
	for i, name := range names {
		if strings.EqualFold(s, name) {
			return uint8(i), nil
		}
	}
	var n uint8
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && int(n) < len(names) && fmt.Sprint(n) == s {
		return n, nil
	}
	return 0, fmt.Errorf("%w: %q is not one of %s", errUnknownEnum, s, strings.Join(names, ", "))
}

type Policy struct {
	PolicyID  *big.Int       `json:"policyId"`
	Farmer    common.Address `json:"farmer"`
	CropType  CropType       `json:"cropType"`
	FarmSize  *big.Int       `json:"farmSize"`
	CreatedAt *big.Int       `json:"createdAt"`
	ExpiresAt *big.Int       `json:"expiresAt"`
	IsActive  bool           `json:"isActive"`
	IPFSHash  string         `json:"ipfsHash"`
}

type Claim struct {
	ClaimID      *big.Int       `json:"claimId"`
	PolicyID     *big.Int       `json:"policyId"`
	Farmer       common.Address `json:"farmer"`
	RiskType     RiskFactor     `json:"riskType"`
	Status       ClaimStatus    `json:"status"`
	SubmittedAt  *big.Int       `json:"submittedAt"`
	ReviewedAt   *big.Int       `json:"reviewedAt"`
	PaidAt       *big.Int       `json:"paidAt"`
	EvidenceHash string         `json:"evidenceHash"`
}

type SystemStats struct {
	TotalPolicies  *big.Int `json:"totalPolicies"`
	TotalClaims    *big.Int `json:"totalClaims"`
	ActivePolicies *big.Int `json:"activePolicies"`
}

type PolicyRequest struct {
	Coverage     uint32
	Premium      uint32
	CropType     CropType
	FarmSize     *big.Int
	DurationDays uint64
	IPFSHash     string
}

type ClaimRequest struct {
	PolicyID     *big.Int
	DamageAmount uint32
	ClaimAmount  uint32
	RiskType     RiskFactor
	EvidenceHash string
}

type AssessmentRequest struct {
	ClaimID        *big.Int
	ActualYield    uint32
	ExpectedYield  uint32
	LossPercentage uint32
	WeatherImpact  uint32
}
