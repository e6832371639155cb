package model

import "time"

// RestrictionType identifies the kind of trade restriction a registry entry
// imposes.
type RestrictionType string

// Restriction types.
const (
	RestrictionProhibited RestrictionType = "prohibited"
	RestrictionRestricted RestrictionType = "restricted"
	RestrictionControlled RestrictionType = "controlled"
	RestrictionQuota      RestrictionType = "quota"
	RestrictionLicense    RestrictionType = "license"
	RestrictionDuty       RestrictionType = "duty"
)

// Valid reports whether the restriction type is a known variant.
func (r RestrictionType) Valid() bool {
	switch r {
	case RestrictionProhibited, RestrictionRestricted, RestrictionControlled,
		RestrictionQuota, RestrictionLicense, RestrictionDuty:
		return true
	}
	return false
}

// WildcardCountry matches any destination country in a restriction entry.
const WildcardCountry = "*"

// TradeRestriction is one entry in the restriction registry. Country is an
// ISO 3166-1 alpha-2 code or the wildcard "*"; HSCodePattern is a regular
// expression tested against the full HS code.
type TradeRestriction struct {
	EffectiveDate time.Time       `json:"effective_date" yaml:"effective_date"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty" yaml:"expiry_date,omitempty"`
	ID            string          `json:"id" yaml:"id" validate:"required"`
	Country       string          `json:"country" yaml:"country" validate:"required"`
	HSCodePattern string          `json:"hs_code_pattern" yaml:"hs_code_pattern" validate:"required"`
	Type          RestrictionType `json:"type" yaml:"type" validate:"required"`
	Description   string          `json:"description,omitempty" yaml:"description,omitempty"`
	Severity      Severity        `json:"severity" yaml:"severity" validate:"required"`
	Requirements  []string        `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// ActiveAt reports whether the restriction is temporally applicable:
// now must fall in [EffectiveDate, ExpiryDate).
func (r TradeRestriction) ActiveAt(now time.Time) bool {
	if now.Before(r.EffectiveDate) {
		return false
	}
	if r.ExpiryDate != nil && !now.Before(*r.ExpiryDate) {
		return false
	}
	return true
}

// ComplianceCheck is the input to a compliance lookup.
type ComplianceCheck struct {
	ProductValue       *float64 `json:"product_value,omitempty"`
	HSCode             HSCode   `json:"hs_code"`
	OriginCountry      string   `json:"origin_country"`
	DestinationCountry string   `json:"destination_country"`
}

// WarningType categorizes a compliance warning.
type WarningType string

// Compliance warning types.
const (
	WarningRestriction   WarningType = "restriction"
	WarningLicensing     WarningType = "licensing"
	WarningQuota         WarningType = "quota"
	WarningDocumentation WarningType = "documentation"
)

// ComplianceWarning is a deterministic warning derived from matched
// restrictions and shipment attributes.
type ComplianceWarning struct {
	Type           WarningType `json:"type"`
	Severity       Severity    `json:"severity"`
	Message        string      `json:"message"`
	ActionRequired bool        `json:"action_required"`
}

// RequirementKind buckets a free-text requirement by substring heuristics.
type RequirementKind string

// Requirement kinds.
const (
	RequirementLicense       RequirementKind = "license"
	RequirementCertificate   RequirementKind = "certificate"
	RequirementInspection    RequirementKind = "inspection"
	RequirementDocumentation RequirementKind = "documentation"
)

// ComplianceRequirement is a classified requirement with estimated cost and
// processing time.
type ComplianceRequirement struct {
	Kind           RequirementKind `json:"kind"`
	Description    string          `json:"description"`
	ProcessingTime string          `json:"processing_time"`
	EstimatedCost  float64         `json:"estimated_cost"`
	Mandatory      bool            `json:"mandatory"`
}

// AdditionalFee is a destination-specific customs fee (e.g. US MPF/HMF).
type AdditionalFee struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// RiskLevel grades the overall compliance risk of a shipment.
type RiskLevel string

// Risk levels, lowest to highest.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AtLeast reports whether the level is at or above the given level.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.rank() >= other.rank()
}

func (r RiskLevel) rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// ComplianceResult is the outcome of a compliance lookup.
type ComplianceResult struct {
	RiskLevel         RiskLevel               `json:"risk_level"`
	Restrictions      []TradeRestriction      `json:"restrictions"`
	Warnings          []ComplianceWarning     `json:"warnings"`
	Requirements      []ComplianceRequirement `json:"requirements"`
	AdditionalFees    []AdditionalFee         `json:"additional_fees"`
	EstimatedDutyRate float64                 `json:"estimated_duty_rate"`
	Compliant         bool                    `json:"compliant"`
}
