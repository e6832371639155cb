package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// DecisionSource indicates where the chosen HS code came from.
type DecisionSource string

// Decision sources.
const (
	SourceAI     DecisionSource = "ai"
	SourceRules  DecisionSource = "rules"
	SourceHybrid DecisionSource = "hybrid"
)

// Disposition is the final routing outcome of one classification request.
type Disposition string

// Dispositions.
const (
	DispositionApproved       Disposition = "approved"
	DispositionReviewRequired Disposition = "review-required"
	DispositionRejected       Disposition = "rejected"
	DispositionEscalated      Disposition = "escalated"
)

// Product describes the item being classified. Description, Category,
// OriginCountry, DestinationCountry and Value are the required fields; the
// confidence assessor penalizes requests that omit them.
type Product struct {
	Value              *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Description        string   `json:"description" yaml:"description"`
	Category           string   `json:"category,omitempty" yaml:"category,omitempty"`
	OriginCountry      string   `json:"origin_country,omitempty" yaml:"origin_country,omitempty"`
	DestinationCountry string   `json:"destination_country,omitempty" yaml:"destination_country,omitempty"`
	Materials          []string `json:"materials,omitempty" yaml:"materials,omitempty"`
	IntendedUse        string   `json:"intended_use,omitempty" yaml:"intended_use,omitempty"`
}

// MissingRequiredFields lists the required product fields that are absent.
func (p Product) MissingRequiredFields() []string {
	var missing []string
	if strings.TrimSpace(p.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(p.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(p.OriginCountry) == "" {
		missing = append(missing, "origin_country")
	}
	if strings.TrimSpace(p.DestinationCountry) == "" {
		missing = append(missing, "destination_country")
	}
	if p.Value == nil {
		missing = append(missing, "value")
	}
	return missing
}

// Hash returns a stable key for the product, used for caching and history
// lookups.
func (p Product) Hash() string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(p.Description))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(p.Category)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToUpper(p.OriginCountry)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToUpper(p.DestinationCountry)))
	return hex.EncodeToString(h.Sum(nil))
}

// ClassificationRequest is one unit of work for the pipeline. Adjustments
// carry optional reviewer-supplied confidence deltas.
type ClassificationRequest struct {
	ID          string                 `json:"id" yaml:"id"`
	Product     Product                `json:"product" yaml:"product"`
	Adjustments []ConfidenceAdjustment `json:"adjustments,omitempty" yaml:"adjustments,omitempty"`
}

// ClassificationDecision is the final, auditable decision for one request.
type ClassificationDecision struct {
	DecidedAt      time.Time      `json:"decided_at"`
	RequestID      string         `json:"request_id"`
	ProductHash    string         `json:"product_hash"`
	HSCode         HSCode         `json:"hs_code"`
	Source         DecisionSource `json:"source"`
	SourceName     string         `json:"source_name,omitempty"`
	Disposition    Disposition    `json:"disposition"`
	Reasoning      string         `json:"reasoning,omitempty"`
	AppliedRules   []string       `json:"applied_rules"`
	Flags          []RuleFlag     `json:"flags"`
	Confidence     float64        `json:"confidence"`
	RequiresReview bool           `json:"requires_review"`
	AutoApproved   bool           `json:"auto_approved"`
}
