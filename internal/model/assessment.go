package model

import "time"

// ReliabilityTier bands a calibrated confidence score qualitatively.
type ReliabilityTier string

// Reliability tiers, lowest to highest.
const (
	ReliabilityVeryLow  ReliabilityTier = "very-low"
	ReliabilityLow      ReliabilityTier = "low"
	ReliabilityMedium   ReliabilityTier = "medium"
	ReliabilityHigh     ReliabilityTier = "high"
	ReliabilityVeryHigh ReliabilityTier = "very-high"
)

// ComponentScores are the five fused confidence inputs, each on a 0-100
// scale.
type ComponentScores struct {
	AIModel               float64 `json:"ai_model"`
	Validation            float64 `json:"validation"`
	BusinessRules         float64 `json:"business_rules"`
	HistoricalConsistency float64 `json:"historical_consistency"`
	UserFeedback          float64 `json:"user_feedback"`
}

// ConfidenceFactor is a qualitative signal extracted from the request
// context. Impact is in [-30, 30]; Weight in [0, 1].
type ConfidenceFactor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Source      string  `json:"source"`
	Impact      float64 `json:"impact"`
	Weight      float64 `json:"weight"`
}

// ConfidenceAdjustment is a manual delta applied on top of the computed
// score.
type ConfidenceAdjustment struct {
	AdjustedAt time.Time `json:"adjusted_at"`
	Reason     string    `json:"reason"`
	AdjustedBy string    `json:"adjusted_by"`
	Delta      float64   `json:"delta"`
}

// ConfidenceAssessment is the fused, calibrated confidence picture for one
// classification.
type ConfidenceAssessment struct {
	Components  ComponentScores        `json:"components"`
	Factors     []ConfidenceFactor     `json:"factors"`
	Adjustments []ConfidenceAdjustment `json:"adjustments"`
	FinalScore  float64                `json:"final_score"`
	Reliability ReliabilityTier        `json:"reliability"`
}

// NegativeFactors counts factors with negative impact.
func (a ConfidenceAssessment) NegativeFactors() int {
	n := 0
	for _, f := range a.Factors {
		if f.Impact < 0 {
			n++
		}
	}
	return n
}

// PriorClassification is a historical classification of the same product,
// used for the historical-consistency component.
type PriorClassification struct {
	ClassifiedAt time.Time `json:"classified_at"`
	HSCode       HSCode    `json:"hs_code"`
	Confidence   float64   `json:"confidence"`
}
