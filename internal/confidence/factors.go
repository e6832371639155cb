package confidence

import (
	"fmt"

	"github.com/tradewind/tariffflow/internal/model"
)

// Description thresholds for the content factors.
const (
	detailedDescriptionChars = 100
	detailedDescriptionWords = 15
	sparseDescriptionChars   = 30
	sparseDescriptionWords   = 5
)

// missingFieldPenalty is the per-field impact of incomplete requests,
// floored at maxNegativeImpact.
const (
	missingFieldPenalty = -7.5
	maxNegativeImpact   = -30.0
)

// factorInput is the numeric context the factor table is evaluated against.
type factorInput struct {
	ai         float64
	validation float64
	historical float64
	descChars  int
	descWords  int
}

// factorRule is one declarative qualitative-factor definition.
type factorRule struct {
	applies     func(in factorInput) bool
	name        string
	source      string
	description string
	impact      float64
	weight      float64
}

var factorRules = []factorRule{
	{
		name:        "detailed-description",
		source:      "content",
		description: "Product description is long and specific",
		impact:      10,
		weight:      0.8,
		applies: func(in factorInput) bool {
			return in.descChars >= detailedDescriptionChars && in.descWords >= detailedDescriptionWords
		},
	},
	{
		name:        "sparse-description",
		source:      "content",
		description: "Product description is too short to classify reliably",
		impact:      -20,
		weight:      0.9,
		applies: func(in factorInput) bool {
			return in.descChars < sparseDescriptionChars || in.descWords < sparseDescriptionWords
		},
	},
	{
		name:        "ai-high-confidence",
		source:      "ai-model",
		description: "AI source reported very high confidence",
		impact:      15,
		weight:      1.0,
		applies:     func(in factorInput) bool { return in.ai >= 90 },
	},
	{
		name:        "ai-low-confidence",
		source:      "ai-model",
		description: "AI source reported low confidence",
		impact:      -25,
		weight:      1.0,
		applies:     func(in factorInput) bool { return in.ai < 60 },
	},
	{
		name:        "validation-strong",
		source:      "validation",
		description: "HS code passed validation with a strong score",
		impact:      10,
		weight:      0.9,
		applies:     func(in factorInput) bool { return in.validation >= 90 },
	},
	{
		name:        "validation-weak",
		source:      "validation",
		description: "HS code validation raised significant issues",
		impact:      -15,
		weight:      0.9,
		applies:     func(in factorInput) bool { return in.validation < 70 },
	},
	{
		name:        "history-consistent",
		source:      "historical",
		description: "Prior classifications of this product agree on the chapter",
		impact:      10,
		weight:      0.7,
		applies:     func(in factorInput) bool { return in.historical >= 80 },
	},
	{
		name:        "history-inconsistent",
		source:      "historical",
		description: "Prior classifications of this product disagree",
		impact:      -15,
		weight:      0.7,
		applies:     func(in factorInput) bool { return in.historical < 40 },
	},
}

// detectFactors evaluates the declarative factor table plus the dynamic
// missing-fields penalty.
func detectFactors(components model.ComponentScores, actx AssessmentContext) []model.ConfidenceFactor {
	in := factorInput{
		ai:         components.AIModel,
		validation: components.Validation,
		historical: components.HistoricalConsistency,
		descChars:  len(actx.Product.Description),
		descWords:  wordCount(actx.Product.Description),
	}

	var factors []model.ConfidenceFactor
	for _, rule := range factorRules {
		if !rule.applies(in) {
			continue
		}
		factors = append(factors, model.ConfidenceFactor{
			Name:        rule.name,
			Description: rule.description,
			Source:      rule.source,
			Impact:      rule.impact,
			Weight:      rule.weight,
		})
	}

	if missing := actx.Product.MissingRequiredFields(); len(missing) > 0 {
		impact := missingFieldPenalty * float64(len(missing))
		if impact < maxNegativeImpact {
			impact = maxNegativeImpact
		}
		factors = append(factors, model.ConfidenceFactor{
			Name:        "missing-required-fields",
			Description: fmt.Sprintf("%d required fields missing: %v", len(missing), missing),
			Source:      "completeness",
			Impact:      impact,
			Weight:      1.0,
		})
	}

	return factors
}
