// Package confidence implements the confidence assessor and the
// threshold-based routing of calibrated scores.
package confidence

import (
	"log/slog"
	"strings"

	"github.com/tradewind/tariffflow/internal/model"
)

// Component weights for the fused base score.
const (
	weightAIModel       = 0.4
	weightValidation    = 0.2
	weightBusinessRules = 0.2
	weightHistorical    = 0.1
	weightFeedback      = 0.1
)

// defaultComponentScore is used when a signal has no data (no history, no
// feedback).
const defaultComponentScore = 50.0

// historyWindow caps how many prior classifications feed the historical
// consistency component.
const historyWindow = 5

// AssessmentContext carries the qualitative context for one assessment.
// Prior classifications are expected newest-first.
type AssessmentContext struct {
	Product         model.Product
	HSCode          model.HSCode
	Prior           []model.PriorClassification
	FeedbackRatings []int
	Adjustments     []model.ConfidenceAdjustment
}

// Assessor fuses the component confidences and context factors into one
// calibrated score with a reliability tier.
type Assessor struct {
	logger *slog.Logger
}

// NewAssessor creates a confidence assessor.
func NewAssessor(logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{logger: logger}
}

// Assess computes the calibrated confidence for one classification. All
// inputs and the result are on a 0-100 scale.
func (a *Assessor) Assess(aiConfidence, validationScore, businessRuleScore float64, actx AssessmentContext) model.ConfidenceAssessment {
	components := model.ComponentScores{
		AIModel:               clampScore(aiConfidence),
		Validation:            clampScore(validationScore),
		BusinessRules:         clampScore(businessRuleScore),
		HistoricalConsistency: historicalConsistency(actx.HSCode, actx.Prior),
		UserFeedback:          userFeedback(actx.FeedbackRatings),
	}

	base := components.AIModel*weightAIModel +
		components.Validation*weightValidation +
		components.BusinessRules*weightBusinessRules +
		components.HistoricalConsistency*weightHistorical +
		components.UserFeedback*weightFeedback

	factors := detectFactors(components, actx)

	adjustment := 0.0
	for _, f := range factors {
		adjustment += f.Impact * f.Weight
	}
	for _, manual := range actx.Adjustments {
		adjustment += manual.Delta
	}

	assessment := model.ConfidenceAssessment{
		Components:  components,
		Factors:     factors,
		Adjustments: actx.Adjustments,
		FinalScore:  clampScore(base + adjustment),
	}
	assessment.Reliability = reliability(assessment)

	a.logger.Debug("confidence assessed",
		"base", base,
		"adjustment", adjustment,
		"final", assessment.FinalScore,
		"reliability", assessment.Reliability,
		"factors", len(factors))

	return assessment
}

// historicalConsistency is the chapter-agreement ratio among up to the last
// five prior classifications, scaled by their average confidence. No history
// yields the neutral default.
func historicalConsistency(code model.HSCode, prior []model.PriorClassification) float64 {
	if len(prior) == 0 {
		return defaultComponentScore
	}

	recent := prior
	if len(recent) > historyWindow {
		recent = recent[:historyWindow]
	}

	agree := 0
	confidenceSum := 0.0
	for _, p := range recent {
		if p.HSCode.Chapter() == code.Chapter() {
			agree++
		}
		confidenceSum += p.Confidence
	}

	agreement := float64(agree) / float64(len(recent))
	avgConfidence := confidenceSum / float64(len(recent))
	return clampScore(agreement * avgConfidence)
}

// userFeedback is the mean 1-5 rating scaled to 0-100, or the neutral
// default when no ratings exist.
func userFeedback(ratings []int) float64 {
	if len(ratings) == 0 {
		return defaultComponentScore
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return clampScore(mean * 20)
}

// reliability bands the final score, tightened by the number of negative
// factors.
func reliability(a model.ConfidenceAssessment) model.ReliabilityTier {
	negatives := a.NegativeFactors()
	switch {
	case a.FinalScore >= 95 && negatives == 0:
		return model.ReliabilityVeryHigh
	case a.FinalScore >= 85 && negatives <= 1:
		return model.ReliabilityHigh
	case a.FinalScore >= 70 && negatives <= 2:
		return model.ReliabilityMedium
	case a.FinalScore >= 50:
		return model.ReliabilityLow
	default:
		return model.ReliabilityVeryLow
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
