package compliance

import (
	"strings"

	"github.com/tradewind/tariffflow/internal/model"
)

// requirementProfile is the fixed cost/processing-time lookup per
// requirement kind.
type requirementProfile struct {
	processingTime string
	estimatedCost  float64
}

var requirementProfiles = map[model.RequirementKind]requirementProfile{
	model.RequirementLicense:       {processingTime: "2-4 weeks", estimatedCost: 250},
	model.RequirementCertificate:   {processingTime: "1-2 weeks", estimatedCost: 150},
	model.RequirementInspection:    {processingTime: "3-5 days", estimatedCost: 300},
	model.RequirementDocumentation: {processingTime: "1-3 days", estimatedCost: 50},
}

// classifyRequirements buckets the free-text requirements of the matched
// restrictions by substring heuristics and attaches cost estimates.
func classifyRequirements(matched []model.TradeRestriction) []model.ComplianceRequirement {
	var out []model.ComplianceRequirement
	seen := make(map[string]bool)

	for _, r := range matched {
		mandatory := r.Type == model.RestrictionLicense ||
			r.Severity == model.SeverityHigh ||
			r.Severity == model.SeverityCritical

		for _, text := range r.Requirements {
			if seen[text] {
				continue
			}
			seen[text] = true

			kind := classifyRequirement(text)
			profile := requirementProfiles[kind]
			out = append(out, model.ComplianceRequirement{
				Kind:           kind,
				Description:    text,
				EstimatedCost:  profile.estimatedCost,
				ProcessingTime: profile.processingTime,
				Mandatory:      mandatory,
			})
		}
	}

	return out
}

func classifyRequirement(text string) model.RequirementKind {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "license"):
		return model.RequirementLicense
	case strings.Contains(lower, "certificate"):
		return model.RequirementCertificate
	case strings.Contains(lower, "inspection"):
		return model.RequirementInspection
	default:
		return model.RequirementDocumentation
	}
}
