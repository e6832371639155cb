package rules

import "github.com/tradewind/tariffflow/internal/model"

// DefaultRules returns the default set of classification business rules.
// These are illustrative seed data; production deployments replace them
// through the registry API.
func DefaultRules() []model.ClassificationRule {
	return []model.ClassificationRule{
		{
			ID:       "missing-description",
			Name:     "Missing Product Description",
			Priority: 10,
			Enabled:  true,
			Conditions: []model.RuleCondition{
				{Field: "description", Operator: model.OpEquals, Value: ""},
			},
			Actions: []model.RuleAction{
				{Type: model.ActionRequire, Message: "A product description is required before classification", Severity: model.SeverityHigh},
			},
		},
		{
			ID:       "dual-use-electronics",
			Name:     "Dual-Use Electronics Review",
			Category: "Electronics",
			Priority: 20,
			Enabled:  true,
			Conditions: []model.RuleCondition{
				{Field: "hs_code", Operator: model.OpRegex, Value: `^(84|85|90|91)`},
			},
			Actions: []model.RuleAction{
				{Type: model.ActionWarn, Message: "Chapter is on the dual-use watch list; export controls may apply", Severity: model.SeverityMedium},
			},
		},
		{
			ID:       "embargoed-destination",
			Name:     "Embargoed Destination",
			Priority: 5,
			Enabled:  true,
			Conditions: []model.RuleCondition{
				{Field: "destination_country", Operator: model.OpIn, Value: []string{"KP", "IR", "SY", "CU"}},
			},
			Actions: []model.RuleAction{
				{Type: model.ActionBlock, Message: "Destination country is under comprehensive embargo", Severity: model.SeverityCritical},
			},
		},
		{
			ID:       "high-value-shipment",
			Name:     "High Value Shipment Review",
			Priority: 30,
			Enabled:  true,
			Conditions: []model.RuleCondition{
				{Field: "value", Operator: model.OpRange, Value: model.RangeValue{Min: 10000, Max: 1e12}},
			},
			Actions: []model.RuleAction{
				{Type: model.ActionFlagReview, Message: "Shipment value exceeds the formal-entry review threshold", Severity: model.SeverityMedium},
			},
		},
		{
			ID:       "textile-origin-documentation",
			Name:     "Textile Origin Documentation",
			Priority: 40,
			Enabled:  true,
			Conditions: []model.RuleCondition{
				{Field: "hs_code", Operator: model.OpRegex, Value: `^(5[0-9]|6[0-3])`},
			},
			Actions: []model.RuleAction{
				{Type: model.ActionRequire, Message: "Country-of-origin declaration required for textile products", Severity: model.SeverityMedium},
			},
		},
		{
			ID:       "food-product-fda",
			Name:     "Food Product Agency Notice",
			Priority: 40,
			Enabled:  true,
			Conditions: []model.RuleCondition{
				{Field: "hs_code", Operator: model.OpRegex, Value: `^(0[1-9]|1[0-9]|2[0-4])`},
				{Field: "destination_country", Operator: model.OpEquals, Value: "US"},
			},
			Actions: []model.RuleAction{
				{Type: model.ActionSuggest, Message: "FDA prior notice is typically required for food imports into the US", Severity: model.SeverityLow},
			},
		},
	}
}
