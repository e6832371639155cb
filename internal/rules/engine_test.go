package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewind/tariffflow/internal/model"
)

func suggestRule(id string, priority int, conditions ...model.RuleCondition) model.ClassificationRule {
	return model.ClassificationRule{
		ID:         id,
		Name:       id,
		Priority:   priority,
		Enabled:    true,
		Conditions: conditions,
		Actions: []model.RuleAction{
			{Type: model.ActionSuggest, Message: "suggestion from " + id},
		},
	}
}

func TestEngine_ConditionOperators(t *testing.T) {
	evalCtx := Context{
		"description":         "Wireless Bluetooth Headphones",
		"category":            "Electronics",
		"destination_country": "US",
		"hs_code":             "8517.12.00",
		"value":               1500.0,
	}

	tests := []struct {
		name      string
		condition model.RuleCondition
		want      bool
	}{
		{
			name:      "equals case insensitive by default",
			condition: model.RuleCondition{Field: "category", Operator: model.OpEquals, Value: "electronics"},
			want:      true,
		},
		{
			name:      "equals case sensitive mismatch",
			condition: model.RuleCondition{Field: "category", Operator: model.OpEquals, Value: "electronics", CaseSensitive: true},
			want:      false,
		},
		{
			name:      "contains",
			condition: model.RuleCondition{Field: "description", Operator: model.OpContains, Value: "bluetooth"},
			want:      true,
		},
		{
			name:      "startsWith",
			condition: model.RuleCondition{Field: "description", Operator: model.OpStartsWith, Value: "wireless"},
			want:      true,
		},
		{
			name:      "endsWith",
			condition: model.RuleCondition{Field: "description", Operator: model.OpEndsWith, Value: "headphones"},
			want:      true,
		},
		{
			name:      "regex match",
			condition: model.RuleCondition{Field: "hs_code", Operator: model.OpRegex, Value: `^85`},
			want:      true,
		},
		{
			name:      "invalid regex is a non-match not an error",
			condition: model.RuleCondition{Field: "hs_code", Operator: model.OpRegex, Value: `^(85`},
			want:      false,
		},
		{
			name:      "range inclusive lower bound",
			condition: model.RuleCondition{Field: "value", Operator: model.OpRange, Value: model.RangeValue{Min: 1500, Max: 2000}},
			want:      true,
		},
		{
			name:      "range above upper bound",
			condition: model.RuleCondition{Field: "value", Operator: model.OpRange, Value: model.RangeValue{Min: 0, Max: 1000}},
			want:      false,
		},
		{
			name:      "range from map value",
			condition: model.RuleCondition{Field: "value", Operator: model.OpRange, Value: map[string]any{"min": 1000.0, "max": 2000.0}},
			want:      true,
		},
		{
			name:      "in membership",
			condition: model.RuleCondition{Field: "destination_country", Operator: model.OpIn, Value: []string{"US", "CA"}},
			want:      true,
		},
		{
			name:      "notIn membership",
			condition: model.RuleCondition{Field: "destination_country", Operator: model.OpNotIn, Value: []string{"KP", "IR"}},
			want:      true,
		},
		{
			name:      "numeric equals against string value",
			condition: model.RuleCondition{Field: "value", Operator: model.OpEquals, Value: "1500"},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conditionHolds(tt.condition, evalCtx))
		})
	}
}

func TestEngine_MissingFieldSemantics(t *testing.T) {
	evalCtx := Context{"category": "Electronics"}

	tests := []struct {
		name      string
		condition model.RuleCondition
		want      bool
	}{
		{
			name:      "notIn on missing field holds",
			condition: model.RuleCondition{Field: "absent", Operator: model.OpNotIn, Value: []string{"a"}},
			want:      true,
		},
		{
			name:      "in with empty array on missing field holds",
			condition: model.RuleCondition{Field: "absent", Operator: model.OpIn, Value: []string{}},
			want:      true,
		},
		{
			name:      "in with non-empty array on missing field never holds",
			condition: model.RuleCondition{Field: "absent", Operator: model.OpIn, Value: []string{"a"}},
			want:      false,
		},
		{
			name:      "equals on missing field never holds",
			condition: model.RuleCondition{Field: "absent", Operator: model.OpEquals, Value: ""},
			want:      false,
		},
		{
			name:      "regex on missing field never holds",
			condition: model.RuleCondition{Field: "absent", Operator: model.OpRegex, Value: ".*"},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conditionHolds(tt.condition, evalCtx))
		})
	}
}

func TestEngine_Evaluate(t *testing.T) {
	t.Run("zero conditions always applies", func(t *testing.T) {
		engine := NewEngine([]model.ClassificationRule{suggestRule("always", 10)}, nil)
		result := engine.Evaluate(Context{})
		assert.Equal(t, []string{"always"}, result.AppliedRules)
		assert.Equal(t, []string{"suggestion from always"}, result.Suggestions)
	})

	t.Run("all matching rules apply in priority order", func(t *testing.T) {
		engine := NewEngine([]model.ClassificationRule{
			suggestRule("second", 20),
			suggestRule("first", 10),
			suggestRule("third", 30),
		}, nil)
		result := engine.Evaluate(Context{})
		assert.Equal(t, []string{"first", "second", "third"}, result.AppliedRules)
	})

	t.Run("disabled rules are skipped", func(t *testing.T) {
		disabled := suggestRule("off", 10)
		disabled.Enabled = false
		engine := NewEngine([]model.ClassificationRule{disabled}, nil)
		result := engine.Evaluate(Context{})
		assert.Empty(t, result.AppliedRules)
	})

	t.Run("AND semantics require every condition", func(t *testing.T) {
		rule := suggestRule("both", 10,
			model.RuleCondition{Field: "category", Operator: model.OpEquals, Value: "Electronics"},
			model.RuleCondition{Field: "destination_country", Operator: model.OpEquals, Value: "US"},
		)
		engine := NewEngine([]model.ClassificationRule{rule}, nil)

		result := engine.Evaluate(Context{"category": "Electronics", "destination_country": "DE"})
		assert.Empty(t, result.AppliedRules)

		result = engine.Evaluate(Context{"category": "Electronics", "destination_country": "US"})
		assert.Equal(t, []string{"both"}, result.AppliedRules)
	})

	t.Run("action routing", func(t *testing.T) {
		rule := model.ClassificationRule{
			ID:      "actions",
			Name:    "actions",
			Enabled: true,
			Actions: []model.RuleAction{
				{Type: model.ActionRequire, Message: "need origin certificate"},
				{Type: model.ActionSuggest, Message: "consider chapter 85"},
				{Type: model.ActionWarn, Message: "unusual route", Severity: model.SeverityLow},
				{Type: model.ActionFlagReview, Message: "manual check", Severity: model.SeverityMedium},
				{Type: model.ActionBlock, Message: "embargoed", Severity: model.SeverityCritical},
			},
		}
		engine := NewEngine([]model.ClassificationRule{rule}, nil)
		result := engine.Evaluate(Context{})

		assert.Equal(t, []string{"need origin certificate"}, result.Requirements)
		assert.Equal(t, []string{"consider chapter 85"}, result.Suggestions)
		require.Len(t, result.Flags, 3)

		assert.Equal(t, model.FlagWarning, result.Flags[0].Type)
		assert.Equal(t, model.SeverityLow, result.Flags[0].Severity)

		assert.Equal(t, model.FlagReview, result.Flags[1].Type)

		// block always raises a high-severity compliance flag regardless of
		// the action's own severity.
		assert.Equal(t, model.FlagCompliance, result.Flags[2].Type)
		assert.Equal(t, model.SeverityHigh, result.Flags[2].Severity)
		assert.Equal(t, "blocked", result.Flags[2].Recommendation)
	})
}

func TestEngine_Registry(t *testing.T) {
	engine := NewEngine(nil, nil)

	rule := suggestRule("r1", 10)
	require.NoError(t, engine.AddRule(rule))

	t.Run("duplicate add rejected", func(t *testing.T) {
		err := engine.AddRule(rule)
		assert.Error(t, err)
	})

	t.Run("invalid regex rejected at registration", func(t *testing.T) {
		bad := suggestRule("bad", 10,
			model.RuleCondition{Field: "hs_code", Operator: model.OpRegex, Value: "("})
		err := engine.AddRule(bad)
		assert.Error(t, err)
	})

	t.Run("update replaces rule", func(t *testing.T) {
		updated := rule
		updated.Priority = 99
		require.NoError(t, engine.UpdateRule(updated))
		rules := engine.Rules()
		require.Len(t, rules, 1)
		assert.Equal(t, 99, rules[0].Priority)
	})

	t.Run("update unknown rule fails", func(t *testing.T) {
		missing := suggestRule("nope", 1)
		assert.Error(t, engine.UpdateRule(missing))
	})

	t.Run("delete removes rule", func(t *testing.T) {
		require.NoError(t, engine.DeleteRule("r1"))
		assert.Empty(t, engine.Rules())
		assert.Error(t, engine.DeleteRule("r1"))
	})
}

func TestDefaultRules_Register(t *testing.T) {
	engine := NewEngine(nil, nil)
	for _, rule := range DefaultRules() {
		assert.NoError(t, engine.AddRule(rule), "default rule %s must register cleanly", rule.ID)
	}
}
