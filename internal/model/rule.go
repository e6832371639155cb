package model

// RuleOperator identifies how a condition compares a context field to its
// expected value.
type RuleOperator string

// Rule condition operators.
const (
	OpEquals     RuleOperator = "equals"
	OpContains   RuleOperator = "contains"
	OpStartsWith RuleOperator = "startsWith"
	OpEndsWith   RuleOperator = "endsWith"
	OpRegex      RuleOperator = "regex"
	OpRange      RuleOperator = "range"
	OpIn         RuleOperator = "in"
	OpNotIn      RuleOperator = "notIn"
)

// Valid reports whether the operator is one of the known condition operators.
func (o RuleOperator) Valid() bool {
	switch o {
	case OpEquals, OpContains, OpStartsWith, OpEndsWith, OpRegex, OpRange, OpIn, OpNotIn:
		return true
	}
	return false
}

// ActionType identifies what a rule does when all of its conditions hold.
type ActionType string

// Rule action types.
const (
	ActionSuggest      ActionType = "suggest"
	ActionRequire      ActionType = "require"
	ActionWarn         ActionType = "warn"
	ActionBlock        ActionType = "block"
	ActionAutoClassify ActionType = "auto-classify"
	ActionFlagReview   ActionType = "flag-review"
)

// Valid reports whether the action type is one of the known variants.
func (a ActionType) Valid() bool {
	switch a {
	case ActionSuggest, ActionRequire, ActionWarn, ActionBlock, ActionAutoClassify, ActionFlagReview:
		return true
	}
	return false
}

// Severity grades rule actions, restrictions and warnings.
type Severity string

// Severity levels, lowest to highest.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is a known level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// RuleCondition is a single field comparison. All conditions on a rule are
// AND-combined.
type RuleCondition struct {
	Value         any          `json:"value" yaml:"value"`
	Field         string       `json:"field" yaml:"field" validate:"required"`
	Operator      RuleOperator `json:"operator" yaml:"operator" validate:"required"`
	CaseSensitive bool         `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
}

// RangeValue is the expected value shape for the range operator.
type RangeValue struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// RuleAction describes what happens when a rule applies.
type RuleAction struct {
	Type     ActionType `json:"type" yaml:"type" validate:"required"`
	Message  string     `json:"message" yaml:"message" validate:"required"`
	Severity Severity   `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// ClassificationRule is a condition/action business rule evaluated against a
// product context. Rules are evaluated in ascending priority order; lower
// numbers run first.
type ClassificationRule struct {
	ID          string          `json:"id" yaml:"id" validate:"required"`
	Name        string          `json:"name" yaml:"name" validate:"required"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string          `json:"category,omitempty" yaml:"category,omitempty"`
	Conditions  []RuleCondition `json:"conditions" yaml:"conditions"`
	Actions     []RuleAction    `json:"actions" yaml:"actions" validate:"min=1,dive"`
	Priority    int             `json:"priority" yaml:"priority"`
	Enabled     bool            `json:"enabled" yaml:"enabled"`
}

// FlagType categorizes a flag raised during rule evaluation.
type FlagType string

// Flag types.
const (
	FlagWarning    FlagType = "warning"
	FlagReview     FlagType = "review"
	FlagCompliance FlagType = "compliance"
)

// RuleFlag is raised by warn, flag-review and block actions.
type RuleFlag struct {
	Type           FlagType `json:"type"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation,omitempty"`
	RuleID         string   `json:"rule_id"`
}

// RuleEvaluation is the outcome of running the rule engine over one context.
type RuleEvaluation struct {
	AppliedRules []string   `json:"applied_rules"`
	Flags        []RuleFlag `json:"flags"`
	Requirements []string   `json:"requirements"`
	Suggestions  []string   `json:"suggestions"`
}
