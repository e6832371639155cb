package model

// ThresholdActionType identifies the routing action a matched threshold band
// triggers.
type ThresholdActionType string

// Threshold action types.
const (
	ThresholdAutoApprove   ThresholdActionType = "auto-approve"
	ThresholdRequireReview ThresholdActionType = "require-review"
	ThresholdRequestInfo   ThresholdActionType = "request-info"
	ThresholdEscalate      ThresholdActionType = "escalate"
	ThresholdReject        ThresholdActionType = "reject"
	ThresholdFlagWarning   ThresholdActionType = "flag-warning"
)

// Valid reports whether the action type is a known variant.
func (t ThresholdActionType) Valid() bool {
	switch t {
	case ThresholdAutoApprove, ThresholdRequireReview, ThresholdRequestInfo,
		ThresholdEscalate, ThresholdReject, ThresholdFlagWarning:
		return true
	}
	return false
}

// Blocking reports whether a match on this action type halts threshold
// evaluation.
func (t ThresholdActionType) Blocking() bool {
	switch t {
	case ThresholdReject, ThresholdEscalate, ThresholdRequireReview:
		return true
	}
	return false
}

// ThresholdOperator is the operator subset usable in extra threshold
// conditions.
type ThresholdOperator string

// Threshold condition operators.
const (
	ThresholdOpEquals   ThresholdOperator = "equals"
	ThresholdOpGreater  ThresholdOperator = "greater"
	ThresholdOpLess     ThresholdOperator = "less"
	ThresholdOpContains ThresholdOperator = "contains"
	ThresholdOpIn       ThresholdOperator = "in"
	ThresholdOpRange    ThresholdOperator = "range"
)

// ThresholdCondition is an extra gate on a threshold band, evaluated against
// an arbitrary key-value routing context.
type ThresholdCondition struct {
	Value    any               `json:"value" yaml:"value"`
	Field    string            `json:"field" yaml:"field" validate:"required"`
	Operator ThresholdOperator `json:"operator" yaml:"operator" validate:"required"`
}

// ThresholdAction configures what happens when a band matches.
type ThresholdAction struct {
	Type           ThresholdActionType `json:"type" yaml:"type" validate:"required"`
	AssignTo       string              `json:"assign_to,omitempty" yaml:"assign_to,omitempty"`
	RequiredFields []string            `json:"required_fields,omitempty" yaml:"required_fields,omitempty"`
	DeadlineHours  int                 `json:"deadline_hours,omitempty" yaml:"deadline_hours,omitempty"`
}

// ConfidenceThreshold maps an inclusive confidence band, optionally scoped to
// a category and extra conditions, to a routing action.
type ConfidenceThreshold struct {
	ID            string               `json:"id" yaml:"id" validate:"required"`
	Name          string               `json:"name" yaml:"name" validate:"required"`
	Category      string               `json:"category,omitempty" yaml:"category,omitempty"`
	Conditions    []ThresholdCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Action        ThresholdAction      `json:"action" yaml:"action"`
	MinConfidence float64              `json:"min_confidence" yaml:"min_confidence" validate:"min=0,max=100"`
	MaxConfidence float64              `json:"max_confidence" yaml:"max_confidence" validate:"min=0,max=100"`
	Priority      int                  `json:"priority" yaml:"priority"`
	Enabled       bool                 `json:"enabled" yaml:"enabled"`
}

// Contains reports whether the score falls inside the band, inclusive on both
// ends.
func (t ConfidenceThreshold) Contains(score float64) bool {
	return score >= t.MinConfidence && score <= t.MaxConfidence
}

// ThresholdResult is one matched threshold band with its triggered action and
// derived guidance.
type ThresholdResult struct {
	ThresholdID              string          `json:"threshold_id"`
	ThresholdName            string          `json:"threshold_name"`
	Reasoning                string          `json:"reasoning"`
	Action                   ThresholdAction `json:"action"`
	NextSteps                []string        `json:"next_steps"`
	EstimatedResolutionHours int             `json:"estimated_resolution_hours"`
}
