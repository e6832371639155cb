package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewind/tariffflow/internal/model"
)

func band(id string, priority int, minC, maxC float64, action model.ThresholdActionType) model.ConfidenceThreshold {
	return model.ConfidenceThreshold{
		ID:            id,
		Name:          id,
		MinConfidence: minC,
		MaxConfidence: maxC,
		Priority:      priority,
		Enabled:       true,
		Action:        model.ThresholdAction{Type: action},
	}
}

func TestRouter_BandMatching(t *testing.T) {
	router := NewRouter(DefaultThresholds(), nil)

	t.Run("high score without category hits auto-approve only", func(t *testing.T) {
		results := router.EvaluateThresholds(97, RouteContext{Category: "Housewares"})
		require.Len(t, results, 1)
		assert.Equal(t, "auto-approve-high", results[0].ThresholdID)
		assert.Empty(t, results[0].NextSteps)
	})

	t.Run("electronics category routed to strict review first", func(t *testing.T) {
		results := router.EvaluateThresholds(97, RouteContext{Category: "Electronics"})
		require.Len(t, results, 1)
		assert.Equal(t, "electronics-strict", results[0].ThresholdID)
		assert.Equal(t, model.ThresholdRequireReview, results[0].Action.Type)
	})

	t.Run("mid score requires review", func(t *testing.T) {
		results := router.EvaluateThresholds(85, RouteContext{})
		require.Len(t, results, 1)
		assert.Equal(t, "standard-review", results[0].ThresholdID)
	})

	t.Run("very low score escalates", func(t *testing.T) {
		results := router.EvaluateThresholds(20, RouteContext{})
		require.Len(t, results, 1)
		assert.Equal(t, "escalate-very-low", results[0].ThresholdID)
	})
}

func TestRouter_AtMostOneBlockingResult(t *testing.T) {
	router := NewRouter(DefaultThresholds(), nil)

	// Sweep the whole score range: every evaluation returns at most one
	// blocking result, and its band must contain the score.
	for score := 0.0; score <= 100.0; score += 0.5 {
		for _, category := range []string{"", "Electronics"} {
			results := router.EvaluateThresholds(score, RouteContext{Category: category})

			blocking := 0
			for _, res := range results {
				if res.Action.Type.Blocking() {
					blocking++
					matched := thresholdByID(t, router, res.ThresholdID)
					assert.True(t, matched.Contains(score),
						"blocking band %s must contain score %.1f", res.ThresholdID, score)
				}
			}
			assert.LessOrEqual(t, blocking, 1, "score %.1f category %q", score, category)
		}
	}
}

func TestRouter_BandBoundsInclusive(t *testing.T) {
	router := NewRouter([]model.ConfidenceThreshold{
		band("exact", 10, 70, 80, model.ThresholdRequireReview),
	}, nil)

	assert.Len(t, router.EvaluateThresholds(70, RouteContext{}), 1)
	assert.Len(t, router.EvaluateThresholds(80, RouteContext{}), 1)
	assert.Empty(t, router.EvaluateThresholds(69.99, RouteContext{}))
	assert.Empty(t, router.EvaluateThresholds(80.01, RouteContext{}))
}

func TestRouter_NonBlockingMatchesAccumulate(t *testing.T) {
	warn := band("warn", 10, 0, 100, model.ThresholdFlagWarning)
	review := band("review", 20, 0, 100, model.ThresholdRequireReview)
	never := band("never", 30, 0, 100, model.ThresholdReject)

	router := NewRouter([]model.ConfidenceThreshold{warn, review, never}, nil)
	results := router.EvaluateThresholds(50, RouteContext{})

	// The warning accumulates, review blocks, reject is never reached.
	require.Len(t, results, 2)
	assert.Equal(t, "warn", results[0].ThresholdID)
	assert.Equal(t, "review", results[1].ThresholdID)
}

func TestRouter_ExtraConditions(t *testing.T) {
	withCond := band("conditional", 10, 0, 100, model.ThresholdRequireReview)
	withCond.Conditions = []model.ThresholdCondition{
		{Field: "destination_country", Operator: model.ThresholdOpEquals, Value: "US"},
		{Field: "value", Operator: model.ThresholdOpGreater, Value: 1000.0},
	}
	router := NewRouter([]model.ConfidenceThreshold{withCond}, nil)

	t.Run("all conditions satisfied", func(t *testing.T) {
		results := router.EvaluateThresholds(60, RouteContext{
			Values: map[string]any{"destination_country": "US", "value": 2500.0},
		})
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Reasoning, "destination_country")
	})

	t.Run("one condition failing skips the band", func(t *testing.T) {
		results := router.EvaluateThresholds(60, RouteContext{
			Values: map[string]any{"destination_country": "US", "value": 100.0},
		})
		assert.Empty(t, results)
	})

	t.Run("missing context field skips the band", func(t *testing.T) {
		results := router.EvaluateThresholds(60, RouteContext{
			Values: map[string]any{"destination_country": "US"},
		})
		assert.Empty(t, results)
	})
}

func TestRouter_ConditionOperators(t *testing.T) {
	values := map[string]any{
		"destination_country": "US",
		"risk_level":          "medium",
		"value":               1500.0,
	}

	tests := []struct {
		name      string
		condition model.ThresholdCondition
		want      bool
	}{
		{
			name:      "equals",
			condition: model.ThresholdCondition{Field: "risk_level", Operator: model.ThresholdOpEquals, Value: "medium"},
			want:      true,
		},
		{
			name:      "contains",
			condition: model.ThresholdCondition{Field: "risk_level", Operator: model.ThresholdOpContains, Value: "med"},
			want:      true,
		},
		{
			name:      "greater",
			condition: model.ThresholdCondition{Field: "value", Operator: model.ThresholdOpGreater, Value: 1000},
			want:      true,
		},
		{
			name:      "less fails",
			condition: model.ThresholdCondition{Field: "value", Operator: model.ThresholdOpLess, Value: 1000},
			want:      false,
		},
		{
			name:      "in",
			condition: model.ThresholdCondition{Field: "destination_country", Operator: model.ThresholdOpIn, Value: []string{"US", "CA"}},
			want:      true,
		},
		{
			name:      "range",
			condition: model.ThresholdCondition{Field: "value", Operator: model.ThresholdOpRange, Value: model.RangeValue{Min: 1000, Max: 2000}},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, thresholdConditionHolds(tt.condition, values))
		})
	}
}

func TestRouter_NextStepsAndResolution(t *testing.T) {
	tests := []struct {
		name      string
		action    model.ThresholdAction
		wantHours int
		wantSteps int
	}{
		{
			name:      "auto approve has no steps",
			action:    model.ThresholdAction{Type: model.ThresholdAutoApprove},
			wantHours: 0,
			wantSteps: 0,
		},
		{
			name:      "require review default deadline",
			action:    model.ThresholdAction{Type: model.ThresholdRequireReview},
			wantHours: 24,
			wantSteps: 2,
		},
		{
			name:      "explicit deadline wins",
			action:    model.ThresholdAction{Type: model.ThresholdRequireReview, DeadlineHours: 4},
			wantHours: 4,
			wantSteps: 2,
		},
		{
			name:      "request info lists required fields",
			action:    model.ThresholdAction{Type: model.ThresholdRequestInfo, RequiredFields: []string{"materials"}},
			wantHours: 48,
			wantSteps: 2,
		},
		{
			name:      "escalate",
			action:    model.ThresholdAction{Type: model.ThresholdEscalate},
			wantHours: 8,
			wantSteps: 2,
		},
		{
			name:      "reject",
			action:    model.ThresholdAction{Type: model.ThresholdReject},
			wantHours: 72,
			wantSteps: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantHours, resolutionHours(tt.action))
			assert.Len(t, nextSteps(tt.action), tt.wantSteps)
		})
	}
}

func TestRouter_Registry(t *testing.T) {
	router := NewRouter(nil, nil)
	b := band("b1", 10, 0, 100, model.ThresholdRequireReview)

	require.NoError(t, router.AddThreshold(b))
	assert.Error(t, router.AddThreshold(b), "duplicate add must fail")

	inverted := band("b2", 10, 90, 10, model.ThresholdRequireReview)
	assert.Error(t, router.AddThreshold(inverted), "min above max must fail")

	b.Priority = 5
	require.NoError(t, router.UpdateThreshold(b))
	assert.Equal(t, 5, router.Thresholds()[0].Priority)

	require.NoError(t, router.DeleteThreshold("b1"))
	assert.Error(t, router.DeleteThreshold("b1"))
	assert.Empty(t, router.Thresholds())
}

func thresholdByID(t *testing.T, router *Router, id string) model.ConfidenceThreshold {
	t.Helper()
	for _, threshold := range router.Thresholds() {
		if threshold.ID == id {
			return threshold
		}
	}
	t.Fatalf("threshold %q not found", id)
	return model.ConfidenceThreshold{}
}
