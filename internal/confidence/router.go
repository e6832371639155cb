package confidence

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tradewind/tariffflow/internal/common"
	"github.com/tradewind/tariffflow/internal/model"
)

// Default resolution times in hours per action type, used when a threshold's
// action does not set its own deadline.
var defaultResolutionHours = map[model.ThresholdActionType]int{
	model.ThresholdAutoApprove:   0,
	model.ThresholdFlagWarning:   2,
	model.ThresholdEscalate:      8,
	model.ThresholdRequireReview: 24,
	model.ThresholdRequestInfo:   48,
	model.ThresholdReject:        72,
}

// RouteContext is the extra context threshold conditions evaluate against.
type RouteContext struct {
	Values   map[string]any
	Category string
}

// Router matches calibrated scores against prioritized threshold bands.
type Router struct {
	logger     *slog.Logger
	validate   *validator.Validate
	thresholds []model.ConfidenceThreshold
	mu         sync.RWMutex
}

// NewRouter creates a threshold router seeded with the given bands.
func NewRouter(seed []model.ConfidenceThreshold, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger:     logger,
		validate:   validator.New(),
		thresholds: append([]model.ConfidenceThreshold(nil), seed...),
	}
}

// Thresholds returns a copy of all registered threshold bands.
func (r *Router) Thresholds() []model.ConfidenceThreshold {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.ConfidenceThreshold(nil), r.thresholds...)
}

// AddThreshold registers a threshold band.
func (r *Router) AddThreshold(t model.ConfidenceThreshold) error {
	if err := r.checkThreshold(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.thresholds {
		if existing.ID == t.ID {
			return fmt.Errorf("threshold %q: %w", t.ID, common.ErrDuplicateEntry)
		}
	}
	r.thresholds = append(r.thresholds, t)
	return nil
}

// UpdateThreshold replaces the band with the same ID.
func (r *Router) UpdateThreshold(t model.ConfidenceThreshold) error {
	if err := r.checkThreshold(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.thresholds {
		if existing.ID == t.ID {
			r.thresholds[i] = t
			return nil
		}
	}
	return fmt.Errorf("threshold %q: %w", t.ID, common.ErrNotFound)
}

// DeleteThreshold removes the band with the given ID.
func (r *Router) DeleteThreshold(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.thresholds {
		if existing.ID == id {
			r.thresholds = append(r.thresholds[:i], r.thresholds[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("threshold %q: %w", id, common.ErrNotFound)
}

func (r *Router) checkThreshold(t model.ConfidenceThreshold) error {
	if err := r.validate.Struct(t); err != nil {
		return fmt.Errorf("threshold %q: %w: %v", t.ID, common.ErrInvalidConfig, err)
	}
	if !t.Action.Type.Valid() {
		return fmt.Errorf("threshold %q: unknown action type %q", t.ID, t.Action.Type)
	}
	if t.MinConfidence > t.MaxConfidence {
		return fmt.Errorf("threshold %q: min confidence above max", t.ID)
	}
	return nil
}

// EvaluateThresholds matches the score against enabled bands in ascending
// priority order. Non-blocking matches accumulate; evaluation stops after
// the first blocking match (reject, escalate, require-review), so at most
// one blocking result is ever returned.
func (r *Router) EvaluateThresholds(score float64, rctx RouteContext) []model.ThresholdResult {
	r.mu.RLock()
	candidates := make([]model.ConfidenceThreshold, 0, len(r.thresholds))
	for _, t := range r.thresholds {
		if t.Enabled {
			candidates = append(candidates, t)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	var results []model.ThresholdResult
	for _, t := range candidates {
		if !t.Contains(score) {
			continue
		}
		if t.Category != "" && !strings.EqualFold(t.Category, rctx.Category) {
			continue
		}
		if !conditionsHold(t.Conditions, rctx.Values) {
			continue
		}

		results = append(results, buildResult(t, score))
		r.logger.Debug("threshold matched",
			"threshold_id", t.ID,
			"action", t.Action.Type,
			"score", score)

		if t.Action.Type.Blocking() {
			break
		}
	}

	return results
}

func buildResult(t model.ConfidenceThreshold, score float64) model.ThresholdResult {
	return model.ThresholdResult{
		ThresholdID:              t.ID,
		ThresholdName:            t.Name,
		Action:                   t.Action,
		Reasoning:                reasoning(t, score),
		NextSteps:                nextSteps(t.Action),
		EstimatedResolutionHours: resolutionHours(t.Action),
	}
}

// reasoning renders a human-readable explanation naming the band and any
// extra conditions that gated the match.
func reasoning(t model.ConfidenceThreshold, score float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Confidence %.1f falls within band %.0f-%.0f (%s)",
		score, t.MinConfidence, t.MaxConfidence, t.Name)
	if t.Category != "" {
		fmt.Fprintf(&b, " scoped to category %q", t.Category)
	}
	if len(t.Conditions) > 0 {
		parts := make([]string, len(t.Conditions))
		for i, c := range t.Conditions {
			parts[i] = fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
		}
		fmt.Fprintf(&b, "; conditions satisfied: %s", strings.Join(parts, ", "))
	}
	return b.String()
}

// nextSteps derives the ordered follow-up list purely from the action type.
func nextSteps(action model.ThresholdAction) []string {
	assignee := action.AssignTo
	hours := resolutionHours(action)

	switch action.Type {
	case model.ThresholdAutoApprove:
		return nil
	case model.ThresholdRequireReview:
		if assignee == "" {
			assignee = "classification review queue"
		}
		return []string{
			fmt.Sprintf("Assign to %s", assignee),
			fmt.Sprintf("Complete review within %dh", hours),
		}
	case model.ThresholdRequestInfo:
		fields := "additional product details"
		if len(action.RequiredFields) > 0 {
			fields = strings.Join(action.RequiredFields, ", ")
		}
		return []string{
			fmt.Sprintf("Request from submitter: %s", fields),
			"Re-run classification once the information is provided",
		}
	case model.ThresholdEscalate:
		if assignee == "" {
			assignee = "senior classification expert"
		}
		return []string{
			fmt.Sprintf("Escalate to %s", assignee),
			fmt.Sprintf("Resolve escalation within %dh", hours),
		}
	case model.ThresholdReject:
		return []string{
			"Notify submitter of the rejection and its reasoning",
			"Correct the product data and resubmit for classification",
		}
	case model.ThresholdFlagWarning:
		return []string{"Acknowledge the warning before release"}
	}
	return nil
}

func resolutionHours(action model.ThresholdAction) int {
	if action.DeadlineHours > 0 {
		return action.DeadlineHours
	}
	return defaultResolutionHours[action.Type]
}

// conditionsHold evaluates the extra threshold conditions against the
// routing context. An unknown field or operator is a non-match, never an
// error.
func conditionsHold(conditions []model.ThresholdCondition, values map[string]any) bool {
	for _, c := range conditions {
		if !thresholdConditionHolds(c, values) {
			return false
		}
	}
	return true
}

func thresholdConditionHolds(c model.ThresholdCondition, values map[string]any) bool {
	raw, present := values[c.Field]
	if !present || raw == nil {
		return false
	}

	switch c.Operator {
	case model.ThresholdOpEquals:
		return strings.EqualFold(routeString(raw), routeString(c.Value))
	case model.ThresholdOpContains:
		return strings.Contains(
			strings.ToLower(routeString(raw)),
			strings.ToLower(routeString(c.Value)))
	case model.ThresholdOpGreater:
		a, okA := routeFloat(raw)
		b, okB := routeFloat(c.Value)
		return okA && okB && a > b
	case model.ThresholdOpLess:
		a, okA := routeFloat(raw)
		b, okB := routeFloat(c.Value)
		return okA && okB && a < b
	case model.ThresholdOpIn:
		target := routeString(raw)
		for _, v := range routeSlice(c.Value) {
			if strings.EqualFold(routeString(v), target) {
				return true
			}
		}
		return false
	case model.ThresholdOpRange:
		bounds, ok := c.Value.(model.RangeValue)
		if !ok {
			m, isMap := c.Value.(map[string]any)
			if !isMap {
				return false
			}
			minV, okMin := routeFloat(m["min"])
			maxV, okMax := routeFloat(m["max"])
			if !okMin || !okMax {
				return false
			}
			bounds = model.RangeValue{Min: minV, Max: maxV}
		}
		v, ok := routeFloat(raw)
		return ok && v >= bounds.Min && v <= bounds.Max
	}
	return false
}

func routeString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func routeFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func routeSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}
