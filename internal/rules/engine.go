// Package rules implements the condition/action business-rule engine and its
// registry.
package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tradewind/tariffflow/internal/common"
	"github.com/tradewind/tariffflow/internal/model"
)

// Context is the product context a rule evaluates against. Keys are field
// names referenced by rule conditions.
type Context map[string]any

// Engine evaluates classification rules against a product context. Rules are
// owned by the engine and mutable through the registry API; a single
// evaluation pass sees a consistent snapshot.
type Engine struct {
	logger   *slog.Logger
	validate *validator.Validate
	rules    []model.ClassificationRule
	mu       sync.RWMutex
}

// NewEngine creates a rule engine seeded with the given rules.
func NewEngine(seed []model.ClassificationRule, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:    append([]model.ClassificationRule(nil), seed...),
		validate: validator.New(),
		logger:   logger,
	}
}

// Rules returns a copy of all registered rules.
func (e *Engine) Rules() []model.ClassificationRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]model.ClassificationRule(nil), e.rules...)
}

// AddRule registers a rule. Invalid regex condition patterns are rejected
// here so they cannot reach evaluation.
func (e *Engine) AddRule(rule model.ClassificationRule) error {
	if err := e.checkRule(rule); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.rules {
		if existing.ID == rule.ID {
			return fmt.Errorf("rule %q: %w", rule.ID, common.ErrDuplicateEntry)
		}
	}
	e.rules = append(e.rules, rule)
	return nil
}

// UpdateRule replaces the rule with the same ID.
func (e *Engine) UpdateRule(rule model.ClassificationRule) error {
	if err := e.checkRule(rule); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.rules {
		if existing.ID == rule.ID {
			e.rules[i] = rule
			return nil
		}
	}
	return fmt.Errorf("rule %q: %w", rule.ID, common.ErrNotFound)
}

// DeleteRule removes the rule with the given ID.
func (e *Engine) DeleteRule(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.rules {
		if existing.ID == id {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("rule %q: %w", id, common.ErrNotFound)
}

func (e *Engine) checkRule(rule model.ClassificationRule) error {
	if err := e.validate.Struct(rule); err != nil {
		return fmt.Errorf("rule %q: %w: %v", rule.ID, common.ErrInvalidConfig, err)
	}
	for _, cond := range rule.Conditions {
		if !cond.Operator.Valid() {
			return fmt.Errorf("rule %q: unknown operator %q", rule.ID, cond.Operator)
		}
		if cond.Operator == model.OpRegex {
			pattern, ok := cond.Value.(string)
			if !ok {
				return fmt.Errorf("rule %q: regex condition on %q requires a string pattern", rule.ID, cond.Field)
			}
			if _, err := common.CompilePattern(pattern); err != nil {
				return fmt.Errorf("rule %q: %w", rule.ID, err)
			}
		}
	}
	for _, action := range rule.Actions {
		if !action.Type.Valid() {
			return fmt.Errorf("rule %q: unknown action type %q", rule.ID, action.Type)
		}
	}
	return nil
}

// Evaluate runs all enabled rules against the context in ascending priority
// order. Every matching rule applies; there is no early exit. Condition
// evaluation never fails: broken patterns degrade to non-matches.
func (e *Engine) Evaluate(evalCtx Context) model.RuleEvaluation {
	e.mu.RLock()
	candidates := make([]model.ClassificationRule, 0, len(e.rules))
	for _, rule := range e.rules {
		if rule.Enabled {
			candidates = append(candidates, rule)
		}
	}
	e.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	result := model.RuleEvaluation{
		AppliedRules: []string{},
		Flags:        []model.RuleFlag{},
		Requirements: []string{},
		Suggestions:  []string{},
	}

	for _, rule := range candidates {
		if !ruleApplies(rule, evalCtx) {
			continue
		}

		result.AppliedRules = append(result.AppliedRules, rule.ID)
		for _, action := range rule.Actions {
			applyAction(rule, action, &result)
		}

		e.logger.Debug("rule applied",
			"rule_id", rule.ID,
			"rule_name", rule.Name,
			"priority", rule.Priority)
	}

	return result
}

// ruleApplies reports whether every condition on the rule holds. A rule with
// zero conditions always applies.
func ruleApplies(rule model.ClassificationRule, evalCtx Context) bool {
	for _, cond := range rule.Conditions {
		if !conditionHolds(cond, evalCtx) {
			return false
		}
	}
	return true
}

func applyAction(rule model.ClassificationRule, action model.RuleAction, result *model.RuleEvaluation) {
	severity := action.Severity
	if severity == "" {
		severity = model.SeverityMedium
	}

	switch action.Type {
	case model.ActionRequire:
		result.Requirements = append(result.Requirements, action.Message)
	case model.ActionSuggest, model.ActionAutoClassify:
		result.Suggestions = append(result.Suggestions, action.Message)
	case model.ActionWarn:
		result.Flags = append(result.Flags, model.RuleFlag{
			Type:     model.FlagWarning,
			Severity: severity,
			Message:  action.Message,
			RuleID:   rule.ID,
		})
	case model.ActionFlagReview:
		result.Flags = append(result.Flags, model.RuleFlag{
			Type:           model.FlagReview,
			Severity:       severity,
			Message:        action.Message,
			Recommendation: "route to manual review",
			RuleID:         rule.ID,
		})
	case model.ActionBlock:
		result.Flags = append(result.Flags, model.RuleFlag{
			Type:           model.FlagCompliance,
			Severity:       model.SeverityHigh,
			Message:        action.Message,
			Recommendation: "blocked",
			RuleID:         rule.ID,
		})
	}
}

// conditionHolds evaluates one condition against the context. It never
// returns an error: malformed values and broken regex patterns are
// non-matches.
//
// A missing field satisfies only notIn (always) and in (only when the
// expected array is empty). This narrow carve-out matches the behavior the
// rule registry has always had; rules depend on it, so do not widen it.
func conditionHolds(cond model.RuleCondition, evalCtx Context) bool {
	raw, present := evalCtx[cond.Field]
	if !present || raw == nil {
		switch cond.Operator {
		case model.OpNotIn:
			return true
		case model.OpIn:
			return len(toSlice(cond.Value)) == 0
		default:
			return false
		}
	}

	switch cond.Operator {
	case model.OpEquals:
		return stringEqual(coerceString(raw), coerceString(cond.Value), cond.CaseSensitive)
	case model.OpContains:
		return stringContains(coerceString(raw), coerceString(cond.Value), cond.CaseSensitive)
	case model.OpStartsWith:
		return stringHasPrefix(coerceString(raw), coerceString(cond.Value), cond.CaseSensitive)
	case model.OpEndsWith:
		return stringHasSuffix(coerceString(raw), coerceString(cond.Value), cond.CaseSensitive)
	case model.OpRegex:
		pattern, ok := cond.Value.(string)
		if !ok {
			return false
		}
		return common.LenientPattern(pattern).Matches(coerceString(raw))
	case model.OpRange:
		bounds, ok := toRange(cond.Value)
		if !ok {
			return false
		}
		value, ok := coerceFloat(raw)
		if !ok {
			return false
		}
		return value >= bounds.Min && value <= bounds.Max
	case model.OpIn:
		return containsValue(toSlice(cond.Value), raw, cond.CaseSensitive)
	case model.OpNotIn:
		return !containsValue(toSlice(cond.Value), raw, cond.CaseSensitive)
	}
	return false
}

func stringEqual(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

func stringContains(haystack, needle string, caseSensitive bool) bool {
	if !caseSensitive {
		haystack = strings.ToLower(haystack)
		needle = strings.ToLower(needle)
	}
	return strings.Contains(haystack, needle)
}

func stringHasPrefix(s, prefix string, caseSensitive bool) bool {
	if !caseSensitive {
		s = strings.ToLower(s)
		prefix = strings.ToLower(prefix)
	}
	return strings.HasPrefix(s, prefix)
}

func stringHasSuffix(s, suffix string, caseSensitive bool) bool {
	if !caseSensitive {
		s = strings.ToLower(s)
		suffix = strings.ToLower(suffix)
	}
	return strings.HasSuffix(s, suffix)
}

func containsValue(values []any, raw any, caseSensitive bool) bool {
	target := coerceString(raw)
	for _, v := range values {
		if stringEqual(coerceString(v), target, caseSensitive) {
			return true
		}
	}
	return false
}
