// Package compliance implements the trade restriction matcher, duty
// calculator and risk grading for classified products.
package compliance

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	gocache "github.com/patrickmn/go-cache"

	"github.com/tradewind/tariffflow/internal/common"
	"github.com/tradewind/tariffflow/internal/model"
)

const (
	cacheTTL             = 15 * time.Minute
	cacheSweep           = 5 * time.Minute
	formalEntryThreshold = 2500.0
)

// dualUseChapters are HS chapters subject to export-control screening.
var dualUseChapters = map[string]bool{
	"84": true,
	"85": true,
	"90": true,
	"91": true,
}

// Checker matches shipments against the restriction registry and computes
// duty, fees and risk. Restriction lookups are cached per destination and
// 4-digit heading; every registry mutation flushes the cache before
// returning.
type Checker struct {
	logger       *slog.Logger
	validate     *validator.Validate
	cache        *gocache.Cache
	compiled     map[string]common.Pattern
	now          func() time.Time
	duties       DutySchedule
	restrictions []model.TradeRestriction
	mu           sync.RWMutex
}

// Option configures a Checker.
type Option func(*Checker)

// WithClock overrides the clock used for temporal applicability. Used in
// tests.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// WithDutySchedule replaces the default duty and fee tables.
func WithDutySchedule(schedule DutySchedule) Option {
	return func(c *Checker) { c.duties = schedule }
}

// NewChecker creates a compliance checker seeded with the given restrictions.
// Seed entries with broken patterns are kept but never match; entries added
// later through the registry API are rejected outright.
func NewChecker(seed []model.TradeRestriction, logger *slog.Logger, opts ...Option) *Checker {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Checker{
		logger:       logger,
		validate:     validator.New(),
		cache:        gocache.New(cacheTTL, cacheSweep),
		compiled:     make(map[string]common.Pattern, len(seed)),
		now:          time.Now,
		duties:       DefaultDutySchedule(),
		restrictions: append([]model.TradeRestriction(nil), seed...),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, r := range seed {
		pattern, err := common.CompilePattern(r.HSCodePattern)
		if err != nil {
			logger.Warn("seed restriction pattern does not compile, entry will never match",
				"restriction_id", r.ID,
				"pattern", r.HSCodePattern)
		}
		c.compiled[r.ID] = pattern
	}

	return c
}

// Restrictions returns a copy of all registered restrictions.
func (c *Checker) Restrictions() []model.TradeRestriction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.TradeRestriction(nil), c.restrictions...)
}

// AddRestriction registers a restriction and flushes the lookup cache.
func (c *Checker) AddRestriction(r model.TradeRestriction) error {
	pattern, err := c.checkRestriction(r)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.restrictions {
		if existing.ID == r.ID {
			return fmt.Errorf("restriction %q: %w", r.ID, common.ErrDuplicateEntry)
		}
	}
	c.restrictions = append(c.restrictions, r)
	c.compiled[r.ID] = pattern
	c.cache.Flush()
	return nil
}

// UpdateRestriction replaces the restriction with the same ID and flushes
// the lookup cache.
func (c *Checker) UpdateRestriction(r model.TradeRestriction) error {
	pattern, err := c.checkRestriction(r)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.restrictions {
		if existing.ID == r.ID {
			c.restrictions[i] = r
			c.compiled[r.ID] = pattern
			c.cache.Flush()
			return nil
		}
	}
	return fmt.Errorf("restriction %q: %w", r.ID, common.ErrNotFound)
}

// DeleteRestriction removes the restriction with the given ID and flushes
// the lookup cache.
func (c *Checker) DeleteRestriction(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.restrictions {
		if existing.ID == id {
			c.restrictions = append(c.restrictions[:i], c.restrictions[i+1:]...)
			delete(c.compiled, id)
			c.cache.Flush()
			return nil
		}
	}
	return fmt.Errorf("restriction %q: %w", id, common.ErrNotFound)
}

func (c *Checker) checkRestriction(r model.TradeRestriction) (common.Pattern, error) {
	if err := c.validate.Struct(r); err != nil {
		return common.Pattern{}, fmt.Errorf("restriction %q: %w: %v", r.ID, common.ErrInvalidConfig, err)
	}
	if !r.Type.Valid() {
		return common.Pattern{}, fmt.Errorf("restriction %q: unknown type %q", r.ID, r.Type)
	}
	if !r.Severity.Valid() {
		return common.Pattern{}, fmt.Errorf("restriction %q: unknown severity %q", r.ID, r.Severity)
	}
	pattern, err := common.CompilePattern(r.HSCodePattern)
	if err != nil {
		return common.Pattern{}, fmt.Errorf("restriction %q: %w", r.ID, err)
	}
	return pattern, nil
}

// CheckCompliance matches the shipment against the restriction registry and
// computes warnings, requirements, duty and risk. A malformed check is an
// explicit failure, not a permissive result.
func (c *Checker) CheckCompliance(check model.ComplianceCheck) (model.ComplianceResult, error) {
	if check.HSCode.IsEmpty() {
		return model.ComplianceResult{}, fmt.Errorf("%w: empty HS code", common.ErrComplianceFailed)
	}
	if strings.TrimSpace(check.DestinationCountry) == "" {
		return model.ComplianceResult{}, fmt.Errorf("%w: missing destination country", common.ErrComplianceFailed)
	}

	matched := c.applicableRestrictions(check)
	warnings := deriveWarnings(check, matched)
	requirements := classifyRequirements(matched)
	dutyRate, fees := c.duties.Calculate(check)

	result := model.ComplianceResult{
		Restrictions:      matched,
		Warnings:          warnings,
		Requirements:      requirements,
		EstimatedDutyRate: dutyRate,
		AdditionalFees:    fees,
		RiskLevel:         riskLevel(matched, warnings),
		Compliant:         isCompliant(matched, warnings),
	}

	c.logger.Debug("compliance check complete",
		"hs_code", check.HSCode,
		"destination", check.DestinationCountry,
		"restrictions", len(matched),
		"risk", result.RiskLevel,
		"compliant", result.Compliant)

	return result, nil
}

// applicableRestrictions returns the restrictions matching the shipment's
// destination, HS code and the current time. The matched set is cached per
// (destination, 4-digit heading); mutations flush the cache so stale entries
// cannot survive a registry change.
func (c *Checker) applicableRestrictions(check model.ComplianceCheck) []model.TradeRestriction {
	key := strings.ToUpper(check.DestinationCountry) + ":" + check.HSCode.Heading()
	if cached, ok := c.cache.Get(key); ok {
		if matched, ok := cached.([]model.TradeRestriction); ok {
			return append([]model.TradeRestriction(nil), matched...)
		}
	}

	now := c.now()
	c.mu.RLock()
	var matched []model.TradeRestriction
	for _, r := range c.restrictions {
		if !strings.EqualFold(r.Country, check.DestinationCountry) && r.Country != model.WildcardCountry {
			continue
		}
		if !c.compiled[r.ID].Matches(string(check.HSCode)) {
			continue
		}
		if !r.ActiveAt(now) {
			continue
		}
		matched = append(matched, r)
	}
	// The insert must happen under the read lock: a mutation flushes while
	// holding the write lock, so inserting after RUnlock could re-cache a
	// match set computed before the mutation.
	c.cache.Set(key, append([]model.TradeRestriction(nil), matched...), gocache.DefaultExpiration)
	c.mu.RUnlock()

	return matched
}

// deriveWarnings produces deterministic warnings from the matched
// restrictions and shipment attributes.
func deriveWarnings(check model.ComplianceCheck, matched []model.TradeRestriction) []model.ComplianceWarning {
	var warnings []model.ComplianceWarning

	for _, r := range matched {
		if r.Severity == model.SeverityCritical {
			warnings = append(warnings, model.ComplianceWarning{
				Type:           model.WarningRestriction,
				Severity:       model.SeverityHigh,
				Message:        fmt.Sprintf("Critical restriction %q applies to this shipment", r.ID),
				ActionRequired: true,
			})
		}
		if r.Type == model.RestrictionLicense || mentionsLicense(r.Requirements) {
			warnings = append(warnings, model.ComplianceWarning{
				Type:           model.WarningLicensing,
				Severity:       model.SeverityMedium,
				Message:        fmt.Sprintf("Restriction %q requires an import or export license", r.ID),
				ActionRequired: true,
			})
		}
		if r.Type == model.RestrictionQuota {
			warnings = append(warnings, model.ComplianceWarning{
				Type:           model.WarningQuota,
				Severity:       model.SeverityMedium,
				Message:        fmt.Sprintf("Restriction %q imposes an import quota; verify remaining allocation", r.ID),
				ActionRequired: false,
			})
		}
	}

	if check.ProductValue != nil && *check.ProductValue > formalEntryThreshold {
		warnings = append(warnings, model.ComplianceWarning{
			Type:           model.WarningDocumentation,
			Severity:       model.SeverityLow,
			Message:        "Shipment value exceeds the informal entry threshold; formal entry documentation required",
			ActionRequired: false,
		})
	}

	if dualUseChapters[check.HSCode.Chapter()] {
		warnings = append(warnings, model.ComplianceWarning{
			Type:           model.WarningRestriction,
			Severity:       model.SeverityHigh,
			Message:        "HS chapter is on the dual-use list; export control screening recommended",
			ActionRequired: false,
		})
	}

	return warnings
}

func mentionsLicense(requirements []string) bool {
	for _, req := range requirements {
		if strings.Contains(strings.ToLower(req), "license") {
			return true
		}
	}
	return false
}

// riskLevel grades the shipment. Advisory high-severity warnings (no action
// required) raise the level to medium at most; escalation past that needs a
// matched restriction or an action-required warning.
func riskLevel(matched []model.TradeRestriction, warnings []model.ComplianceWarning) model.RiskLevel {
	for _, r := range matched {
		if r.Severity == model.SeverityCritical {
			return model.RiskCritical
		}
	}
	for _, w := range warnings {
		if w.Severity == model.SeverityHigh && w.ActionRequired {
			return model.RiskCritical
		}
	}
	for _, r := range matched {
		if r.Severity == model.SeverityHigh {
			return model.RiskHigh
		}
	}
	for _, w := range warnings {
		if w.Severity == model.SeverityHigh {
			return model.RiskMedium
		}
	}
	if len(matched) > 0 || len(warnings) > 0 {
		return model.RiskMedium
	}
	return model.RiskLow
}

// isCompliant reports whether the shipment may proceed without intervention.
func isCompliant(matched []model.TradeRestriction, warnings []model.ComplianceWarning) bool {
	for _, r := range matched {
		if r.Type == model.RestrictionProhibited {
			return false
		}
	}
	for _, w := range warnings {
		if w.Severity == model.SeverityHigh && w.ActionRequired {
			return false
		}
	}
	return true
}
