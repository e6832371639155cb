package compliance

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewind/tariffflow/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestChecker(restrictions []model.TradeRestriction) *Checker {
	return NewChecker(restrictions, nil, WithClock(fixedClock(testNow)))
}

func TestChecker_ProhibitedFirearms(t *testing.T) {
	checker := newTestChecker(DefaultRestrictions())

	result, err := checker.CheckCompliance(model.ComplianceCheck{
		HSCode:             "9301.10.00",
		OriginCountry:      "DE",
		DestinationCountry: "US",
	})
	require.NoError(t, err)

	require.Len(t, result.Restrictions, 1)
	assert.Equal(t, model.RestrictionProhibited, result.Restrictions[0].Type)
	assert.False(t, result.Compliant)
	assert.Equal(t, model.RiskCritical, result.RiskLevel)
}

func TestChecker_ElectronicsToUS(t *testing.T) {
	checker := newTestChecker(DefaultRestrictions())

	result, err := checker.CheckCompliance(model.ComplianceCheck{
		HSCode:             "8517.12.00",
		OriginCountry:      "KR",
		DestinationCountry: "US",
		ProductValue:       floatPtr(1200),
	})
	require.NoError(t, err)

	// The controlled-electronics entry is scoped to destination CN, so
	// nothing matches; the dual-use chapter still raises an advisory.
	assert.Empty(t, result.Restrictions)
	assert.True(t, result.Compliant)
	assert.Contains(t, []model.RiskLevel{model.RiskLow, model.RiskMedium}, result.RiskLevel)

	var dualUse bool
	for _, w := range result.Warnings {
		if w.Type == model.WarningRestriction && !w.ActionRequired {
			dualUse = true
			assert.Equal(t, model.SeverityHigh, w.Severity)
		}
	}
	assert.True(t, dualUse, "expected dual-use advisory warning for chapter 85")
}

func TestChecker_ControlledElectronicsToChina(t *testing.T) {
	checker := newTestChecker(DefaultRestrictions())

	result, err := checker.CheckCompliance(model.ComplianceCheck{
		HSCode:             "8542.31.00",
		OriginCountry:      "US",
		DestinationCountry: "CN",
	})
	require.NoError(t, err)

	require.Len(t, result.Restrictions, 1)
	assert.Equal(t, "cn-controlled-electronics", result.Restrictions[0].ID)
	assert.Equal(t, model.RiskHigh, result.RiskLevel)

	// The requirement text mentions a license, so a licensing warning and a
	// license requirement with its fixed cost profile are derived.
	var licensing bool
	for _, w := range result.Warnings {
		if w.Type == model.WarningLicensing {
			licensing = true
		}
	}
	assert.True(t, licensing)

	require.NotEmpty(t, result.Requirements)
	assert.Equal(t, model.RequirementLicense, result.Requirements[0].Kind)
	assert.InDelta(t, 250, result.Requirements[0].EstimatedCost, 0.001)
	assert.True(t, result.Requirements[0].Mandatory)
}

func TestChecker_ExpiredRestrictionNeverMatches(t *testing.T) {
	expiry := testNow.Add(-24 * time.Hour)
	checker := newTestChecker([]model.TradeRestriction{
		{
			ID:            "expired",
			Country:       "US",
			HSCodePattern: `^85`,
			Type:          model.RestrictionRestricted,
			Severity:      model.SeverityHigh,
			EffectiveDate: testNow.Add(-48 * time.Hour),
			ExpiryDate:    &expiry,
		},
	})

	result, err := checker.CheckCompliance(model.ComplianceCheck{
		HSCode:             "8517.12.00",
		DestinationCountry: "US",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Restrictions)
}

func TestChecker_NotYetEffectiveRestrictionNeverMatches(t *testing.T) {
	checker := newTestChecker([]model.TradeRestriction{
		{
			ID:            "future",
			Country:       "US",
			HSCodePattern: `^85`,
			Type:          model.RestrictionRestricted,
			Severity:      model.SeverityHigh,
			EffectiveDate: testNow.Add(24 * time.Hour),
		},
	})

	result, err := checker.CheckCompliance(model.ComplianceCheck{
		HSCode:             "8517.12.00",
		DestinationCountry: "US",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Restrictions)
}

func TestChecker_WildcardCountry(t *testing.T) {
	checker := newTestChecker(DefaultRestrictions())

	result, err := checker.CheckCompliance(model.ComplianceCheck{
		HSCode:             "0106.20.00",
		DestinationCountry: "JP",
	})
	require.NoError(t, err)

	require.Len(t, result.Restrictions, 1)
	assert.Equal(t, "wildcard-cites-species", result.Restrictions[0].ID)
}

func TestChecker_CacheIdempotenceAndInvalidation(t *testing.T) {
	checker := newTestChecker(nil)
	check := model.ComplianceCheck{
		HSCode:             "8517.12.00",
		DestinationCountry: "US",
	}

	first, err := checker.CheckCompliance(check)
	require.NoError(t, err)
	second, err := checker.CheckCompliance(check)
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeated checks must be idempotent until a mutation")

	// A mutation must invalidate the cached lookup before returning.
	require.NoError(t, checker.AddRestriction(model.TradeRestriction{
		ID:            "new-restriction",
		Country:       "US",
		HSCodePattern: `^8517`,
		Type:          model.RestrictionRestricted,
		Severity:      model.SeverityHigh,
		EffectiveDate: testNow.Add(-time.Hour),
	}))

	third, err := checker.CheckCompliance(check)
	require.NoError(t, err)
	require.Len(t, third.Restrictions, 1)
	assert.Equal(t, "new-restriction", third.Restrictions[0].ID)

	require.NoError(t, checker.DeleteRestriction("new-restriction"))
	fourth, err := checker.CheckCompliance(check)
	require.NoError(t, err)
	assert.Empty(t, fourth.Restrictions)
}

func TestChecker_MutationInvalidatesUnderConcurrentChecks(t *testing.T) {
	checker := newTestChecker(nil)
	check := model.ComplianceCheck{
		HSCode:             "8517.12.00",
		DestinationCountry: "US",
	}
	restriction := model.TradeRestriction{
		ID:            "contended",
		Country:       "US",
		HSCodePattern: `^8517`,
		Type:          model.RestrictionRestricted,
		Severity:      model.SeverityHigh,
		EffectiveDate: testNow.Add(-time.Hour),
	}

	// Concurrent readers keep re-populating the cache; a check issued after
	// a mutation returns must still see the mutated registry, never a match
	// set a racing reader computed before the mutation.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, _ = checker.CheckCompliance(check)
			}
		}()
	}

	for i := 0; i < 200; i++ {
		require.NoError(t, checker.AddRestriction(restriction))
		result, err := checker.CheckCompliance(check)
		require.NoError(t, err)
		require.Len(t, result.Restrictions, 1, "check after add must see the new restriction")

		require.NoError(t, checker.DeleteRestriction(restriction.ID))
		result, err = checker.CheckCompliance(check)
		require.NoError(t, err)
		require.Empty(t, result.Restrictions, "check after delete must not serve a stale match set")
	}

	close(stop)
	wg.Wait()
}

func TestChecker_Registry(t *testing.T) {
	checker := newTestChecker(nil)

	t.Run("invalid pattern rejected at registration", func(t *testing.T) {
		err := checker.AddRestriction(model.TradeRestriction{
			ID:            "broken",
			Country:       "US",
			HSCodePattern: `^(85`,
			Type:          model.RestrictionRestricted,
			Severity:      model.SeverityLow,
			EffectiveDate: testNow,
		})
		assert.Error(t, err)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		err := checker.AddRestriction(model.TradeRestriction{
			ID:            "weird",
			Country:       "US",
			HSCodePattern: `^85`,
			Type:          "frobnicated",
			Severity:      model.SeverityLow,
			EffectiveDate: testNow,
		})
		assert.Error(t, err)
	})

	t.Run("update unknown restriction fails", func(t *testing.T) {
		err := checker.UpdateRestriction(model.TradeRestriction{
			ID:            "ghost",
			Country:       "US",
			HSCodePattern: `^85`,
			Type:          model.RestrictionDuty,
			Severity:      model.SeverityLow,
			EffectiveDate: testNow,
		})
		assert.Error(t, err)
	})
}

func TestChecker_DocumentationWarningAboveThreshold(t *testing.T) {
	checker := newTestChecker(nil)

	result, err := checker.CheckCompliance(model.ComplianceCheck{
		HSCode:             "6109.10.00",
		DestinationCountry: "US",
		ProductValue:       floatPtr(3000),
	})
	require.NoError(t, err)

	var docs bool
	for _, w := range result.Warnings {
		if w.Type == model.WarningDocumentation {
			docs = true
		}
	}
	assert.True(t, docs)
}

func TestChecker_ExplicitFailures(t *testing.T) {
	checker := newTestChecker(nil)

	_, err := checker.CheckCompliance(model.ComplianceCheck{DestinationCountry: "US"})
	assert.Error(t, err)

	_, err = checker.CheckCompliance(model.ComplianceCheck{HSCode: "8517.12.00"})
	assert.Error(t, err)
}
