// Package hsvalidator implements a format/structure validator for HS codes.
// It is the reference implementation of service.Validator; deployments may
// substitute a schedule-backed validator.
package hsvalidator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/service"
)

// Score deductions per finding.
const (
	errorDeduction   = 40.0
	warningDeduction = 10.0
)

// codeShape accepts plain digit strings and conventional dotted groupings.
var codeShape = regexp.MustCompile(`^\d{4}(\.\d{2}){1,3}$|^\d{6,10}$`)

// categoryChapters maps a product category to the HS chapters it usually
// classifies into. Used for consistency warnings only, never hard failures.
var categoryChapters = map[string][]string{
	"electronics": {"84", "85", "90", "91"},
	"apparel":     {"61", "62"},
	"clothing":    {"61", "62"},
	"footwear":    {"64"},
	"toys":        {"95"},
	"furniture":   {"94"},
	"food":        {"02", "04", "16", "17", "18", "19", "20", "21", "22"},
	"chemicals":   {"28", "29", "38"},
}

// FormatValidator validates HS code structure and category consistency.
type FormatValidator struct {
	logger *slog.Logger
}

// New creates a format validator.
func New(logger *slog.Logger) *FormatValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormatValidator{logger: logger}
}

// ValidateHSCode checks the candidate code. The returned score starts at 100
// and deducts per error and warning; it never fails outright for a malformed
// code, since a low score is itself the signal.
func (v *FormatValidator) ValidateHSCode(_ context.Context, code model.HSCode, product model.Product) (*service.ValidationResult, error) {
	result := &service.ValidationResult{Score: 100}

	digits := code.Digits()

	if digits == "" {
		addError(result, "hs-empty", "HS code contains no digits")
		return result, nil
	}

	if !codeShape.MatchString(strings.TrimSpace(string(code))) {
		addError(result, "hs-format",
			fmt.Sprintf("HS code %q is not a recognized format (expected 6-10 digits, optionally dot-grouped)", code))
	}

	switch {
	case len(digits) < 6:
		addError(result, "hs-length",
			fmt.Sprintf("HS code %q is too short: at least 6 digits required", code))
	case len(digits) > 10:
		addError(result, "hs-length",
			fmt.Sprintf("HS code %q is too long: at most 10 digits allowed", code))
	case len(digits)%2 != 0:
		addWarning(result, "hs-length",
			fmt.Sprintf("HS code %q has an odd digit count; codes are normally 6, 8 or 10 digits", code),
			"Pad or trim to a standard statistical suffix length")
	}

	if chapter := code.Chapter(); chapter != "" {
		n, err := strconv.Atoi(chapter)
		if err != nil || n < 1 || n > 97 || n == 77 {
			addError(result, "hs-chapter",
				fmt.Sprintf("chapter %q is not a valid HS chapter", chapter))
		}
	}

	v.checkCategoryConsistency(result, code, product)

	v.logger.Debug("hs code validated",
		"hs_code", code,
		"score", result.Score,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings))

	return result, nil
}

func (v *FormatValidator) checkCategoryConsistency(result *service.ValidationResult, code model.HSCode, product model.Product) {
	category := strings.ToLower(strings.TrimSpace(product.Category))
	if category == "" {
		return
	}

	expected, known := categoryChapters[category]
	if !known {
		return
	}

	chapter := code.Chapter()
	for _, want := range expected {
		if chapter == want {
			return
		}
	}

	addWarning(result, "hs-category",
		fmt.Sprintf("chapter %s is unusual for category %q", chapter, product.Category),
		fmt.Sprintf("Products in this category typically classify under chapters %s",
			strings.Join(expected, ", ")))
}

func addError(result *service.ValidationResult, ruleID, message string) {
	result.Errors = append(result.Errors, service.ValidationIssue{
		Message: message,
		RuleID:  ruleID,
	})
	result.Score -= errorDeduction
	if result.Score < 0 {
		result.Score = 0
	}
}

func addWarning(result *service.ValidationResult, ruleID, message, suggestion string) {
	result.Warnings = append(result.Warnings, service.ValidationIssue{
		Message:    message,
		RuleID:     ruleID,
		Suggestion: suggestion,
	})
	result.Score -= warningDeduction
	if result.Score < 0 {
		result.Score = 0
	}
}
