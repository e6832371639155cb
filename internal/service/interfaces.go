// Package service defines the interfaces between the classification core and
// its external collaborators.
package service

import (
	"context"
	"time"

	"github.com/tradewind/tariffflow/internal/model"
)

// AISuggestion is a single classification suggestion from an external AI
// source. Confidence is on a 0-100 scale.
type AISuggestion struct {
	HSCode     model.HSCode
	Reasoning  string
	Confidence float64
}

// AISource is one external classification provider. Classify returns nil
// when the source has no suggestion for the product; errors are caught by the
// orchestrator, which continues with the next source.
type AISource interface {
	Name() string
	Classify(ctx context.Context, product model.Product) (*AISuggestion, error)
}

// ValidationIssue is one error or warning from the HS-code validator.
type ValidationIssue struct {
	Message    string
	RuleID     string
	Suggestion string
}

// ValidationResult is the outcome of validating a candidate HS code. Score is
// on a 0-100 scale.
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
	Score    float64
}

// Validator checks a candidate HS code for format and category consistency.
// A failure here gates approval and must propagate, distinct from a low
// score.
type Validator interface {
	ValidateHSCode(ctx context.Context, code model.HSCode, product model.Product) (*ValidationResult, error)
}

// FeedbackRating is one user rating (1-5) of a past classification.
type FeedbackRating struct {
	RatedAt time.Time
	Rating  int
}

// Storage persists decisions and serves the history that feeds the
// confidence assessor. The core itself never persists state; this interface
// is implemented by an external collaborator.
type Storage interface {
	SaveDecision(ctx context.Context, requestID string, product model.Product, decision model.ClassificationDecision) error
	GetRecentClassifications(ctx context.Context, productKey string, limit int) ([]model.PriorClassification, error)
	GetFeedbackRatings(ctx context.Context, productKey string) ([]FeedbackRating, error)
	SaveFeedback(ctx context.Context, productKey string, rating int) error
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations against external
// collaborators.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
