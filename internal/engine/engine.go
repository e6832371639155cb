// Package engine orchestrates the full classification pipeline: AI source
// fan-out, format validation, business rules, compliance screening,
// confidence assessment, and threshold routing.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tradewind/tariffflow/internal/common"
	"github.com/tradewind/tariffflow/internal/compliance"
	"github.com/tradewind/tariffflow/internal/confidence"
	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/rules"
	"github.com/tradewind/tariffflow/internal/service"
)

// SourceConfig wraps an AI source with its routing weight and priority.
// Lower priority numbers are tried first; the raw confidence from the
// source is multiplied by Weight (capped at 100) before any comparison.
type SourceConfig struct {
	Source   service.AISource
	Weight   float64
	Priority int
}

// Config controls orchestrator behavior.
type Config struct {
	// AcceptConfidence is the adjusted-confidence level at which the
	// fan-out stops consulting further sources.
	AcceptConfidence float64
	// BatchWindow is how many requests a batch processes concurrently.
	BatchWindow int
	// BatchPause is the delay inserted between batch windows.
	BatchPause time.Duration
	// HistoryWindow is how many prior classifications feed the assessor.
	HistoryWindow int
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		AcceptConfidence: 75,
		BatchWindow:      5,
		BatchPause:       250 * time.Millisecond,
		HistoryWindow:    5,
	}
}

// Outcome carries the decision plus every intermediate stage result so
// callers can render or persist as much detail as they need.
type Outcome struct {
	RequestID        string                       `json:"request_id"`
	Success          bool                         `json:"success"`
	SourcesAttempted int                          `json:"sources_attempted"`
	FallbackUsed     bool                         `json:"fallback_used"`
	SourceName       string                       `json:"source_name,omitempty"`
	Suggestion       service.AISuggestion         `json:"suggestion"`
	Validation       service.ValidationResult     `json:"validation"`
	Rules            model.RuleEvaluation         `json:"rules"`
	Compliance       model.ComplianceResult       `json:"compliance"`
	Assessment       model.ConfidenceAssessment   `json:"assessment"`
	Routing          []model.ThresholdResult      `json:"routing"`
	Decision         model.ClassificationDecision `json:"decision"`
}

// Engine runs classification requests through the pipeline stages in order.
type Engine struct {
	sources    []SourceConfig
	validator  service.Validator
	rules      *rules.Engine
	compliance *compliance.Checker
	assessor   *confidence.Assessor
	router     *confidence.Router
	storage    service.Storage
	logger     *slog.Logger
	cfg        Config
}

// New creates an Engine with default orchestrator configuration. The
// storage argument may be nil, in which case history lookups and decision
// persistence are skipped.
func New(
	sources []SourceConfig,
	validator service.Validator,
	ruleEngine *rules.Engine,
	checker *compliance.Checker,
	assessor *confidence.Assessor,
	router *confidence.Router,
	storage service.Storage,
	logger *slog.Logger,
) *Engine {
	return NewWithConfig(sources, validator, ruleEngine, checker, assessor, router, storage, logger, DefaultConfig())
}

// NewWithConfig creates an Engine with explicit configuration.
func NewWithConfig(
	sources []SourceConfig,
	validator service.Validator,
	ruleEngine *rules.Engine,
	checker *compliance.Checker,
	assessor *confidence.Assessor,
	router *confidence.Router,
	storage service.Storage,
	logger *slog.Logger,
	cfg Config,
) *Engine {
	ordered := make([]SourceConfig, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	if cfg.AcceptConfidence <= 0 {
		cfg.AcceptConfidence = 75
	}
	if cfg.BatchWindow <= 0 {
		cfg.BatchWindow = 5
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 5
	}
	return &Engine{
		sources:    ordered,
		validator:  validator,
		rules:      ruleEngine,
		compliance: checker,
		assessor:   assessor,
		router:     router,
		storage:    storage,
		logger:     logger,
		cfg:        cfg,
	}
}

// Classify runs a single request through the full pipeline. Compliance and
// validation failures abort the pipeline with an error; history and
// persistence failures are logged and tolerated.
func (e *Engine) Classify(ctx context.Context, req model.ClassificationRequest) (*Outcome, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	out := &Outcome{RequestID: req.ID}

	suggestion, sourceName, attempted, err := e.consultSources(ctx, req.Product)
	out.SourcesAttempted = attempted
	if err != nil {
		return out, err
	}
	out.Suggestion = suggestion
	out.SourceName = sourceName
	out.FallbackUsed = attempted > 1

	validation, err := e.validator.ValidateHSCode(ctx, suggestion.HSCode, req.Product)
	if err != nil {
		return out, fmt.Errorf("%w: %v", common.ErrValidationFailed, err)
	}
	out.Validation = *validation

	evaluation := e.rules.Evaluate(ruleContext(req.Product, suggestion.HSCode))
	out.Rules = evaluation

	comp, err := e.compliance.CheckCompliance(model.ComplianceCheck{
		HSCode:             suggestion.HSCode,
		OriginCountry:      req.Product.OriginCountry,
		DestinationCountry: req.Product.DestinationCountry,
		ProductValue:       req.Product.Value,
	})
	if err != nil {
		return out, fmt.Errorf("%w: %v", common.ErrComplianceFailed, err)
	}
	out.Compliance = comp

	prior, ratings := e.loadHistory(ctx, req.Product)

	assessment := e.assessor.Assess(suggestion.Confidence, validation.Score, scoreBusinessRules(evaluation),
		confidence.AssessmentContext{
			Product:         req.Product,
			HSCode:          suggestion.HSCode,
			Prior:           prior,
			FeedbackRatings: ratings,
			Adjustments:     req.Adjustments,
		})
	out.Assessment = assessment

	routing := e.router.EvaluateThresholds(assessment.FinalScore, confidence.RouteContext{
		Category: req.Product.Category,
		Values: map[string]any{
			"destination_country": req.Product.DestinationCountry,
			"origin_country":      req.Product.OriginCountry,
			"risk_level":          string(comp.RiskLevel),
			"compliant":           comp.Compliant,
			"value":               floatOrZero(req.Product.Value),
		},
	})
	out.Routing = routing

	disp := resolveDisposition(comp, routing)
	source := model.SourceAI
	if len(evaluation.AppliedRules) > 0 {
		source = model.SourceHybrid
	}
	out.Decision = model.ClassificationDecision{
		RequestID:      req.ID,
		ProductHash:    req.Product.Hash(),
		HSCode:         suggestion.HSCode,
		Confidence:     assessment.FinalScore,
		Source:         source,
		SourceName:     sourceName,
		Disposition:    disp,
		AppliedRules:   evaluation.AppliedRules,
		Flags:          evaluation.Flags,
		RequiresReview: disp == model.DispositionReviewRequired || disp == model.DispositionEscalated,
		AutoApproved:   disp == model.DispositionApproved,
		Reasoning:      suggestion.Reasoning,
		DecidedAt:      time.Now().UTC(),
	}
	out.Success = true

	if e.storage != nil {
		if err := e.storage.SaveDecision(ctx, req.ID, req.Product, out.Decision); err != nil {
			e.logger.Warn("failed to persist decision",
				"request_id", req.ID,
				"error", err)
		}
	}
	return out, nil
}

// consultSources tries each AI source in priority order, applying the
// source weight to the raw confidence. It stops at the first suggestion
// meeting AcceptConfidence; otherwise the best adjusted suggestion wins.
func (e *Engine) consultSources(ctx context.Context, product model.Product) (service.AISuggestion, string, int, error) {
	var (
		best      service.AISuggestion
		bestName  string
		haveBest  bool
		attempted int
	)
	for _, src := range e.sources {
		if err := ctx.Err(); err != nil {
			return service.AISuggestion{}, "", attempted, err
		}
		attempted++
		sug, err := src.Source.Classify(ctx, product)
		if err != nil || sug == nil {
			e.logger.Warn("classification source failed",
				"source", src.Source.Name(),
				"error", err)
			continue
		}
		adjusted := *sug
		adjusted.Confidence = sug.Confidence * src.Weight
		if adjusted.Confidence > 100 {
			adjusted.Confidence = 100
		}
		if adjusted.Confidence >= e.cfg.AcceptConfidence {
			return adjusted, src.Source.Name(), attempted, nil
		}
		if !haveBest || adjusted.Confidence > best.Confidence {
			best = adjusted
			bestName = src.Source.Name()
			haveBest = true
		}
	}
	if !haveBest {
		return service.AISuggestion{}, "", attempted,
			fmt.Errorf("%w: %d sources attempted", common.ErrAllSourcesFailed, attempted)
	}
	return best, bestName, attempted, nil
}

func (e *Engine) loadHistory(ctx context.Context, product model.Product) ([]model.PriorClassification, []int) {
	if e.storage == nil {
		return nil, nil
	}
	hash := product.Hash()
	prior, err := e.storage.GetRecentClassifications(ctx, hash, e.cfg.HistoryWindow)
	if err != nil {
		e.logger.Warn("history lookup failed", "error", err)
		prior = nil
	}
	feedback, err := e.storage.GetFeedbackRatings(ctx, hash)
	if err != nil {
		e.logger.Warn("feedback lookup failed", "error", err)
		return prior, nil
	}
	ratings := make([]int, 0, len(feedback))
	for _, f := range feedback {
		ratings = append(ratings, f.Rating)
	}
	return prior, ratings
}

// ruleContext builds the evaluation context the rule engine sees. String
// fields are always present (possibly empty) so emptiness checks can fire;
// value is only present when declared.
func ruleContext(product model.Product, code model.HSCode) map[string]any {
	ctx := map[string]any{
		"description":         product.Description,
		"category":            product.Category,
		"origin_country":      product.OriginCountry,
		"destination_country": product.DestinationCountry,
		"hs_code":             string(code),
		"chapter":             code.Chapter(),
	}
	if product.Value != nil {
		ctx["value"] = *product.Value
	}
	return ctx
}

// scoreBusinessRules derives the business-rule component score from the
// flags raised during evaluation. A clean pass scores 100; each flag
// deducts by severity.
func scoreBusinessRules(eval model.RuleEvaluation) float64 {
	score := 100.0
	for _, flag := range eval.Flags {
		switch flag.Severity {
		case model.SeverityCritical:
			score -= 30
		case model.SeverityHigh:
			score -= 20
		case model.SeverityMedium:
			score -= 10
		default:
			score -= 5
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// resolveDisposition folds compliance risk and threshold routing into the
// final disposition. High or critical compliance risk escalates regardless
// of confidence; a rejecting threshold rejects; an escalating threshold
// escalates; any other triggered threshold besides auto-approval forces
// review.
func resolveDisposition(comp model.ComplianceResult, routing []model.ThresholdResult) model.Disposition {
	if comp.RiskLevel.AtLeast(model.RiskHigh) {
		return model.DispositionEscalated
	}
	for _, r := range routing {
		switch r.Action.Type {
		case model.ThresholdReject:
			return model.DispositionRejected
		case model.ThresholdEscalate:
			return model.DispositionEscalated
		}
	}
	for _, r := range routing {
		if r.Action.Type != model.ThresholdAutoApprove {
			return model.DispositionReviewRequired
		}
	}
	if comp.RiskLevel == model.RiskMedium {
		return model.DispositionReviewRequired
	}
	return model.DispositionApproved
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
