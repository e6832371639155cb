package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewind/tariffflow/internal/common"
	"github.com/tradewind/tariffflow/internal/compliance"
	"github.com/tradewind/tariffflow/internal/confidence"
	"github.com/tradewind/tariffflow/internal/hsvalidator"
	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/rules"
	"github.com/tradewind/tariffflow/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, sources []SourceConfig, storage service.Storage) *Engine {
	t.Helper()
	logger := testLogger()
	cfg := DefaultConfig()
	cfg.BatchPause = 0
	return NewWithConfig(
		sources,
		hsvalidator.New(logger),
		rules.NewEngine(rules.DefaultRules(), logger),
		compliance.NewChecker(compliance.DefaultRestrictions(), logger),
		confidence.NewAssessor(logger),
		confidence.NewRouter(confidence.DefaultThresholds(), logger),
		storage,
		logger,
		cfg,
	)
}

func electronicsProduct() model.Product {
	value := 1200.0
	return model.Product{
		Description:        "Smartphone with 6.1 inch OLED display, dual camera module, 5G modem, 128GB storage and aluminum unibody enclosure",
		Category:           "Electronics",
		OriginCountry:      "KR",
		DestinationCountry: "US",
		Value:              &value,
	}
}

func TestConsultSources_PriorityOrder(t *testing.T) {
	low := NewMockSource("low-confidence", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 60, Reasoning: "weak match",
	})
	high := NewMockSource("high-confidence", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 95, Reasoning: "strong match",
	})
	e := newTestEngine(t, []SourceConfig{
		{Source: high, Weight: 1, Priority: 2},
		{Source: low, Weight: 1, Priority: 1},
	}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.NoError(t, err)

	assert.Equal(t, 1, low.Calls(), "lower priority number should be consulted first")
	assert.Equal(t, 1, high.Calls())
	assert.Equal(t, "high-confidence", out.SourceName)
	assert.Equal(t, 2, out.SourcesAttempted)
	assert.True(t, out.FallbackUsed)
}

func TestConsultSources_StopsAtAcceptConfidence(t *testing.T) {
	first := NewMockSource("primary", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 92,
	})
	second := NewMockSource("secondary", &service.AISuggestion{
		HSCode: "8471.30.00", Confidence: 99,
	})
	e := newTestEngine(t, []SourceConfig{
		{Source: first, Weight: 1, Priority: 1},
		{Source: second, Weight: 1, Priority: 2},
	}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.NoError(t, err)

	assert.Equal(t, 0, second.Calls(), "should not consult further sources after an accepted suggestion")
	assert.Equal(t, "primary", out.SourceName)
	assert.Equal(t, 1, out.SourcesAttempted)
	assert.False(t, out.FallbackUsed)
}

func TestConsultSources_WeightScalesConfidence(t *testing.T) {
	src := NewMockSource("discounted", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 90,
	})
	e := newTestEngine(t, []SourceConfig{
		{Source: src, Weight: 0.5, Priority: 1},
	}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.NoError(t, err)
	assert.InDelta(t, 45.0, out.Suggestion.Confidence, 0.001)
}

func TestConsultSources_WeightCapsAtHundred(t *testing.T) {
	src := NewMockSource("boosted", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 90,
	})
	e := newTestEngine(t, []SourceConfig{
		{Source: src, Weight: 1.5, Priority: 1},
	}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, out.Suggestion.Confidence, 0.001)
}

func TestConsultSources_FallsBackPastFailures(t *testing.T) {
	broken := NewFailingSource("broken", errors.New("upstream timeout"))
	working := NewMockSource("working", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 92,
	})
	e := newTestEngine(t, []SourceConfig{
		{Source: broken, Weight: 1, Priority: 1},
		{Source: working, Weight: 1, Priority: 2},
	}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.NoError(t, err)
	assert.True(t, out.FallbackUsed)
	assert.Equal(t, "working", out.SourceName)
	assert.Equal(t, 2, out.SourcesAttempted)
}

func TestClassify_AllSourcesFail(t *testing.T) {
	e := newTestEngine(t, []SourceConfig{
		{Source: NewFailingSource("a", errors.New("down")), Weight: 1, Priority: 1},
		{Source: NewFailingSource("b", errors.New("down")), Weight: 1, Priority: 2},
	}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAllSourcesFailed)
	assert.False(t, out.Success)
	assert.Equal(t, 2, out.SourcesAttempted)
}

func TestClassify_ElectronicsRoutedToReview(t *testing.T) {
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode:     "8517.12.00",
		Confidence: 92,
		Reasoning:  "Smartphones are telephones for cellular networks under heading 8517",
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.NoError(t, err)
	require.True(t, out.Success)

	assert.Equal(t, model.DispositionReviewRequired, out.Decision.Disposition)
	assert.True(t, out.Decision.RequiresReview)
	assert.False(t, out.Decision.AutoApproved)

	// The electronics band outranks auto-approval for this category.
	require.NotEmpty(t, out.Routing)
	assert.Equal(t, "electronics-strict", out.Routing[len(out.Routing)-1].ThresholdID)

	// Dual-use screening applies to chapter 85, so rules contributed.
	assert.Equal(t, model.SourceHybrid, out.Decision.Source)
	assert.Contains(t, out.Decision.AppliedRules, "dual-use-electronics")
	assert.True(t, out.Compliance.Compliant)
	assert.Equal(t, model.RiskMedium, out.Compliance.RiskLevel)
}

func TestClassify_ProhibitedDestinationEscalates(t *testing.T) {
	value := 5000.0
	product := model.Product{
		Description:        "Bolt-action hunting rifle with walnut stock, chambered in .308 Winchester, supplied with detachable box magazine",
		Category:           "Firearms",
		OriginCountry:      "DE",
		DestinationCountry: "US",
		Value:              &value,
	}
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode:     "9301.10.00",
		Confidence: 95,
		Reasoning:  "Military firearms fall under heading 9301",
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: product})
	require.NoError(t, err)
	require.True(t, out.Success)

	assert.False(t, out.Compliance.Compliant)
	assert.Equal(t, model.RiskCritical, out.Compliance.RiskLevel)
	assert.Equal(t, model.DispositionEscalated, out.Decision.Disposition)
	assert.True(t, out.Decision.RequiresReview)
}

func TestClassify_HighConfidenceAutoApproves(t *testing.T) {
	value := 500.0
	product := model.Product{
		Description:        "Die-cast metal toy car model at 1:64 scale with rubber tires, painted body and collector display case included",
		Category:           "Toys",
		OriginCountry:      "DE",
		DestinationCountry: "GB",
		Value:              &value,
	}
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode:     "9503.00.00",
		Confidence: 96,
		Reasoning:  "Scale models are toys under heading 9503",
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: product})
	require.NoError(t, err)
	require.True(t, out.Success)

	assert.Equal(t, model.DispositionApproved, out.Decision.Disposition)
	assert.True(t, out.Decision.AutoApproved)
	assert.False(t, out.Decision.RequiresReview)
	assert.Equal(t, model.RiskLow, out.Compliance.RiskLevel)
}

func TestClassify_VeryLowConfidenceEscalates(t *testing.T) {
	product := model.Product{
		Description:        "misc parts",
		DestinationCountry: "GB",
	}
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode:     "8479.89.94",
		Confidence: 45,
		Reasoning:  "insufficient detail",
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: product})
	require.NoError(t, err)
	require.True(t, out.Success)

	assert.Equal(t, model.ReliabilityVeryLow, out.Assessment.Reliability)
	assert.Equal(t, model.DispositionEscalated, out.Decision.Disposition)

	var bandIDs []string
	for _, r := range out.Routing {
		bandIDs = append(bandIDs, r.ThresholdID)
	}
	assert.Contains(t, bandIDs, "escalate-very-low")
}

func TestClassify_AssignsRequestID(t *testing.T) {
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 92,
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, nil)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.NoError(t, err)
	assert.NotEmpty(t, out.RequestID)
	assert.Equal(t, out.RequestID, out.Decision.RequestID)

	out2, err := e.Classify(context.Background(), model.ClassificationRequest{ID: "req-42", Product: electronicsProduct()})
	require.NoError(t, err)
	assert.Equal(t, "req-42", out2.RequestID)
}

func TestScoreBusinessRules(t *testing.T) {
	tests := []struct {
		name string
		eval model.RuleEvaluation
		want float64
	}{
		{name: "no flags", eval: model.RuleEvaluation{}, want: 100},
		{
			name: "medium warning",
			eval: model.RuleEvaluation{Flags: []model.RuleFlag{{Severity: model.SeverityMedium}}},
			want: 90,
		},
		{
			name: "critical and high",
			eval: model.RuleEvaluation{Flags: []model.RuleFlag{
				{Severity: model.SeverityCritical},
				{Severity: model.SeverityHigh},
			}},
			want: 50,
		},
		{
			name: "floor at zero",
			eval: model.RuleEvaluation{Flags: []model.RuleFlag{
				{Severity: model.SeverityCritical},
				{Severity: model.SeverityCritical},
				{Severity: model.SeverityCritical},
				{Severity: model.SeverityCritical},
			}},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreBusinessRules(tt.eval))
		})
	}
}

func TestResolveDisposition(t *testing.T) {
	tests := []struct {
		name    string
		comp    model.ComplianceResult
		routing []model.ThresholdResult
		want    model.Disposition
	}{
		{
			name: "critical risk escalates regardless of thresholds",
			comp: model.ComplianceResult{RiskLevel: model.RiskCritical},
			routing: []model.ThresholdResult{
				{Action: model.ThresholdAction{Type: model.ThresholdAutoApprove}},
			},
			want: model.DispositionEscalated,
		},
		{
			name: "reject threshold rejects",
			comp: model.ComplianceResult{RiskLevel: model.RiskLow},
			routing: []model.ThresholdResult{
				{Action: model.ThresholdAction{Type: model.ThresholdReject}},
			},
			want: model.DispositionRejected,
		},
		{
			name: "escalate threshold escalates",
			comp: model.ComplianceResult{RiskLevel: model.RiskLow},
			routing: []model.ThresholdResult{
				{Action: model.ThresholdAction{Type: model.ThresholdEscalate}},
			},
			want: model.DispositionEscalated,
		},
		{
			name: "review threshold forces review",
			comp: model.ComplianceResult{RiskLevel: model.RiskLow},
			routing: []model.ThresholdResult{
				{Action: model.ThresholdAction{Type: model.ThresholdRequireReview}},
			},
			want: model.DispositionReviewRequired,
		},
		{
			name: "medium risk forces review even on auto-approval",
			comp: model.ComplianceResult{RiskLevel: model.RiskMedium},
			routing: []model.ThresholdResult{
				{Action: model.ThresholdAction{Type: model.ThresholdAutoApprove}},
			},
			want: model.DispositionReviewRequired,
		},
		{
			name: "auto-approval with low risk approves",
			comp: model.ComplianceResult{RiskLevel: model.RiskLow},
			routing: []model.ThresholdResult{
				{Action: model.ThresholdAction{Type: model.ThresholdAutoApprove}},
			},
			want: model.DispositionApproved,
		},
		{
			name:    "no thresholds and low risk approves",
			comp:    model.ComplianceResult{RiskLevel: model.RiskLow},
			routing: nil,
			want:    model.DispositionApproved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveDisposition(tt.comp, tt.routing))
		})
	}
}

func TestClassifyBatch_ErrorIsolation(t *testing.T) {
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 92,
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, nil)

	requests := []model.ClassificationRequest{
		{ID: "ok-1", Product: electronicsProduct()},
		{ID: "bad", Product: model.Product{Description: "no destination set"}},
		{ID: "ok-2", Product: electronicsProduct()},
	}

	result := e.ClassifyBatch(context.Background(), requests, nil)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bad", result.Errors[0].RequestID)
	assert.Equal(t, 1, result.Errors[0].Index)

	require.Len(t, result.Outcomes, 3)
	assert.True(t, result.Outcomes[0].Success)
	assert.False(t, result.Outcomes[1].Success)
	assert.True(t, result.Outcomes[2].Success)
}

func TestClassifyBatch_WindowsAndProgress(t *testing.T) {
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 92,
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, nil)

	requests := make([]model.ClassificationRequest, 7)
	for i := range requests {
		requests[i] = model.ClassificationRequest{Product: electronicsProduct()}
	}

	progress := 0
	result := e.ClassifyBatch(context.Background(), requests, func(done, total int) {
		progress++
		assert.Equal(t, 7, total)
	})

	assert.Equal(t, 7, result.SuccessCount)
	assert.Zero(t, result.ErrorCount)
	assert.Equal(t, 7, progress)
	assert.Equal(t, 7, src.Calls())
}

func TestClassifyBatch_ContextCancellation(t *testing.T) {
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 92,
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	requests := []model.ClassificationRequest{
		{ID: "r1", Product: electronicsProduct()},
		{ID: "r2", Product: electronicsProduct()},
	}
	result := e.ClassifyBatch(ctx, requests, nil)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Zero(t, result.SuccessCount)
}

type stubStorage struct {
	saved      []model.ClassificationDecision
	historyErr error
	prior      []model.PriorClassification
	ratings    []service.FeedbackRating
}

func (s *stubStorage) SaveDecision(_ context.Context, _ string, _ model.Product, decision model.ClassificationDecision) error {
	s.saved = append(s.saved, decision)
	return nil
}

func (s *stubStorage) GetRecentClassifications(_ context.Context, _ string, _ int) ([]model.PriorClassification, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.prior, nil
}

func (s *stubStorage) GetFeedbackRatings(_ context.Context, _ string) ([]service.FeedbackRating, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.ratings, nil
}

func (s *stubStorage) SaveFeedback(_ context.Context, _ string, _ int) error { return nil }
func (s *stubStorage) Migrate(_ context.Context) error                      { return nil }
func (s *stubStorage) Close() error                                         { return nil }

func TestClassify_PersistsDecision(t *testing.T) {
	store := &stubStorage{}
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 92,
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, store)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{ID: "req-7", Product: electronicsProduct()})
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "req-7", store.saved[0].RequestID)
	assert.Equal(t, out.Decision.HSCode, store.saved[0].HSCode)
}

func TestClassify_ToleratesHistoryFailure(t *testing.T) {
	store := &stubStorage{historyErr: errors.New("db locked")}
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 92,
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, store)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.NoError(t, err)
	assert.True(t, out.Success)
}

func TestClassify_HistoryFeedsAssessment(t *testing.T) {
	store := &stubStorage{
		prior: []model.PriorClassification{
			{HSCode: "8517.62.00", Confidence: 90},
			{HSCode: "8517.12.00", Confidence: 88},
		},
		ratings: []service.FeedbackRating{{Rating: 5}, {Rating: 4}},
	}
	src := NewMockSource("customs-ai", &service.AISuggestion{
		HSCode: "8517.12.00", Confidence: 92,
	})
	e := newTestEngine(t, []SourceConfig{{Source: src, Weight: 1, Priority: 1}}, store)

	out, err := e.Classify(context.Background(), model.ClassificationRequest{Product: electronicsProduct()})
	require.NoError(t, err)

	assert.InDelta(t, 89, out.Assessment.Components.HistoricalConsistency, 0.001)
	assert.InDelta(t, 90, out.Assessment.Components.UserFeedback, 0.001)
}
