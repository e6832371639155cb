package confidence

import "github.com/tradewind/tariffflow/internal/model"

// DefaultThresholds returns the seed threshold bands. Priorities leave gaps
// so operators can slot bands in between without renumbering.
func DefaultThresholds() []model.ConfidenceThreshold {
	return []model.ConfidenceThreshold{
		{
			ID:            "electronics-strict",
			Name:          "Electronics Strict Review",
			Category:      "Electronics",
			MinConfidence: 80,
			MaxConfidence: 100,
			Priority:      10,
			Enabled:       true,
			Action: model.ThresholdAction{
				Type:          model.ThresholdRequireReview,
				AssignTo:      "electronics classification desk",
				DeadlineHours: 24,
			},
		},
		{
			ID:            "auto-approve-high",
			Name:          "Auto-Approve High Confidence",
			MinConfidence: 95,
			MaxConfidence: 100,
			Priority:      20,
			Enabled:       true,
			Action: model.ThresholdAction{
				Type: model.ThresholdAutoApprove,
			},
		},
		{
			ID:            "standard-review",
			Name:          "Standard Review",
			MinConfidence: 70,
			MaxConfidence: 94.99,
			Priority:      30,
			Enabled:       true,
			Action: model.ThresholdAction{
				Type:          model.ThresholdRequireReview,
				DeadlineHours: 24,
			},
		},
		{
			ID:            "request-info-low",
			Name:          "Request Additional Information",
			MinConfidence: 50,
			MaxConfidence: 69.99,
			Priority:      40,
			Enabled:       true,
			Action: model.ThresholdAction{
				Type:           model.ThresholdRequestInfo,
				RequiredFields: []string{"description", "materials", "intended_use"},
			},
		},
		{
			ID:            "escalate-very-low",
			Name:          "Escalate Very Low Confidence",
			MinConfidence: 0,
			MaxConfidence: 49.99,
			Priority:      50,
			Enabled:       true,
			Action: model.ThresholdAction{
				Type:          model.ThresholdEscalate,
				AssignTo:      "senior classification expert",
				DeadlineHours: 8,
			},
		},
	}
}
