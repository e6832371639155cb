package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/service"
)

// buildPrompt renders the user prompt for the LLM-backed providers.
func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify the following product into an HS tariff code.\n\n")
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	if req.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", req.Category)
	}
	if req.OriginCountry != "" {
		fmt.Fprintf(&b, "Country of origin: %s\n", req.OriginCountry)
	}
	if req.DestinationCountry != "" {
		fmt.Fprintf(&b, "Destination: %s\n", req.DestinationCountry)
	}
	if len(req.Materials) > 0 {
		fmt.Fprintf(&b, "Materials: %s\n", strings.Join(req.Materials, ", "))
	}
	if req.IntendedUse != "" {
		fmt.Fprintf(&b, "Intended use: %s\n", req.IntendedUse)
	}
	return b.String()
}

// suggestionPayload is the JSON shape every provider is prompted to return.
type suggestionPayload struct {
	HSCode     string  `json:"hs_code"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// parseSuggestion extracts the suggestion JSON from a model response,
// tolerating surrounding prose and markdown fences.
func parseSuggestion(raw string) (service.AISuggestion, error) {
	text := strings.TrimSpace(raw)

	// Strip markdown code fences if the model wrapped its output.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	// Fall back to the outermost braces when prose surrounds the JSON.
	if !strings.HasPrefix(text, "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return service.AISuggestion{}, fmt.Errorf("no JSON object in response: %q", raw)
		}
		text = text[start : end+1]
	}

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to parse suggestion JSON: %w", err)
	}

	if payload.HSCode == "" {
		return service.AISuggestion{}, fmt.Errorf("response contains no HS code")
	}
	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 100 {
		payload.Confidence = 100
	}

	return service.AISuggestion{
		HSCode:     model.HSCode(payload.HSCode),
		Confidence: payload.Confidence,
		Reasoning:  payload.Reasoning,
	}, nil
}
