package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tradewind/tariffflow/internal/engine"
	"github.com/tradewind/tariffflow/internal/model"
)

// RenderOutcome formats one classification outcome for terminal display.
func RenderOutcome(out *engine.Outcome) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n",
		BoldStyle.Render(string(out.Decision.HSCode)),
		SubtleStyle.Render(fmt.Sprintf("(%s via %s)", out.Decision.Source, out.SourceName))))
	b.WriteString(fmt.Sprintf("Confidence: %s  Reliability: %s\n",
		confidenceStyle(out.Assessment.FinalScore).Render(fmt.Sprintf("%.1f", out.Assessment.FinalScore)),
		string(out.Assessment.Reliability)))
	b.WriteString(fmt.Sprintf("Disposition: %s\n", renderDisposition(out.Decision.Disposition)))

	if out.FallbackUsed {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("Fallback used: %d sources attempted\n", out.SourcesAttempted)))
	}

	if len(out.Decision.AppliedRules) > 0 {
		b.WriteString(fmt.Sprintf("Applied rules: %s\n", strings.Join(out.Decision.AppliedRules, ", ")))
	}
	for _, flag := range out.Decision.Flags {
		b.WriteString(FormatWarning(fmt.Sprintf("[%s/%s] %s", flag.Type, flag.Severity, flag.Message)))
		b.WriteString("\n")
	}

	b.WriteString(renderCompliance(out.Compliance))

	for _, route := range out.Routing {
		b.WriteString(fmt.Sprintf("%s %s\n", FlagIcon, route.Reasoning))
		for _, step := range route.NextSteps {
			b.WriteString(SubtleStyle.Render("  - " + step))
			b.WriteString("\n")
		}
	}

	return RenderBox(fmt.Sprintf("Classification %s", out.RequestID), strings.TrimRight(b.String(), "\n"))
}

func renderCompliance(comp model.ComplianceResult) string {
	var b strings.Builder
	status := FormatSuccess("compliant")
	if !comp.Compliant {
		status = FormatError("not compliant")
	}
	b.WriteString(fmt.Sprintf("Compliance: %s  Risk: %s\n", status, renderRisk(comp.RiskLevel)))

	for _, w := range comp.Warnings {
		b.WriteString(FormatWarning(fmt.Sprintf("[%s] %s", w.Type, w.Message)))
		b.WriteString("\n")
	}
	for _, r := range comp.Requirements {
		marker := "optional"
		if r.Mandatory {
			marker = "mandatory"
		}
		b.WriteString(fmt.Sprintf("  %s requirement (%s): %s\n", r.Kind, marker, r.Description))
	}
	if comp.EstimatedDutyRate > 0 {
		b.WriteString(fmt.Sprintf("Estimated duty rate: %.2f%%\n", comp.EstimatedDutyRate))
	}
	for _, fee := range comp.AdditionalFees {
		b.WriteString(fmt.Sprintf("  %s: %.2f\n", fee.Name, fee.Amount))
	}
	return b.String()
}

func renderDisposition(d model.Disposition) string {
	switch d {
	case model.DispositionApproved:
		return SuccessStyle.Render(string(d))
	case model.DispositionReviewRequired:
		return WarningStyle.Render(string(d))
	case model.DispositionRejected, model.DispositionEscalated:
		return ErrorStyle.Render(string(d))
	default:
		return string(d)
	}
}

func renderRisk(level model.RiskLevel) string {
	switch level {
	case model.RiskLow:
		return SuccessStyle.Render(string(level))
	case model.RiskMedium:
		return WarningStyle.Render(string(level))
	default:
		return ErrorStyle.Render(string(level))
	}
}

func confidenceStyle(score float64) lipgloss.Style {
	switch {
	case score >= 85:
		return SuccessStyle
	case score >= 60:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

// RenderBatchSummary formats the closing summary of a batch run.
func RenderBatchSummary(result engine.BatchResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Processed %d requests in %s\n",
		len(result.Outcomes), result.Elapsed.Round(10*time.Millisecond)))
	b.WriteString(FormatSuccess(fmt.Sprintf("%d succeeded", result.SuccessCount)))
	b.WriteString("\n")
	if result.ErrorCount > 0 {
		b.WriteString(FormatError(fmt.Sprintf("%d failed", result.ErrorCount)))
		b.WriteString("\n")
		for _, e := range result.Errors {
			b.WriteString(SubtleStyle.Render(fmt.Sprintf("  #%d %s: %s", e.Index, e.RequestID, e.Error)))
			b.WriteString("\n")
		}
	}

	counts := make(map[model.Disposition]int)
	for _, out := range result.Outcomes {
		if out != nil && out.Success {
			counts[out.Decision.Disposition]++
		}
	}
	for _, d := range []model.Disposition{
		model.DispositionApproved,
		model.DispositionReviewRequired,
		model.DispositionEscalated,
		model.DispositionRejected,
	} {
		if counts[d] > 0 {
			b.WriteString(fmt.Sprintf("  %s: %d\n", renderDisposition(d), counts[d]))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
