package reporter

import (
	"fmt"
	"io"

	"healthaudit/pkg/core"
)

type MarkdownReporter struct {
	Writer io.Writer
}

func (r MarkdownReporter) Report(report core.AuditReport) error {
	w := r.Writer
	if _, err := fmt.Fprintf(w, "# Health AI Safety Audit\n\n"); err != nil {
		return err
	}
	fmt.Fprintf(w, "**Overall safety score:** %.1f/100\n\n", report.OverallSafetyScore)
	if report.RealTimeScore != nil {
		fmt.Fprintf(w, "**Composite signal score:** %.1f/100\n\n", *report.RealTimeScore)
	}
	if report.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", report.Summary)
	}

	if len(report.CategoryBreakdowns) > 0 {
		fmt.Fprintf(w, "## Category breakdown\n\n")
		fmt.Fprintf(w, "| Failure mode | Score | Strengths | Weaknesses |\n|---|---|---|---|\n")
		for _, cat := range report.CategoryBreakdowns {
			label := cat.Label
			if label == "" {
				label = cat.FailureMode
			}
			fmt.Fprintf(w, "| %s | %.1f | %s | %s |\n",
				escapePipe(label), cat.Score,
				escapePipe(joinLines(cat.Strengths)),
				escapePipe(joinLines(cat.Weaknesses)))
		}
		fmt.Fprintln(w)
	}

	if len(report.GoldenAnswerSimilarity) > 0 {
		fmt.Fprintf(w, "## Golden answer similarity\n\n| Failure mode | Avg similarity |\n|---|---|\n")
		for _, sim := range report.GoldenAnswerSimilarity {
			label := sim.Label
			if label == "" {
				label = sim.FailureMode
			}
			fmt.Fprintf(w, "| %s | %.3f |\n", escapePipe(label), sim.AverageSimilarity)
		}
		fmt.Fprintln(w)
	}

	if report.CalibrationResults != nil {
		fmt.Fprintf(w, "## Confidence calibration\n\nExpected calibration error: %.3f\n\n", report.CalibrationResults.ECE)
		fmt.Fprintf(w, "| Bin | Count | Avg confidence | Accuracy |\n|---|---|---|---|\n")
		for _, bin := range report.CalibrationResults.Bins {
			fmt.Fprintf(w, "| %.0f-%.0f | %d | %.1f | %.2f |\n", bin.BinMin, bin.BinMax, bin.Count, bin.AvgConfidence, bin.Accuracy)
		}
		fmt.Fprintln(w)
	}

	if report.DemographicDisparity != nil {
		fmt.Fprintf(w, "## Demographic disparity\n\n%s\n\n", report.DemographicDisparity.Summary)
		fmt.Fprintf(w, "| Dimension | Value | Count | Accuracy |\n|---|---|---|---|\n")
		for dim, rows := range report.DemographicDisparity.ByDimension {
			for _, row := range rows {
				fmt.Fprintf(w, "| %s | %s | %d | %.1f%% |\n", escapePipe(dim), escapePipe(row.Value), row.Count, row.AccuracyPct)
			}
		}
		fmt.Fprintln(w)
	}

	if report.GuidelineAdherence != nil {
		fmt.Fprintf(w, "## Guideline adherence\n\n%s\n\n", report.GuidelineAdherence.Summary)
		fmt.Fprintf(w, "| Guideline | Matched | Class I total | Score |\n|---|---|---|---|\n")
		for _, g := range report.GuidelineAdherence.ByGuideline {
			fmt.Fprintf(w, "| %s | %.1f | %d | %.1f%% |\n", escapePipe(g.Guideline), g.Matched, g.Total, g.AdherenceScore)
		}
		fmt.Fprintln(w)
	}

	if report.UMLSConceptAccuracy != nil {
		fmt.Fprintf(w, "## Medical concept validity\n\n%s\n\n", report.UMLSConceptAccuracy.Summary)
		fmt.Fprintf(w, "| Failure mode | Avg score | Responses |\n|---|---|---|\n")
		for _, mode := range report.UMLSConceptAccuracy.PerFailureMode {
			fmt.Fprintf(w, "| %s | %.1f%% | %d |\n", escapePipe(mode.FailureMode), mode.AvgScorePct, mode.ResponseCount)
		}
		fmt.Fprintln(w)
	}

	if report.MultiStepReasoning != nil {
		fmt.Fprintf(w, "## Multi-step reasoning\n\n%s\n\n", report.MultiStepReasoning.Summary)
	}

	if len(report.CriticalFailures) > 0 {
		fmt.Fprintf(w, "## Critical failures\n\n")
		for _, f := range report.CriticalFailures {
			fmt.Fprintf(w, "- **%s** (%s): %s\n", escapePipe(f.FailureMode), f.Severity, escapePipe(f.Explanation))
		}
		fmt.Fprintln(w)
	}

	if len(report.Recommendations) > 0 {
		fmt.Fprintf(w, "## Recommendations\n\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(w, "- %s\n", escapePipe(rec))
		}
	}
	return nil
}

func joinLines(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += "; "
		}
		out += item
	}
	return out
}

func escapePipe(input string) string {
	if input == "" {
		return ""
	}
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if r == '|' {
			out = append(out, '\\', r)
		} else if r == '\n' || r == '\r' {
			out = append(out, ' ')
		} else {
			out = append(out, r)
		}
	}
	return string(out)
}
