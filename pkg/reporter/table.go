package reporter

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"healthaudit/pkg/core"
)

type TableReporter struct {
	Writer io.Writer
}

func (r TableReporter) Report(report core.AuditReport) error {
	fmt.Fprintf(r.Writer, "Overall safety score: %.1f/100\n", report.OverallSafetyScore)
	if report.RealTimeScore != nil {
		fmt.Fprintf(r.Writer, "Composite signal score: %.1f/100\n", *report.RealTimeScore)
	}
	if report.Summary != "" {
		fmt.Fprintf(r.Writer, "\n%s\n", report.Summary)
	}

	if len(report.CategoryBreakdowns) > 0 {
		fmt.Fprintf(r.Writer, "\nCategory breakdown\n")
		table := tablewriter.NewWriter(r.Writer)
		table.Header([]string{"Failure mode", "Score", "Critical failures"})
		for _, cat := range report.CategoryBreakdowns {
			label := cat.Label
			if label == "" {
				label = cat.FailureMode
			}
			table.Append([]string{label, fmt.Sprintf("%.1f", cat.Score), fmt.Sprintf("%d", len(cat.CriticalFailures))})
		}
		table.Render()
	}

	if len(report.GoldenAnswerSimilarity) > 0 {
		fmt.Fprintf(r.Writer, "\nGolden answer similarity\n")
		table := tablewriter.NewWriter(r.Writer)
		table.Header([]string{"Failure mode", "Avg similarity"})
		for _, sim := range report.GoldenAnswerSimilarity {
			label := sim.Label
			if label == "" {
				label = sim.FailureMode
			}
			table.Append([]string{label, fmt.Sprintf("%.3f", sim.AverageSimilarity)})
		}
		table.Render()
	}

	if report.ScoringBreakdown != nil {
		fmt.Fprintf(r.Writer, "\nScoring signals\n")
		table := tablewriter.NewWriter(r.Writer)
		table.Header([]string{"Signal", "Value"})
		appendSignal(table, "Accuracy", report.ScoringBreakdown.AccuracyPct)
		appendSignal(table, "Golden similarity", report.ScoringBreakdown.SimilarityPct)
		appendSignal(table, "Citation transparency", report.ScoringBreakdown.CitationPct)
		appendSignal(table, "Concept validity", report.ScoringBreakdown.UMLSPct)
		table.Render()
	}

	if report.CalibrationResults != nil {
		fmt.Fprintf(r.Writer, "\nConfidence calibration (ECE %.3f)\n", report.CalibrationResults.ECE)
		table := tablewriter.NewWriter(r.Writer)
		table.Header([]string{"Bin", "Count", "Avg confidence", "Accuracy"})
		for _, bin := range report.CalibrationResults.Bins {
			table.Append([]string{
				fmt.Sprintf("%.0f-%.0f", bin.BinMin, bin.BinMax),
				fmt.Sprintf("%d", bin.Count),
				fmt.Sprintf("%.1f", bin.AvgConfidence),
				fmt.Sprintf("%.2f", bin.Accuracy),
			})
		}
		table.Render()
	}

	if report.DemographicDisparity != nil {
		fmt.Fprintf(r.Writer, "\nDemographic disparity: %s\n", report.DemographicDisparity.Summary)
		table := tablewriter.NewWriter(r.Writer)
		table.Header([]string{"Dimension", "Value", "Count", "Accuracy"})
		for dim, rows := range report.DemographicDisparity.ByDimension {
			for _, row := range rows {
				table.Append([]string{dim, row.Value, fmt.Sprintf("%d", row.Count), fmt.Sprintf("%.1f%%", row.AccuracyPct)})
			}
		}
		table.Render()
	}

	if report.GuidelineAdherence != nil {
		fmt.Fprintf(r.Writer, "\nGuideline adherence: %s\n", report.GuidelineAdherence.Summary)
		table := tablewriter.NewWriter(r.Writer)
		table.Header([]string{"Guideline", "Matched", "Class I total", "Score"})
		for _, g := range report.GuidelineAdherence.ByGuideline {
			table.Append([]string{g.Guideline, fmt.Sprintf("%.1f", g.Matched), fmt.Sprintf("%d", g.Total), fmt.Sprintf("%.1f%%", g.AdherenceScore)})
		}
		table.Render()
	}

	if report.MultiStepReasoning != nil {
		fmt.Fprintf(r.Writer, "\nMulti-step reasoning: %.1f/100 (%s)\n",
			report.MultiStepReasoning.OverallScore, report.MultiStepReasoning.Summary)
	}

	if len(report.CriticalFailures) > 0 {
		fmt.Fprintf(r.Writer, "\nCritical failures\n")
		for _, f := range report.CriticalFailures {
			fmt.Fprintf(r.Writer, "- [%s] %s: %s\n", f.Severity, f.FailureMode, f.Explanation)
		}
	}

	if len(report.Recommendations) > 0 {
		fmt.Fprintf(r.Writer, "\nRecommendations\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(r.Writer, "- %s\n", rec)
		}
	}
	return nil
}

func appendSignal(table *tablewriter.Table, name string, value *float64) {
	if value == nil {
		return
	}
	table.Append([]string{name, fmt.Sprintf("%.1f%%", *value)})
}
