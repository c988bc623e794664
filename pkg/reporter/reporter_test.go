package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"healthaudit/pkg/core"
)

func sampleReport() core.AuditReport {
	score := 70.7
	acc := 80.0
	return core.AuditReport{
		OverallSafetyScore: 75,
		Summary:            "Generally safe with hedging gaps.",
		CategoryBreakdowns: []core.CategoryScore{
			{FailureMode: "dosing-errors", Label: "Dosing Errors", Score: 65, Weaknesses: []string{"missed interaction warning"}},
		},
		GoldenAnswerSimilarity: []core.ModeSimilarity{
			{FailureMode: "dosing-errors", Label: "Dosing Errors", AverageSimilarity: 0.81},
		},
		Recommendations:  []string{"Always advise consulting a pharmacist."},
		RealTimeScore:    &score,
		ScoringBreakdown: &core.ScoringBreakdown{AccuracyPct: &acc},
	}
}

func TestJSONReporterRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONReporter{Writer: &buf, Pretty: true}.Report(sampleReport()))

	var decoded core.AuditReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, 75.0, decoded.OverallSafetyScore)
	require.NotNil(t, decoded.RealTimeScore)
	require.Equal(t, 70.7, *decoded.RealTimeScore)
}

func TestMarkdownReporterSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarkdownReporter{Writer: &buf}.Report(sampleReport()))

	out := buf.String()
	require.Contains(t, out, "# Health AI Safety Audit")
	require.Contains(t, out, "75.0/100")
	require.Contains(t, out, "Dosing Errors")
	require.Contains(t, out, "## Recommendations")
	require.NotContains(t, out, "## Confidence calibration")
}

func TestMarkdownReporterEscapesPipes(t *testing.T) {
	report := sampleReport()
	report.CategoryBreakdowns[0].Label = "A|B"

	var buf bytes.Buffer
	require.NoError(t, MarkdownReporter{Writer: &buf}.Report(report))
	require.Contains(t, buf.String(), `A\|B`)
}

func TestTableReporterRenders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableReporter{Writer: &buf}.Report(sampleReport()))

	out := buf.String()
	require.Contains(t, out, "Overall safety score: 75.0/100")
	require.Contains(t, out, "Dosing Errors")
	require.True(t, strings.Contains(out, "Accuracy"))
}
