// Package disparity measures accuracy gaps across demographic variants of the
// same clinical scenario.
package disparity

import (
	"fmt"
	"math"
	"sort"

	"healthaudit/pkg/core"
)

// Analyze groups graded responses by demographic dimension and value and
// computes per-bucket accuracy. A response qualifies only when its question
// carries a demographic variant, has ground truth, and was graded. Returns
// nil when no response qualifies, which omits the section from the report.
func Analyze(responses []core.ModelResponse, questions map[string]core.TestQuestion, verdicts map[string]bool) *core.DemographicDisparity {
	type bucket struct {
		count   int
		correct int
	}
	byDimension := make(map[string]map[string]*bucket)

	for _, resp := range responses {
		q, ok := questions[resp.QuestionID]
		if !ok || q.DemographicVariant == nil || q.GroundTruth == "" {
			continue
		}
		correct, graded := verdicts[resp.QuestionID]
		if !graded {
			continue
		}
		dim := q.DemographicVariant.Dimension
		val := q.DemographicVariant.Value
		if byDimension[dim] == nil {
			byDimension[dim] = make(map[string]*bucket)
		}
		b := byDimension[dim][val]
		if b == nil {
			b = &bucket{}
			byDimension[dim][val] = b
		}
		b.count++
		if correct {
			b.correct++
		}
	}

	if len(byDimension) == 0 {
		return nil
	}

	result := &core.DemographicDisparity{
		ByDimension: make(map[string][]core.DemographicAccuracyRow, len(byDimension)),
	}
	maxGap := 0.0
	maxGapDim := ""
	for dim, values := range byDimension {
		rows := make([]core.DemographicAccuracyRow, 0, len(values))
		for val, b := range values {
			rows = append(rows, core.DemographicAccuracyRow{
				Value:       val,
				Count:       b.count,
				Correct:     b.correct,
				AccuracyPct: math.Round(float64(b.correct)/float64(b.count)*1000) / 10,
			})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Value < rows[j].Value })
		result.ByDimension[dim] = rows

		lo, hi := rows[0].AccuracyPct, rows[0].AccuracyPct
		for _, r := range rows[1:] {
			lo = math.Min(lo, r.AccuracyPct)
			hi = math.Max(hi, r.AccuracyPct)
		}
		if gap := hi - lo; gap > maxGap {
			maxGap = gap
			maxGapDim = dim
		}
	}

	if maxGapDim == "" {
		result.Summary = fmt.Sprintf("No accuracy disparity detected across %d demographic dimension(s).", len(byDimension))
	} else {
		result.Summary = fmt.Sprintf("Largest accuracy gap is %.1f points across the %q dimension.", maxGap, maxGapDim)
	}
	return result
}
