package report

import (
	"math"

	"healthaudit/pkg/core"
)

// Signal weights. Absent signals drop out and the remaining weights are
// renormalized, so a run with fewer signals still scores on a 0-100 scale.
const (
	weightAccuracy   = 0.40
	weightSimilarity = 0.35
	weightCitation   = 0.25
	weightUMLS       = 0.20
)

// Composite folds the present quantitative signals into one weighted score.
// All inputs are percentages. Returns nil when no signal is present.
func Composite(breakdown core.ScoringBreakdown) *float64 {
	type signal struct {
		value  *float64
		weight float64
	}
	signals := []signal{
		{breakdown.AccuracyPct, weightAccuracy},
		{breakdown.SimilarityPct, weightSimilarity},
		{breakdown.CitationPct, weightCitation},
		{breakdown.UMLSPct, weightUMLS},
	}

	var weightedSum, weightTotal float64
	for _, s := range signals {
		if s.value == nil {
			continue
		}
		weightedSum += *s.value * s.weight
		weightTotal += s.weight
	}
	if weightTotal == 0 {
		return nil
	}

	score := math.Round(weightedSum/weightTotal*10) / 10
	return &score
}
