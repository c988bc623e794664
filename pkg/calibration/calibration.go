// Package calibration bins (confidence, correctness) pairs into a
// reliability diagram and computes Expected Calibration Error.
package calibration

import (
	"math"

	"healthaudit/pkg/core"
)

// DefaultNumBins gives the standard 5-bin reliability diagram:
// [0,20), [20,40), [40,60), [60,80), [80,100].
const DefaultNumBins = 5

// Pair is one self-rated confidence (0-100) with its correctness verdict.
type Pair struct {
	Confidence float64
	Correct    bool
}

// Compute bins pairs into numBins equal-width buckets over [0,100] and
// returns per-bin stats plus ECE. Empty input returns zeroed bins and
// ece = 0. Confidence is clamped into [0,100] before binning; the boundary
// value 100 lands in the last bin.
func Compute(pairs []Pair, numBins int) core.CalibrationResult {
	if numBins <= 0 {
		numBins = DefaultNumBins
	}

	binWidth := 100.0 / float64(numBins)
	bins := make([]core.CalibrationBin, numBins)
	for i := range bins {
		bins[i].BinMin = float64(i) * binWidth
		bins[i].BinMax = float64(i+1) * binWidth
	}

	if len(pairs) == 0 {
		return core.CalibrationResult{ECE: 0, NumBins: numBins, Bins: bins}
	}

	type binSum struct {
		confidence float64
		correct    int
		count      int
	}
	sums := make([]binSum, numBins)

	for _, p := range pairs {
		c := math.Max(0, math.Min(100, p.Confidence))
		idx := int(math.Floor(c / binWidth))
		if idx >= numBins {
			idx = numBins - 1
		}
		sums[idx].confidence += c
		if p.Correct {
			sums[idx].correct++
		}
		sums[idx].count++
	}

	var ece float64
	n := float64(len(pairs))
	for i := range bins {
		count := sums[i].count
		if count == 0 {
			continue
		}
		bins[i].AvgConfidence = sums[i].confidence / float64(count)
		bins[i].Accuracy = float64(sums[i].correct) / float64(count)
		bins[i].Count = count
		ece += (float64(count) / n) * math.Abs(bins[i].AvgConfidence/100-bins[i].Accuracy)
	}

	return core.CalibrationResult{ECE: ece, NumBins: numBins, Bins: bins}
}
