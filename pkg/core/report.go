package core

// CalibrationBin is one equal-width confidence bucket over [0,100].
type CalibrationBin struct {
	BinMin        float64 `json:"binMin" yaml:"bin_min"`
	BinMax        float64 `json:"binMax" yaml:"bin_max"`
	AvgConfidence float64 `json:"avgConfidence" yaml:"avg_confidence"`
	Accuracy      float64 `json:"accuracy" yaml:"accuracy"`
	Count         int     `json:"count" yaml:"count"`
}

// CalibrationResult is the reliability diagram plus Expected Calibration Error.
type CalibrationResult struct {
	ECE     float64          `json:"ece" yaml:"ece"`
	NumBins int              `json:"numBins" yaml:"num_bins"`
	Bins    []CalibrationBin `json:"bins" yaml:"bins"`
}

// DemographicAccuracyRow is per-value accuracy within one dimension bucket.
type DemographicAccuracyRow struct {
	Value       string  `json:"value" yaml:"value"`
	Count       int     `json:"count" yaml:"count"`
	Correct     int     `json:"correct" yaml:"correct"`
	AccuracyPct float64 `json:"accuracyPct" yaml:"accuracy_pct"`
}

// DemographicDisparity groups accuracy rows by dimension name.
type DemographicDisparity struct {
	ByDimension map[string][]DemographicAccuracyRow `json:"byDimension" yaml:"by_dimension"`
	Summary     string                              `json:"summary" yaml:"summary"`
}

// GuidelineScore is one guideline's aggregated adherence entry in the report.
type GuidelineScore struct {
	Guideline      string   `json:"guideline" yaml:"guideline"`
	AdherenceScore float64  `json:"adherenceScore" yaml:"adherence_score"`
	Matched        float64  `json:"matched" yaml:"matched"`
	Total          int      `json:"total" yaml:"total"`
	Details        []string `json:"details" yaml:"details"`
}

// GuidelineAdherence is the guideline-adherence report section.
type GuidelineAdherence struct {
	ByGuideline []GuidelineScore `json:"byGuideline" yaml:"by_guideline"`
	Summary     string           `json:"summary" yaml:"summary"`
}

// CitationSummary is the citation-transparency report section.
type CitationSummary struct {
	AllTransparent bool                     `json:"allTransparent" yaml:"all_transparent"`
	PerResponse    []CitationResponseStatus `json:"perResponse" yaml:"per_response"`
}

// CitationResponseStatus is the per-response row inside CitationSummary.
type CitationResponseStatus struct {
	QuestionID                   string   `json:"questionId" yaml:"question_id"`
	CitationsTransparentAndNoted bool     `json:"citationsTransparentAndNoted" yaml:"citations_transparent_and_noted"`
	InvalidPMIDs                 []string `json:"invalidPmids,omitempty" yaml:"invalid_pmids,omitempty"`
	UncitedReferences            []string `json:"uncitedReferences,omitempty" yaml:"uncited_references,omitempty"`
}

// CategoryScore is the judge's per-failure-mode assessment.
type CategoryScore struct {
	FailureMode      string   `json:"failureMode" yaml:"failure_mode"`
	Label            string   `json:"label" yaml:"label"`
	Score            float64  `json:"score" yaml:"score"`
	Strengths        []string `json:"strengths" yaml:"strengths"`
	Weaknesses       []string `json:"weaknesses" yaml:"weaknesses"`
	CriticalFailures []string `json:"criticalFailures" yaml:"critical_failures"`
}

// CriticalFailure is one dangerous response flagged by the judge.
type CriticalFailure struct {
	Question    string `json:"question" yaml:"question"`
	Response    string `json:"response" yaml:"response"`
	FailureMode string `json:"failureMode" yaml:"failure_mode"`
	Severity    string `json:"severity" yaml:"severity"`
	Explanation string `json:"explanation" yaml:"explanation"`
}

// ModeSimilarity is the judge-facing golden-answer similarity rollup.
type ModeSimilarity struct {
	FailureMode       string  `json:"failureMode" yaml:"failure_mode"`
	Label             string  `json:"label" yaml:"label"`
	AverageSimilarity float64 `json:"averageSimilarity" yaml:"average_similarity"`
}

// ScoringBreakdown records each present composite signal's raw percentage.
type ScoringBreakdown struct {
	AccuracyPct   *float64 `json:"accuracyPct,omitempty" yaml:"accuracy_pct,omitempty"`
	SimilarityPct *float64 `json:"similarityPct,omitempty" yaml:"similarity_pct,omitempty"`
	CitationPct   *float64 `json:"citationPct,omitempty" yaml:"citation_pct,omitempty"`
	UMLSPct       *float64 `json:"umlsPct,omitempty" yaml:"umls_pct,omitempty"`
}

// AuditReport is the terminal aggregate of one audit run. Optional sections
// are nil when their inputs were absent; absence is expected, not an error.
type AuditReport struct {
	OverallSafetyScore     float64                  `json:"overallSafetyScore" yaml:"overall_safety_score"`
	Summary                string                   `json:"summary" yaml:"summary"`
	CategoryBreakdowns     []CategoryScore          `json:"categoryBreakdowns" yaml:"category_breakdowns"`
	CriticalFailures       []CriticalFailure        `json:"criticalFailures" yaml:"critical_failures"`
	Recommendations        []string                 `json:"recommendations" yaml:"recommendations"`
	GoldenAnswerSimilarity []ModeSimilarity         `json:"goldenAnswerSimilarity" yaml:"golden_answer_similarity"`
	CitationResults        *CitationSummary         `json:"citationResults,omitempty" yaml:"citation_results,omitempty"`
	CalibrationResults     *CalibrationResult       `json:"calibrationResults,omitempty" yaml:"calibration_results,omitempty"`
	DemographicDisparity   *DemographicDisparity    `json:"demographicDisparity,omitempty" yaml:"demographic_disparity,omitempty"`
	GuidelineAdherence     *GuidelineAdherence      `json:"guidelineAdherence,omitempty" yaml:"guideline_adherence,omitempty"`
	UMLSConceptAccuracy    *ConceptValidationResult `json:"umlsConceptAccuracy,omitempty" yaml:"umls_concept_accuracy,omitempty"`
	MultiStepReasoning     *MultiStepResult         `json:"multiStepReasoning,omitempty" yaml:"multi_step_reasoning,omitempty"`
	RealTimeScore          *float64                 `json:"realTimeScore,omitempty" yaml:"real_time_score,omitempty"`
	ScoringBreakdown       *ScoringBreakdown        `json:"scoringBreakdown,omitempty" yaml:"scoring_breakdown,omitempty"`
}
