// Package report assembles collected responses and every scoring signal
// into the final audit report.
package report

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"healthaudit/pkg/calibration"
	"healthaudit/pkg/citation"
	"healthaudit/pkg/concept"
	"healthaudit/pkg/core"
	"healthaudit/pkg/disparity"
	"healthaudit/pkg/guideline"
	"healthaudit/pkg/reasoning"
	"healthaudit/pkg/similarity"
)

// Input is everything one audit run hands to the builder.
type Input struct {
	Description   string
	Questions     []core.TestQuestion
	Responses     []core.ModelResponse
	GoldenAnswers []core.GoldenAnswer
	FailureModes  []core.FailureMode
}

// Builder orchestrates the scoring engines. Optional engines may be nil;
// their report sections are then omitted. Only the Judge is mandatory.
type Builder struct {
	Judge            core.Judge
	Guidelines       *guideline.Corpus
	ConceptValidator *concept.Validator
	CitationChecker  *citation.Checker
	SimilarityScorer *similarity.Scorer
	Reasoning        *reasoning.Analyzer
	Logger           *zap.Logger
}

// Build produces the audit report. It fails only when there is nothing to
// score or the judge cannot produce the narrative; every optional signal
// degrades to an omitted section instead.
func (b *Builder) Build(ctx context.Context, in Input) (*core.AuditReport, error) {
	if len(in.Responses) == 0 {
		return nil, fmt.Errorf("report: no responses to evaluate")
	}
	if b.Judge == nil {
		return nil, fmt.Errorf("report: judge is required")
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	modes := in.FailureModes
	if len(modes) == 0 {
		modes = core.BuiltinFailureModes
	}

	questionsByID := make(map[string]core.TestQuestion, len(in.Questions))
	for _, q := range in.Questions {
		questionsByID[q.ID] = q
	}

	verdicts := b.gradeCorrectness(ctx, logger, questionsByID, in.Responses)

	breakdown := core.ScoringBreakdown{}
	if len(verdicts) > 0 {
		correct := 0
		for _, ok := range verdicts {
			if ok {
				correct++
			}
		}
		pct := math.Round(float64(correct)/float64(len(verdicts))*1000) / 10
		breakdown.AccuracyPct = &pct
	}

	var similarityResults []core.SimilarityResult
	if b.SimilarityScorer != nil && len(in.GoldenAnswers) > 0 {
		results, err := b.SimilarityScorer.Score(ctx, in.Responses, in.GoldenAnswers)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logger.Warn("similarity scoring failed, omitting signal", zap.Error(err))
		} else if len(results) > 0 {
			similarityResults = results
			sum := 0.0
			for _, r := range results {
				sum += r.AverageSimilarity
			}
			pct := math.Round(sum/float64(len(results))*1000) / 10
			breakdown.SimilarityPct = &pct
		}
	}

	var citationChecks []core.CitationCheckResult
	var citationSummary *core.CitationSummary
	if b.CitationChecker != nil {
		checks, err := b.CitationChecker.Check(ctx, in.Responses)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logger.Warn("citation checking failed, omitting signal", zap.Error(err))
		} else {
			citationChecks = checks
			citationSummary = citation.Summarize(checks)
			if len(checks) > 0 {
				transparent := 0
				for _, check := range checks {
					if check.CitationsTransparentAndNoted {
						transparent++
					}
				}
				pct := math.Round(float64(transparent)/float64(len(checks))*1000) / 10
				breakdown.CitationPct = &pct
			}
		}
	}

	var conceptResult *core.ConceptValidationResult
	if b.ConceptValidator != nil {
		result, err := b.ConceptValidator.Validate(ctx, in.Responses)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logger.Warn("concept validation failed, omitting signal", zap.Error(err))
		} else if result != nil {
			conceptResult = result
			sum := 0.0
			for _, s := range result.PerResponse {
				sum += s.ScorePct
			}
			pct := math.Round(sum/float64(len(result.PerResponse))*10) / 10
			breakdown.UMLSPct = &pct
		}
	}

	calibrationResult := b.computeCalibration(in.Responses, verdicts)
	disparityResult := disparity.Analyze(in.Responses, questionsByID, verdicts)
	guidelineResult := b.computeGuidelines(in.Responses)

	var multiStep *core.MultiStepResult
	if b.Reasoning != nil {
		result, err := b.Reasoning.Analyze(ctx, in.Responses)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logger.Warn("reasoning analysis failed, omitting section", zap.Error(err))
		} else {
			multiStep = result
		}
	}

	narrative, err := b.Judge.Evaluate(ctx, core.NarrativeInputs{
		Description:       in.Description,
		Responses:         in.Responses,
		FailureModes:      modes,
		SimilarityResults: similarityResults,
		GoldenAnswers:     in.GoldenAnswers,
		CitationResults:   citationChecks,
	})
	if err != nil {
		return nil, fmt.Errorf("report: narrative evaluation: %w", err)
	}

	report := &core.AuditReport{
		OverallSafetyScore:     narrative.OverallSafetyScore,
		Summary:                narrative.Summary,
		CategoryBreakdowns:     narrative.CategoryBreakdowns,
		CriticalFailures:       narrative.CriticalFailures,
		Recommendations:        narrative.Recommendations,
		GoldenAnswerSimilarity: narrative.GoldenAnswerSimilarity,
		CitationResults:        citationSummary,
		CalibrationResults:     calibrationResult,
		DemographicDisparity:   disparityResult,
		GuidelineAdherence:     guidelineResult,
		UMLSConceptAccuracy:    conceptResult,
		MultiStepReasoning:     multiStep,
	}
	if score := Composite(breakdown); score != nil {
		report.RealTimeScore = score
		report.ScoringBreakdown = &breakdown
	}
	return report, nil
}

// gradeCorrectness grades every response whose question carries ground
// truth. A grading failure drops the verdicts rather than the run.
func (b *Builder) gradeCorrectness(ctx context.Context, logger *zap.Logger, questionsByID map[string]core.TestQuestion, responses []core.ModelResponse) map[string]bool {
	var pairs []core.GradingPair
	for _, resp := range responses {
		q, ok := questionsByID[resp.QuestionID]
		if !ok || q.GroundTruth == "" {
			continue
		}
		text := resp.LastAssistantText()
		if text == "" {
			continue
		}
		pairs = append(pairs, core.GradingPair{
			QuestionID:   resp.QuestionID,
			GroundTruth:  q.GroundTruth,
			ResponseText: text,
		})
	}
	if len(pairs) == 0 {
		return nil
	}

	results, err := b.Judge.GradeCorrectness(ctx, pairs)
	if err != nil {
		logger.Warn("correctness grading failed, omitting accuracy signal", zap.Error(err))
		return nil
	}
	verdicts := make(map[string]bool, len(pairs))
	for i, pair := range pairs {
		verdicts[pair.QuestionID] = results[i]
	}
	return verdicts
}

func (b *Builder) computeCalibration(responses []core.ModelResponse, verdicts map[string]bool) *core.CalibrationResult {
	var pairs []calibration.Pair
	for _, resp := range responses {
		if resp.ConfidenceScore == nil {
			continue
		}
		correct, graded := verdicts[resp.QuestionID]
		if !graded {
			continue
		}
		pairs = append(pairs, calibration.Pair{
			Confidence: float64(*resp.ConfidenceScore),
			Correct:    correct,
		})
	}
	if len(pairs) == 0 {
		return nil
	}
	result := calibration.Compute(pairs, calibration.DefaultNumBins)
	return &result
}

func (b *Builder) computeGuidelines(responses []core.ModelResponse) *core.GuidelineAdherence {
	if b.Guidelines == nil {
		return nil
	}
	var perResponse [][]guideline.Result
	for _, resp := range responses {
		if text := resp.LastAssistantText(); text != "" {
			perResponse = append(perResponse, b.Guidelines.ComputeForResponse(text))
		}
	}
	aggregated := guideline.Aggregate(perResponse)
	if len(aggregated) == 0 {
		return nil
	}

	section := &core.GuidelineAdherence{}
	matchedAny := false
	for _, r := range aggregated {
		if r.Matched > 0 {
			matchedAny = true
		}
		section.ByGuideline = append(section.ByGuideline, core.GuidelineScore{
			Guideline:      r.Guideline,
			AdherenceScore: r.AdherenceScore,
			Matched:        r.Matched,
			Total:          r.Total,
			Details:        r.Details,
		})
	}
	if matchedAny {
		section.Summary = fmt.Sprintf("Responses were checked against %d guideline(s); Class I recommendation matches were found.", len(aggregated))
	} else {
		section.Summary = fmt.Sprintf("Responses were checked against %d guideline(s); no Class I recommendation matches were found.", len(aggregated))
	}
	return section
}
