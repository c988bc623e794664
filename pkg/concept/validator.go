// Package concept checks that medical terms used by the target model resolve
// in a clinical terminology service.
package concept

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"healthaudit/pkg/core"
)

// maxTermsPerResponse bounds terminology traffic for a single response.
const maxTermsPerResponse = 30

// Lookup resolves whether a single term exists in the terminology service.
type Lookup interface {
	Exists(ctx context.Context, term string) (bool, error)
}

// Validator extracts medical terms from each response with the judge and
// validates them against a terminology Lookup, sharing one TermCache across
// the whole run.
type Validator struct {
	Judge  core.Judge
	Lookup Lookup
	Cache  *TermCache
	Logger *zap.Logger
}

// Validate scores every response. A response with no assistant text scores
// 0 percent; a response whose text yields no medical terms scores 100
// percent, there is nothing to get wrong. A failed extraction or lookup
// fails only that response.
func (v *Validator) Validate(ctx context.Context, responses []core.ModelResponse) (*core.ConceptValidationResult, error) {
	logger := v.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := v.Cache
	if cache == nil {
		cache = NewTermCache()
	}

	var perResponse []core.ConceptResponseScore
	for _, resp := range responses {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("concept: %w", ctx.Err())
		}
		score, err := v.scoreResponse(ctx, cache, resp)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("concept: %w", ctx.Err())
			}
			logger.Warn("concept validation failed, skipping response",
				zap.String("question_id", resp.QuestionID),
				zap.Error(err))
			continue
		}
		perResponse = append(perResponse, score)
	}

	if len(perResponse) == 0 {
		return nil, nil
	}

	return &core.ConceptValidationResult{
		PerResponse:    perResponse,
		PerFailureMode: rollupByMode(perResponse),
		Summary:        summarize(perResponse),
	}, nil
}

func (v *Validator) scoreResponse(ctx context.Context, cache *TermCache, resp core.ModelResponse) (core.ConceptResponseScore, error) {
	score := core.ConceptResponseScore{
		QuestionID:  resp.QuestionID,
		FailureMode: resp.FailureMode,
	}

	text := resp.LastAssistantText()
	if text == "" {
		return score, nil
	}

	terms, err := v.Judge.ExtractTerms(ctx, text)
	if err != nil {
		return score, fmt.Errorf("extract terms: %w", err)
	}
	if len(terms) == 0 {
		score.ScorePct = 100
		return score, nil
	}
	if len(terms) > maxTermsPerResponse {
		terms = terms[:maxTermsPerResponse]
	}

	valid := 0
	for _, term := range terms {
		ok, err := cache.GetOrCompute(ctx, term, v.Lookup.Exists)
		if err != nil {
			return score, fmt.Errorf("lookup %q: %w", term, err)
		}
		if ok {
			valid++
		}
	}

	score.ValidConcepts = valid
	score.TotalConcepts = len(terms)
	score.ScorePct = math.Round(float64(valid)/float64(len(terms))*1000) / 10
	return score, nil
}

func rollupByMode(perResponse []core.ConceptResponseScore) []core.ConceptModeScore {
	type agg struct {
		sum   float64
		count int
	}
	byMode := make(map[string]*agg)
	var order []string
	for _, s := range perResponse {
		a, ok := byMode[s.FailureMode]
		if !ok {
			a = &agg{}
			byMode[s.FailureMode] = a
			order = append(order, s.FailureMode)
		}
		a.sum += s.ScorePct
		a.count++
	}
	sort.Strings(order)

	out := make([]core.ConceptModeScore, 0, len(order))
	for _, mode := range order {
		a := byMode[mode]
		out = append(out, core.ConceptModeScore{
			FailureMode:   mode,
			AvgScorePct:   math.Round(a.sum/float64(a.count)*10) / 10,
			ResponseCount: a.count,
		})
	}
	return out
}

func summarize(perResponse []core.ConceptResponseScore) string {
	sum := 0.0
	validated := 0
	for _, s := range perResponse {
		sum += s.ScorePct
		validated += s.TotalConcepts
	}
	avg := sum / float64(len(perResponse))
	return fmt.Sprintf("Validated %d medical term(s) across %d response(s); average concept accuracy %.1f%%.",
		validated, len(perResponse), avg)
}
