// Package similarity measures how close model responses are to golden
// answers using embedding cosine similarity.
package similarity

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"healthaudit/pkg/core"
)

// Cosine returns the cosine similarity of two equal-length vectors, or 0
// when either vector is empty or zero.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Scorer compares responses against per-failure-mode golden answers.
type Scorer struct {
	Embedder Embedder
	Logger   *zap.Logger
}

// Score embeds each mode's golden answer together with its responses and
// records cosine similarity per response, averaged per failure mode. Modes
// without a golden answer are skipped; responses with no assistant text
// score zero without being embedded.
func (s *Scorer) Score(ctx context.Context, responses []core.ModelResponse, goldens []core.GoldenAnswer) ([]core.SimilarityResult, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	goldenByMode := make(map[string]core.GoldenAnswer, len(goldens))
	for _, g := range goldens {
		goldenByMode[g.FailureMode] = g
	}

	byMode := make(map[string][]core.ModelResponse)
	var order []string
	for _, resp := range responses {
		if _, ok := goldenByMode[resp.FailureMode]; !ok {
			continue
		}
		if _, seen := byMode[resp.FailureMode]; !seen {
			order = append(order, resp.FailureMode)
		}
		byMode[resp.FailureMode] = append(byMode[resp.FailureMode], resp)
	}
	sort.Strings(order)

	var results []core.SimilarityResult
	for _, mode := range order {
		result, err := s.scoreMode(ctx, goldenByMode[mode], byMode[mode])
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("similarity: %w", ctx.Err())
			}
			logger.Warn("similarity scoring failed, skipping failure mode",
				zap.String("failure_mode", mode),
				zap.Error(err))
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Scorer) scoreMode(ctx context.Context, golden core.GoldenAnswer, responses []core.ModelResponse) (core.SimilarityResult, error) {
	result := core.SimilarityResult{FailureMode: golden.FailureMode}

	var texts []string
	var embedded []int
	for i, resp := range responses {
		if text := resp.LastAssistantText(); text != "" {
			texts = append(texts, text)
			embedded = append(embedded, i)
		}
	}

	scores := make([]float64, len(responses))
	if len(texts) > 0 {
		vectors, err := s.Embedder.Embed(ctx, append([]string{golden.GoldenAnswer}, texts...))
		if err != nil {
			return result, err
		}
		goldenVec := vectors[0]
		for j, i := range embedded {
			scores[i] = math.Round(Cosine(goldenVec, vectors[j+1])*1000) / 1000
		}
	}

	sum := 0.0
	for i, resp := range responses {
		result.ResponseScores = append(result.ResponseScores, core.ResponseScore{
			QuestionID: resp.QuestionID,
			Similarity: scores[i],
		})
		sum += scores[i]
	}
	result.AverageSimilarity = math.Round(sum/float64(len(responses))*1000) / 1000
	return result, nil
}
