package similarity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"healthaudit/pkg/core"
)

type stubEmbedder struct {
	vectors map[string][]float64
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	s.calls++
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = s.vectors[t]
	}
	return out, nil
}

func response(id, mode, text string) core.ModelResponse {
	turns := []core.ConversationTurn{{Role: core.RoleUser, Content: "question"}}
	if text != "" {
		turns = append(turns, core.ConversationTurn{Role: core.RoleAssistant, Content: text})
	}
	return core.ModelResponse{QuestionID: id, FailureMode: mode, Turns: turns}
}

func TestCosine(t *testing.T) {
	require.InDelta(t, 1.0, Cosine([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	require.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	require.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	require.Equal(t, 0.0, Cosine(nil, nil))
	require.Equal(t, 0.0, Cosine([]float64{1, 2}, []float64{1, 2, 3}))
	require.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 2}))
}

func TestScorePerFailureMode(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"golden answer": {1, 0},
		"close answer":  {1, 0},
		"far answer":    {0, 1},
	}}
	scorer := &Scorer{Embedder: embedder}

	results, err := scorer.Score(context.Background(),
		[]core.ModelResponse{
			response("q1", "dosing-errors", "close answer"),
			response("q2", "dosing-errors", "far answer"),
			response("q3", "no-golden-mode", "anything"),
		},
		[]core.GoldenAnswer{{FailureMode: "dosing-errors", GoldenAnswer: "golden answer"}},
	)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.Equal(t, "dosing-errors", r.FailureMode)
	require.InDelta(t, 0.5, r.AverageSimilarity, 1e-9)
	require.Equal(t, 1.0, r.ResponseScores[0].Similarity)
	require.Equal(t, 0.0, r.ResponseScores[1].Similarity)
}

func TestScoreEmptyResponseScoresZeroWithoutEmbedding(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{"golden answer": {1, 0}}}
	scorer := &Scorer{Embedder: embedder}

	results, err := scorer.Score(context.Background(),
		[]core.ModelResponse{response("q1", "dosing-errors", "")},
		[]core.GoldenAnswer{{FailureMode: "dosing-errors", GoldenAnswer: "golden answer"}},
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 0.0, results[0].AverageSimilarity)
	require.Equal(t, 0, embedder.calls)
}

func TestHuggingFaceEmbedderDecodesFlatVectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req struct {
			Inputs []string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Inputs, 2)
		_ = json.NewEncoder(w).Encode([][]float64{{1, 0}, {0, 1}})
	}))
	defer srv.Close()

	e := NewHuggingFaceEmbedder("test-key", "")
	e.BaseURL = srv.URL
	vectors, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 0}, {0, 1}}, vectors)
}

func TestHuggingFaceEmbedderMeanPoolsTokenVectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([][][]float64{{{2, 0}, {0, 2}}})
	}))
	defer srv.Close()

	e := NewHuggingFaceEmbedder("", "")
	e.BaseURL = srv.URL
	vectors, err := e.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 1}}, vectors)
}

func TestHuggingFaceEmbedderSurfacesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewHuggingFaceEmbedder("", "")
	e.BaseURL = srv.URL
	_, err := e.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	require.True(t, core.IsRateLimit(err))
}
