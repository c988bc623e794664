package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"healthaudit/pkg/core"
)

// Embedder turns texts into fixed-length vectors, one per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

const (
	defaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
	defaultHFBaseURL      = "https://api-inference.huggingface.co"
)

// HuggingFaceEmbedder calls the Hugging Face feature-extraction pipeline.
type HuggingFaceEmbedder struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewHuggingFaceEmbedder(apiKey, model string) *HuggingFaceEmbedder {
	if model == "" {
		model = defaultEmbeddingModel
	}
	return &HuggingFaceEmbedder{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultHFBaseURL,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Embed posts all texts in one request. The pipeline returns either one
// vector per input or token-level vectors per input depending on the model;
// token-level output is mean-pooled.
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	payload, err := json.Marshal(map[string]any{
		"inputs":  texts,
		"options": map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("similarity: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", e.BaseURL, e.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("similarity: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("similarity: embed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("similarity: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.StatusError{Code: resp.StatusCode, Message: string(body)}
	}

	vectors, err := decodeVectors(body)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("similarity: got %d vectors for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

func decodeVectors(body []byte) ([][]float64, error) {
	var flat [][]float64
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat, nil
	}
	var tokenLevel [][][]float64
	if err := json.Unmarshal(body, &tokenLevel); err != nil {
		return nil, fmt.Errorf("similarity: unexpected embedding shape: %w", err)
	}
	pooled := make([][]float64, len(tokenLevel))
	for i, tokens := range tokenLevel {
		pooled[i] = meanPool(tokens)
	}
	return pooled, nil
}

func meanPool(tokens [][]float64) []float64 {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]float64, len(tokens[0]))
	for _, vec := range tokens {
		for i, v := range vec {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float64(len(tokens))
	}
	return out
}
