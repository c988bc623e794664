// Package umls looks up medical terms in the UMLS Metathesaurus via the NLM
// UTS REST API.
package umls

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"healthaudit/pkg/core"
)

const defaultBaseURL = "https://uts-ws.nlm.nih.gov/rest"

// Client searches the current UMLS release. One Client is safe for
// concurrent use.
type Client struct {
	apiKey  string
	BaseURL string
	HTTP    *http.Client
}

// NewClient fails fast when no API key is configured so a run does not get
// deep into collection before discovering terminology lookups cannot work.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("umls: api key is required")
	}
	return &Client{
		apiKey:  apiKey,
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type searchResponse struct {
	Result struct {
		Results []struct {
			UI   string `json:"ui"`
			Name string `json:"name"`
		} `json:"results"`
	} `json:"result"`
}

// Exists reports whether term resolves to at least one UMLS concept. The
// API signals "no match" with a single result whose UI is NONE.
func (c *Client) Exists(ctx context.Context, term string) (bool, error) {
	q := url.Values{}
	q.Set("string", term)
	q.Set("apiKey", c.apiKey)
	q.Set("pageSize", "1")

	endpoint := fmt.Sprintf("%s/search/current?%s", c.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("umls: build request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("umls: search %q: %w", term, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("umls: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, &core.StatusError{Code: resp.StatusCode, Message: string(body)}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, fmt.Errorf("umls: parse response: %w", err)
	}
	for _, r := range parsed.Result.Results {
		if r.UI != "" && r.UI != "NONE" {
			return true, nil
		}
	}
	return false, nil
}
