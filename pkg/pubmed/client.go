// Package pubmed resolves PubMed identifiers through the NCBI E-utilities
// ESummary endpoint.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"healthaudit/pkg/core"
)

const (
	defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// ESummary accepts at most a few hundred IDs per GET request.
	chunkSize = 200
)

// Client validates PMIDs in bulk. Safe for concurrent use.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ValidatePMIDs reports, for each distinct PMID, whether PubMed knows it.
// IDs are checked in chunks; an ID absent from the ESummary result, or
// present with an error marker, is invalid.
func (c *Client) ValidatePMIDs(ctx context.Context, pmids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(pmids))
	var distinct []string
	for _, id := range pmids {
		if _, seen := out[id]; seen {
			continue
		}
		out[id] = false
		distinct = append(distinct, id)
	}

	for start := 0; start < len(distinct); start += chunkSize {
		end := start + chunkSize
		if end > len(distinct) {
			end = len(distinct)
		}
		if err := c.validateChunk(ctx, distinct[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

func (c *Client) validateChunk(ctx context.Context, ids []string, out map[string]bool) error {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "json")
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}

	endpoint := fmt.Sprintf("%s/esummary.fcgi?%s", c.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("pubmed: build request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("pubmed: esummary: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pubmed: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &core.StatusError{Code: resp.StatusCode, Message: string(body)}
	}

	var parsed esummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("pubmed: parse response: %w", err)
	}

	for _, id := range ids {
		raw, ok := parsed.Result[id]
		if !ok {
			continue
		}
		var entry struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		out[id] = entry.Error == ""
	}
	return nil
}
