// Package guideline scores free-text responses against a fixed corpus of
// clinical guideline recommendations using coarse keyword matching.
package guideline

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// ClassI is the highest-priority recommendation tier; only these are scored.
const ClassI = "I"

// Recommendation is one tagged guideline statement.
type Recommendation struct {
	Class  string `json:"class"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Guideline is one clinical guideline with its recommendation set.
type Guideline struct {
	ID              string           `json:"id"`
	Label           string           `json:"label"`
	Source          string           `json:"source"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Corpus is the read-only guideline reference data for one run.
type Corpus struct {
	Guidelines []Guideline `json:"guidelines"`
}

//go:embed clinical_guidelines.json
var embeddedCorpus []byte

// LoadEmbedded returns the built-in corpus (heart failure, diabetes,
// hypertension, atrial fibrillation, pneumonia).
func LoadEmbedded() (*Corpus, error) {
	var corpus Corpus
	if err := json.Unmarshal(embeddedCorpus, &corpus); err != nil {
		return nil, fmt.Errorf("guideline: embedded corpus: %w", err)
	}
	return &corpus, nil
}

// LoadFile reads a corpus from a JSON file with the same shape as the
// embedded data.
func LoadFile(path string) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("guideline: %w", err)
	}
	var corpus Corpus
	if err := json.Unmarshal(raw, &corpus); err != nil {
		return nil, fmt.Errorf("guideline: parse %s: %w", path, err)
	}
	return &corpus, nil
}
