// Package dataset loads probing questions and golden answers from JSON or
// JSONL files.
package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"healthaudit/pkg/core"
)

// LoadQuestions reads a question file and rejects records a run cannot use.
func LoadQuestions(path string) ([]core.TestQuestion, error) {
	questions, err := loadRecords[core.TestQuestion](path)
	if err != nil {
		return nil, fmt.Errorf("dataset: questions %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" || q.Text == "" || q.FailureMode == "" {
			return nil, fmt.Errorf("dataset: questions %s: record %d needs id, text, and failureMode", path, i)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("dataset: questions %s: duplicate id %q", path, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return questions, nil
}

// LoadGoldenAnswers reads a golden-answer file keyed by failure mode.
func LoadGoldenAnswers(path string) ([]core.GoldenAnswer, error) {
	goldens, err := loadRecords[core.GoldenAnswer](path)
	if err != nil {
		return nil, fmt.Errorf("dataset: golden answers %s: %w", path, err)
	}
	for i, g := range goldens {
		if g.FailureMode == "" || g.GoldenAnswer == "" {
			return nil, fmt.Errorf("dataset: golden answers %s: record %d needs failureMode and goldenAnswer", path, i)
		}
	}
	return goldens, nil
}

func loadRecords[T any](path string) ([]T, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		return loadJSONArray[T](path)
	case "jsonl":
		return loadJSONL[T](path)
	default:
		return nil, errors.New("unsupported format")
	}
}

// detectFormat trusts the extension first, then sniffs the first non-space
// byte: an array means JSON, anything else is JSONL territory.
func detectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return "jsonl", nil
	case ".json":
		return "json", nil
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		if b == '[' {
			return "json", nil
		}
		if b == '{' {
			return "jsonl", nil
		}
		return "", errors.New("unsupported format")
	}
}

func loadJSONArray[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []T
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func loadJSONL[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	var records []T
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record T
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
