// Package snapshot persists complete audit runs so reports can be rebuilt
// or compared without re-collecting responses.
package snapshot

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"healthaudit/pkg/collect"
	"healthaudit/pkg/core"
)

// Version is bumped when the snapshot shape changes incompatibly.
const Version = 1

// Snapshot is one audit run at rest: inputs, raw conversations, and the
// report built from them.
type Snapshot struct {
	Version       int                       `json:"version"`
	RunID         string                    `json:"runId"`
	CreatedAt     time.Time                 `json:"createdAt"`
	TargetName    string                    `json:"targetName"`
	Description   string                    `json:"description,omitempty"`
	Questions     []core.TestQuestion       `json:"questions"`
	Responses     []core.ModelResponse      `json:"responses"`
	Failures      []collect.QuestionFailure `json:"failures,omitempty"`
	GoldenAnswers []core.GoldenAnswer       `json:"goldenAnswers,omitempty"`
	Report        *core.AuditReport         `json:"report,omitempty"`
}

// New stamps a snapshot with its version, run ID, and creation time.
func New(targetName string) *Snapshot {
	return &Snapshot{
		Version:    Version,
		RunID:      newRunID(),
		CreatedAt:  time.Now().UTC(),
		TargetName: targetName,
	}
}

// Write stores the snapshot under dir with a timestamped filename and
// returns the path.
func Write(dir string, snap *Snapshot) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("snapshot: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s_%s.json",
		snap.CreatedAt.Format("2006-01-02T15-04-05"),
		sanitizeName(snap.TargetName),
		snap.RunID)
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return "", err
	}
	return path, nil
}

// Read loads a snapshot, rejecting versions this build does not understand.
func Read(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap Snapshot
	if err := json.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", path, err)
	}
	if snap.Version > Version {
		return nil, fmt.Errorf("snapshot: %s has version %d, this build reads up to %d", path, snap.Version, Version)
	}
	return &snap, nil
}

func sanitizeName(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "target"
	}
	return string(out)
}

func newRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
