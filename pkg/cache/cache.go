// Package cache persists target replies on disk so repeated audit runs do
// not re-spend API budget on identical exchanges.
package cache

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"healthaudit/pkg/core"
)

const defaultTTL = 7 * 24 * time.Hour

type Cache struct {
	Dir string
	TTL time.Duration
}

func New(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".healthaudit", "cache")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Cache{Dir: dir, TTL: ttl}, nil
}

type cacheEntry struct {
	Reply      string    `json:"reply"`
	CachedAt   time.Time `json:"cached_at"`
	TargetName string    `json:"target_name"`
}

// key hashes the full conversation so a cached reply is reused only for the
// exact same target, history, and message.
func key(targetName string, history []core.ConversationTurn, message string) string {
	parts := []string{targetName}
	for _, turn := range history {
		parts = append(parts, string(turn.Role), turn.Content)
	}
	parts = append(parts, message)
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}

func (c *Cache) path(k string) string {
	return filepath.Join(c.Dir, k+".json.gz")
}

func (c *Cache) Get(targetName string, history []core.ConversationTurn, message string) (string, bool) {
	p := c.path(key(targetName, history, message))
	f, err := os.Open(p)
	if err != nil {
		return "", false
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", false
	}
	defer gz.Close()
	var e cacheEntry
	if err := json.NewDecoder(gz).Decode(&e); err != nil {
		return "", false
	}
	if c.TTL > 0 && time.Since(e.CachedAt) > c.TTL {
		_ = os.Remove(p)
		return "", false
	}
	return e.Reply, true
}

func (c *Cache) Set(targetName string, history []core.ConversationTurn, message, reply string) error {
	p := c.path(key(targetName, history, message))
	e := cacheEntry{Reply: reply, CachedAt: time.Now(), TargetName: targetName}
	f, err := os.CreateTemp(c.Dir, "tmp-*.json.gz")
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(e); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := gz.Close(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), p); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}
