package concept

import (
	"context"
	"strings"
	"sync"
)

// TermCache memoizes terminology lookups for the lifetime of one run. Keys
// are normalized so "Metformin " and "metformin" share an entry.
type TermCache struct {
	mu      sync.Mutex
	entries map[string]bool
}

func NewTermCache() *TermCache {
	return &TermCache{entries: make(map[string]bool)}
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Get returns the cached validity for term, if present.
func (c *TermCache) Get(term string) (valid bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	valid, ok = c.entries[normalizeTerm(term)]
	return valid, ok
}

// GetOrCompute returns the cached validity for term, calling compute and
// storing the result on a miss. Failed lookups are not cached so a transient
// error does not poison later responses that mention the same term.
func (c *TermCache) GetOrCompute(ctx context.Context, term string, compute func(ctx context.Context, term string) (bool, error)) (bool, error) {
	key := normalizeTerm(term)

	c.mu.Lock()
	if valid, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return valid, nil
	}
	c.mu.Unlock()

	valid, err := compute(ctx, term)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.entries[key] = valid
	c.mu.Unlock()
	return valid, nil
}

// Len reports the number of cached terms.
func (c *TermCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
