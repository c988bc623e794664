package model

import (
	"context"

	"healthaudit/pkg/cache"
	"healthaudit/pkg/core"
)

// CachedTarget wraps a target with the disk cache. Cache write failures are
// ignored; a reply that could not be cached is still a reply.
type CachedTarget struct {
	Target core.Target
	Cache  *cache.Cache
}

func (c CachedTarget) Name() string {
	if c.Target == nil {
		return ""
	}
	return c.Target.Name()
}

func (c CachedTarget) Respond(ctx context.Context, history []core.ConversationTurn, message string) (string, error) {
	if c.Target == nil {
		return "", nil
	}
	if c.Cache != nil {
		if reply, ok := c.Cache.Get(c.Name(), history, message); ok {
			return reply, nil
		}
	}
	reply, err := c.Target.Respond(ctx, history, message)
	if err != nil {
		return "", err
	}
	if c.Cache != nil {
		_ = c.Cache.Set(c.Name(), history, message, reply)
	}
	return reply, nil
}
