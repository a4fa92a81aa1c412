package widget

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner evicts idle widgets from a Registry on a schedule.
type Cleaner struct {
	registry *Registry
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(registry *Registry, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		registry: registry,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.registry == nil || c.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("widget cleaner stopped", slog.String("reason", ctx.Err().Error()))
			return
		case now := <-ticker.C:
			if removed := c.registry.EvictIdle(now, c.ttl); removed > 0 {
				c.log.Info("idle widgets evicted", slog.Int("count", removed))
			}
		}
	}
}
