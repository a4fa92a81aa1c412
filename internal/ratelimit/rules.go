package ratelimit

import (
	"context"
	"log/slog"
	"slices"
	"time"

	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/pkg/config"
)

// Guard applies the configured per-user rule to chat input.
type Guard struct {
	limiter   Limiter
	enabled   bool
	limit     int
	window    time.Duration
	whitelist []string
	now       func() time.Time
	log       *slog.Logger
}

// NewGuard binds a limiter to the rate limit config. A disabled config or a zero rule allows
// everything.
func NewGuard(limiter Limiter, cfg config.RateLimitConfig, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}

	return &Guard{
		limiter:   limiter,
		enabled:   cfg.Enabled && limiter != nil && cfg.PerUser.Limit > 0 && cfg.PerUser.Window > 0,
		limit:     cfg.PerUser.Limit,
		window:    cfg.PerUser.Window,
		whitelist: slices.Clone(cfg.Whitelist),
		now:       time.Now,
		log:       log,
	}
}

// IsWhitelisted reports whether user bypasses rate limits.
func (g *Guard) IsWhitelisted(user string) bool {
	return slices.Contains(g.whitelist, user)
}

// Allow counts one message from user. It returns a rate limit AppError once the window is full.
// Limiter failures other than an exceeded limit let the message through.
func (g *Guard) Allow(ctx context.Context, user string) error {
	if g == nil || !g.enabled || g.IsWhitelisted(user) {
		return nil
	}

	result, err := g.limiter.Check(ctx, "user:"+user, g.limit, g.window)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrLimitExceeded):
		g.log.Info("rate limit exceeded", slog.String("user", user))
		return errors.NewRateLimitError(result.RetryAfter(g.now()))
	default:
		g.log.Warn("rate limit check failed", slog.String("user", user), slog.Any("error", err))
		return nil
	}
}
