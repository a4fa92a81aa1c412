package middleware

import (
	"context"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/bot/handlers"
	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
	"github.com/Proton-105/aadee-assistant/internal/ratelimit"
)

// RateLimit enforces the per-user rule on Telegram updates. Throttled users get a localized
// notice and the update is dropped.
func RateLimit(guard *ratelimit.Guard, t i18n.Translator, log *slog.Logger) handlers.Middleware {
	if guard == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}

			err := guard.Allow(context.Background(), "tg:"+strconv.FormatInt(sender.ID, 10))
			if err == nil {
				return next(c)
			}

			return c.Send(RateLimitMessage(t, err))
		}
	}
}

// RateLimitMessage renders a rate limit error for the user.
func RateLimitMessage(t i18n.Translator, err error) string {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) || appErr == nil {
		return err.Error()
	}
	if t == nil {
		return appErr.UserMessage
	}
	return t.F("ui.rate_limited", map[string]string{"seconds": strconv.Itoa(appErr.RetryAfter)})
}
