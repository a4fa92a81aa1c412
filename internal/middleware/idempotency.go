// Package middleware holds cross-cutting wrappers for the Telegram router and the HTTP servers.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/bot/handlers"
	"github.com/Proton-105/aadee-assistant/internal/idempotency"
)

const updateReplayTTL = 24 * time.Hour

// Idempotency makes sure a Telegram update is handled at most once even when the webhook
// redelivers it.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
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
			key := UpdateKey(c)
			if key == "" {
				return next(c)
			}

			_, err := manager.Execute(context.Background(), key, updateReplayTTL, func(context.Context) (any, error) {
				return true, next(c)
			})
			switch {
			case err == nil:
				return nil
			case errors.Is(err, idempotency.ErrRequestInProgress):
				log.Debug("duplicate update dropped", slog.String("key", key))
				return nil
			default:
				return err
			}
		}
	}
}

// UpdateKey identifies a Telegram update: the callback id for button presses, otherwise chat and
// message id.
func UpdateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if cb := c.Callback(); cb != nil && cb.ID != "" {
		return idempotency.GenerateKey("tg", "callback", cb.ID)
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 {
		chatID := int64(0)
		if msg.Chat != nil {
			chatID = msg.Chat.ID
		}
		return idempotency.GenerateKey("tg", "message", strconv.FormatInt(chatID, 10), strconv.Itoa(msg.ID))
	}

	return ""
}
