package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/bot/handlers"
	"github.com/Proton-105/aadee-assistant/internal/bot/keyboard"
	"github.com/Proton-105/aadee-assistant/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordBotUpdate(ActionName(c), status, time.Since(start))

		return err
	}
}

// ActionName is a low-cardinality label for an update: the callback action, the command, or
// "text".
func ActionName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		if action, _, err := keyboard.DecodeCallback(cb.Data); err == nil {
			return "callback:" + action
		}
		return "callback"
	}

	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") {
		if fields := strings.Fields(text); len(fields) > 0 {
			cmd, _, _ := strings.Cut(fields[0], "@")
			return strings.ToLower(cmd)
		}
	}

	return "text"
}
