package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/i18n"
)

// NewStartHandler opens a fresh conversation and greets the user. /start and /cancel both use it:
// reopening discards any half-finished booking.
func NewStartHandler(convs Conversations, p Presenter, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		profile := ProfileKey(c)
		if profile == "" {
			log.Warn("start handler invoked without chat")
			return nil
		}

		ctx := context.Background()
		snap := convs.Get(ctx, profile).Open(ctx)

		return p.Greet(c, snap)
	}
}

// NewHelpHandler lists what the bot understands.
func NewHelpHandler(t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		return c.Send(t.T("ui.bot_help"))
	}
}
