package handlers

import (
	"context"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/bot/keyboard"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
)

// NewSlotHandler books the pressed time chip. Chips from an outdated keyboard are answered with a
// short notice and leave the conversation untouched.
func NewSlotHandler(convs Conversations, p Presenter, t i18n.Translator, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		_, iso, err := keyboard.DecodeCallback(cb.Data)
		if err != nil || iso == "" {
			return c.Respond()
		}

		profile := ProfileKey(c)
		ctx := context.Background()
		w, before := resume(ctx, convs, profile)

		snap, err := w.ChooseTime(ctx, iso)
		if err != nil {
			log.Info("stale slot pressed", slog.String("profile", profile), slog.String("slot", iso))
			return c.Respond(&telebot.CallbackResponse{Text: t.T("ui.unknown_slot")})
		}

		_ = c.Respond()
		return p.Present(c, before, snap)
	}
}

// NewTimesHandler re-fetches availability on "Show times again".
func NewTimesHandler(convs Conversations, p Presenter) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		w, before := resume(ctx, convs, ProfileKey(c))
		snap := w.ShowTimes(ctx)

		_ = c.Respond()
		return p.Present(c, before, snap)
	}
}

// NewDayHandler pages the slot keyboard to another day.
func NewDayHandler(convs Conversations, p Presenter) CallbackHandler {
	return func(c telebot.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		_ = c.Respond()

		_, data, err := keyboard.DecodeCallback(cb.Data)
		if err != nil {
			return nil
		}
		page, err := strconv.Atoi(data)
		if err != nil {
			return nil
		}

		ctx := context.Background()
		snap := convs.Get(ctx, ProfileKey(c)).Snapshot(ctx)
		if !snap.ShowingSlots {
			return nil
		}
		return p.Page(c, snap, page)
	}
}
