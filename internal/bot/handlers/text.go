package handlers

import (
	"context"
	"strings"

	telebot "gopkg.in/telebot.v3"
)

// NewTextHandler feeds a plain message into the conversation. A message equal to scheduleLabel is
// a press of the menu button and starts the booking flow instead.
func NewTextHandler(convs Conversations, p Presenter, scheduleLabel string) Handler {
	schedule := NewScheduleHandler(convs, p)

	return func(c telebot.Context) error {
		text := strings.TrimSpace(c.Text())
		if text == "" {
			return nil
		}
		if scheduleLabel != "" && text == scheduleLabel {
			return schedule(c)
		}

		profile := ProfileKey(c)
		if profile == "" {
			return nil
		}

		ctx := context.Background()
		w, before := resume(ctx, convs, profile)
		snap := w.Send(ctx, text)

		return p.Present(c, before, snap)
	}
}
