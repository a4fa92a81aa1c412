package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"
)

// NewScheduleHandler starts the booking flow from the /schedule command, the inline button or
// the menu button.
func NewScheduleHandler(convs Conversations, p Presenter) Handler {
	return func(c telebot.Context) error {
		profile := ProfileKey(c)
		if profile == "" {
			return nil
		}

		ctx := context.Background()
		w, before := resume(ctx, convs, profile)
		snap := w.ScheduleMeeting(ctx)

		if c.Callback() != nil {
			_ = c.Respond()
		}
		return p.Present(c, before, snap)
	}
}
