package handlers

import (
	"context"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/widget"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Conversations resolves the widget behind a chat.
type Conversations interface {
	Get(ctx context.Context, profile string) *widget.Widget
	Acquire(ctx context.Context, profile string) (*widget.Widget, bool)
}

// Presenter writes widget output back to the chat.
type Presenter interface {
	// Present sends the assistant messages added after the first before messages, with the
	// keyboard matching the snapshot on the last one.
	Present(c telebot.Context, before int, snap widget.Snapshot) error
	// Greet sends the opening greeting together with the persistent menu.
	Greet(c telebot.Context, snap widget.Snapshot) error
	// Page swaps the slot keyboard on the pressed message to another day.
	Page(c telebot.Context, snap widget.Snapshot, page int) error
}

// ProfileKey names the widget of the chat the update came from.
func ProfileKey(c telebot.Context) string {
	if c == nil {
		return ""
	}
	if chat := c.Chat(); chat != nil {
		return "tg:" + strconv.FormatInt(chat.ID, 10)
	}
	if sender := c.Sender(); sender != nil {
		return "tg:" + strconv.FormatInt(sender.ID, 10)
	}
	return ""
}

// resume returns the chat's widget and how many of its messages the user has already seen. A
// widget created just now, for example after the idle one was evicted, has shown nothing yet.
func resume(ctx context.Context, convs Conversations, profile string) (*widget.Widget, int) {
	w, created := convs.Acquire(ctx, profile)
	if created {
		return w, 0
	}
	return w, len(w.Snapshot(ctx).Messages)
}
