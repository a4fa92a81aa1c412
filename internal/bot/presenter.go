package bot

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/bot/keyboard"
	"github.com/Proton-105/aadee-assistant/internal/flow"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
	"github.com/Proton-105/aadee-assistant/internal/transcript"
	"github.com/Proton-105/aadee-assistant/internal/widget"
)

// Presenter turns widget snapshots into Telegram messages. Telegram already shows what the user
// typed, so only assistant turns are sent.
type Presenter struct {
	kb  *keyboard.Builder
	tr  i18n.Translator
	log *slog.Logger
}

// NewPresenter builds a Presenter.
func NewPresenter(kb *keyboard.Builder, tr i18n.Translator, log *slog.Logger) *Presenter {
	if log == nil {
		log = slog.Default()
	}
	return &Presenter{kb: kb, tr: tr, log: log}
}

// Present sends the assistant replies added after the first before messages.
func (p *Presenter) Present(c telebot.Context, before int, snap widget.Snapshot) error {
	replies := AssistantReplies(snap.Messages, before)
	if len(replies) == 0 {
		return nil
	}

	markup := p.Markup(snap)
	for i, text := range replies {
		opts := []interface{}{}
		if i == len(replies)-1 && markup != nil {
			opts = append(opts, markup)
		}
		if err := c.Send(text, opts...); err != nil {
			return err
		}
	}
	return nil
}

// Greet sends the greeting with the persistent menu keyboard.
func (p *Presenter) Greet(c telebot.Context, snap widget.Snapshot) error {
	replies := AssistantReplies(snap.Messages, 0)
	if len(replies) == 0 {
		return nil
	}
	return c.Send(replies[len(replies)-1], keyboard.MainMenu(p.tr))
}

// Page replaces the slot keyboard of the pressed message with another day.
func (p *Presenter) Page(c telebot.Context, snap widget.Snapshot, page int) error {
	markup := p.kb.SlotKeyboard(p.tr, snap.Slots, page)
	if markup == nil {
		return nil
	}
	return c.Edit(markup)
}

// Markup picks the inline keyboard for a snapshot: time chips while they are shown, the
// "Show times again" button after a failed booking.
func (p *Presenter) Markup(snap widget.Snapshot) *telebot.ReplyMarkup {
	switch {
	case snap.ShowingSlots:
		return p.kb.SlotKeyboard(p.tr, snap.Slots, 0)
	case snap.CanShowTimes:
		return p.kb.ShowTimesButton(p.tr)
	case snap.State == flow.StateIdle:
		return p.kb.ScheduleButton(p.tr)
	default:
		return nil
	}
}

// AssistantReplies returns the assistant message texts after index before. A before past the
// end means the conversation was reset and everything is new.
func AssistantReplies(messages []transcript.Message, before int) []string {
	if before < 0 || before > len(messages) {
		before = 0
	}

	var out []string
	for _, m := range messages[before:] {
		if m.Role == transcript.RoleAssistant {
			out = append(out, m.Content)
		}
	}
	return out
}
