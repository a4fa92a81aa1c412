package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/i18n"
)

// MainMenu builds the persistent reply keyboard carrying the schedule action.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	markup.Reply(markup.Row(markup.Text(ScheduleLabel(t))))
	return markup
}

// ScheduleLabel is the text of the schedule button, also used to recognise presses of the reply
// keyboard.
func ScheduleLabel(t i18n.Translator) string {
	return translated(t, "ui.schedule_button", "📅 Schedule a meeting")
}
