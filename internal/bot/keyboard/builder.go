package keyboard

import (
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
)

const chipsPerRow = 3

// Builder creates inline keyboards for the scheduling flow.
type Builder struct {
	loc *time.Location
	log *slog.Logger
}

// NewBuilder returns a new Builder rendering chip times in loc.
func NewBuilder(loc *time.Location, log *slog.Logger) *Builder {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Builder{loc: loc, log: log}
}

// ScheduleButton builds the single inline "Schedule a meeting" button.
func (b *Builder) ScheduleButton(t i18n.Translator) *telebot.ReplyMarkup {
	return b.build(NewInlineKeyboard().AddRow(InlineButton{Text: ScheduleLabel(t), Unique: ActionSchedule}))
}

// ShowTimesButton builds the "Show times again" button offered while choosing a time.
func (b *Builder) ShowTimesButton(t i18n.Translator) *telebot.ReplyMarkup {
	return b.build(NewInlineKeyboard().AddRow(InlineButton{
		Text:   translated(t, "ui.show_times", "🕑 Show times again"),
		Unique: ActionTimes,
	}))
}

// SlotKeyboard lays out the chips of one day, chipsPerRow per row, followed by day navigation.
func (b *Builder) SlotKeyboard(t i18n.Translator, slots availability.Grouped, page int) *telebot.ReplyMarkup {
	if slots.Empty() {
		return nil
	}
	page = ClampPage(page, len(slots))

	kb := NewInlineKeyboard()
	row := make([]InlineButton, 0, chipsPerRow)
	for _, iso := range slots[page].Slots {
		row = append(row, InlineButton{
			Text:   availability.FormatTime(iso, b.loc),
			Unique: ActionSlot,
			Data:   iso,
		})
		if len(row) == chipsPerRow {
			kb.AddRow(row...)
			row = row[:0]
		}
	}
	kb.AddRow(row...)
	kb.AddRow(DayButtons(t, slots, page)...)

	return b.build(kb)
}

func (b *Builder) build(kb *InlineKeyboardBuilder) *telebot.ReplyMarkup {
	markup, err := kb.Build()
	if err != nil {
		b.log.Error("failed to build inline keyboard", slog.Any("error", err))
		return nil
	}
	return markup
}
