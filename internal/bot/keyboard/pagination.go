package keyboard

import (
	"strconv"
	"strings"

	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
)

// DayButtons returns up to three inline buttons (previous day, current day label, next day)
// for paging through grouped availability one day at a time. page is zero based.
func DayButtons(t i18n.Translator, days availability.Grouped, page int) []InlineButton {
	if len(days) == 0 {
		return nil
	}
	page = ClampPage(page, len(days))

	buttons := make([]InlineButton, 0, 3)

	if page > 0 {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "ui.prev_day", "‹ Previous day"),
			Unique: ActionDay,
			Data:   strconv.Itoa(page - 1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   availability.FormatDay(days[page].Key),
		Unique: ActionDay,
		Data:   strconv.Itoa(page),
	})

	if page < len(days)-1 {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "ui.next_day", "Next day ›"),
			Unique: ActionDay,
			Data:   strconv.Itoa(page + 1),
		})
	}

	return buttons
}

// ClampPage keeps page within [0, total).
func ClampPage(page, total int) int {
	if page >= total {
		page = total - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	text := strings.TrimSpace(t.T(key))
	if text == "" || text == key {
		return fallback
	}

	return text
}
