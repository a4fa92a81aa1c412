package keyboard_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/bot/keyboard"
)

type mockTranslator struct {
	translations map[string]string
}

func (m *mockTranslator) T(key string) string {
	if val, ok := m.translations[key]; ok {
		return val
	}
	return key
}

func (m *mockTranslator) F(key string, _ map[string]string) string { return m.T(key) }

func (m *mockTranslator) Lang() string { return "en" }

func TestEncodeDecodeCallback(t *testing.T) {
	testCases := []struct {
		name       string
		action     string
		arg        string
		want       string
		wantErr    bool
		wantAction string
		wantArg    string
	}{
		{name: "slot keeps iso colons", action: "slot", arg: "2025-03-04T15:00:00Z", want: "slot:2025-03-04T15:00:00Z", wantAction: "slot", wantArg: "2025-03-04T15:00:00Z"},
		{name: "day page", action: "day", arg: "2", want: "day:2", wantAction: "day", wantArg: "2"},
		{name: "action only", action: "schedule", want: "schedule", wantAction: "schedule"},
		{name: "empty action", arg: "x", wantErr: true},
		{name: "exceeds limit", action: strings.Repeat("x", keyboard.CallbackDataLimitBytes+1), wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tc.action, tc.arg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			action, arg, err := keyboard.DecodeCallback(got)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAction, action)
			assert.Equal(t, tc.wantArg, arg)
		})
	}

	_, _, err := keyboard.DecodeCallback("")
	assert.Error(t, err)
}

func TestInlineKeyboardBuilder_Overflow(t *testing.T) {
	_, err := keyboard.NewInlineKeyboard().AddRow(keyboard.InlineButton{
		Text:   "Too big",
		Unique: "slot",
		Data:   strings.Repeat("x", keyboard.CallbackDataLimitBytes),
	}).Build()

	assert.Error(t, err)
}

func TestDayButtons(t *testing.T) {
	translator := &mockTranslator{translations: map[string]string{
		"ui.prev_day": "‹ Prev",
		"ui.next_day": "Next ›",
	}}
	days := availability.Grouped{
		{Key: "2025-03-04", Slots: []string{"a"}},
		{Key: "2025-03-05", Slots: []string{"b"}},
		{Key: "2025-03-06", Slots: []string{"c"}},
	}

	testCases := []struct {
		name      string
		page      int
		wantTexts []string
		wantData  []string
	}{
		{name: "first day", page: 0, wantTexts: []string{"Tuesday, Mar 4", "Next ›"}, wantData: []string{"0", "1"}},
		{name: "middle day", page: 1, wantTexts: []string{"‹ Prev", "Wednesday, Mar 5", "Next ›"}, wantData: []string{"0", "1", "2"}},
		{name: "past the end clamps", page: 7, wantTexts: []string{"‹ Prev", "Thursday, Mar 6"}, wantData: []string{"1", "2"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			buttons := keyboard.DayButtons(translator, days, tc.page)
			require.Len(t, buttons, len(tc.wantTexts))

			for i := range tc.wantTexts {
				assert.Equal(t, tc.wantTexts[i], buttons[i].Text)
				assert.Equal(t, keyboard.ActionDay, buttons[i].Unique)
				assert.Equal(t, tc.wantData[i], buttons[i].Data)
			}
		})
	}
}

func TestBuilder_SlotKeyboard(t *testing.T) {
	b := keyboard.NewBuilder(time.UTC, nil)
	slots := availability.Grouped{
		{Key: "2025-03-04", Slots: []string{
			"2025-03-04T09:00:00Z", "2025-03-04T10:00:00Z", "2025-03-04T11:00:00Z", "2025-03-04T15:00:00Z",
		}},
		{Key: "2025-03-05", Slots: []string{"2025-03-05T10:00:00Z"}},
	}

	markup := b.SlotKeyboard(nil, slots, 0)
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 3)

	assert.Len(t, markup.InlineKeyboard[0], 3)
	assert.Equal(t, "9:00AM", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "slot:2025-03-04T09:00:00Z", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "3:00PM", markup.InlineKeyboard[1][0].Text)
	assert.Equal(t, "day:1", markup.InlineKeyboard[2][1].Data)

	assert.Nil(t, b.SlotKeyboard(nil, nil, 0))
}

func TestMainMenu(t *testing.T) {
	markup := keyboard.MainMenu(nil)

	assert.True(t, markup.ResizeKeyboard)
	require.Len(t, markup.ReplyKeyboard, 1)
	assert.Equal(t, "📅 Schedule a meeting", markup.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "schedule", keyboard.NewBuilder(time.UTC, nil).ScheduleButton(nil).InlineKeyboard[0][0].Data)
}

