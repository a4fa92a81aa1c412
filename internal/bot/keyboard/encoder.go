package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CallbackDataSeparator  = ":"
	CallbackDataLimitBytes = 64
)

// Callback actions understood by the bot router.
const (
	ActionSchedule = "schedule"
	ActionSlot     = "slot"
	ActionTimes    = "times"
	ActionDay      = "day"
)

// EncodeCallback packs an action and its argument into Telegram callback data, for example
// "slot:2025-03-04T15:00:00Z" or "day:2".
func EncodeCallback(action, arg string) (string, error) {
	if action == "" {
		return "", errors.New("callback action is empty")
	}

	payload := action
	if arg != "" {
		payload += CallbackDataSeparator + arg
	}
	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback %s exceeds %d byte limit: got %d", action, CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

// DecodeCallback splits at the first separator, so ISO timestamps keep their colons.
func DecodeCallback(data string) (action, arg string, err error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", "", errors.New("callback data is empty")
	}

	action, arg, _ = strings.Cut(data, CallbackDataSeparator)
	return action, arg, nil
}
