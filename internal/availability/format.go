package availability

import "time"

const (
	slotLayout = "Mon, Jan 2, 3:04 PM"
	dayLayout  = "Monday, Jan 2"
)

// FormatSlot renders iso as e.g. "Tue, Mar 4, 3:00 PM" in loc. Unparseable input is returned as is.
func FormatSlot(iso string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, ok := ParseSlot(iso, loc)
	if !ok {
		return iso
	}
	return t.In(loc).Format(slotLayout)
}

// FormatTime renders iso as e.g. "3:00PM" in loc, for compact chips.
func FormatTime(iso string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, ok := ParseSlot(iso, loc)
	if !ok {
		return iso
	}
	return t.In(loc).Format(time.Kitchen)
}

// FormatDay renders a day key as e.g. "Tuesday, Mar 4".
func FormatDay(key string) string {
	t, err := time.Parse(DayLayout, key)
	if err != nil {
		return key
	}
	return t.Format(dayLayout)
}
