package availability

import (
	"sort"
	"strings"
	"time"
)

// DayLayout is the day key format.
const DayLayout = "2006-01-02"

// Response is the availability payload. Deployments send either shape, sometimes both.
type Response struct {
	Slots   []string `json:"slots,omitempty"`
	Grouped Grouped  `json:"grouped,omitempty"`
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseSlot parses an ISO-8601 timestamp. Timestamps without an offset are read in loc.
func ParseSlot(iso string, loc *time.Location) (time.Time, bool) {
	iso = strings.TrimSpace(iso)
	if t, err := time.Parse(time.RFC3339Nano, iso); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, iso, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize turns either response shape into Grouped. A non-empty flat list wins and is grouped
// relative to now; otherwise the pre-grouped form passes through as is. Timestamps that do not
// parse are returned as rejected.
func Normalize(resp Response, now time.Time, loc *time.Location) (Grouped, []string) {
	if len(resp.Slots) > 0 {
		return GroupSlots(resp.Slots, now, loc)
	}
	if resp.Grouped != nil {
		return resp.Grouped.Clone(), nil
	}
	return Grouped{}, nil
}

// GroupSlots buckets slots by local day, dropping days before today. Each day is sorted
// chronologically and days keep first-occurrence order.
func GroupSlots(slots []string, now time.Time, loc *time.Location) (Grouped, []string) {
	if loc == nil {
		loc = time.Local
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	type entry struct {
		iso string
		at  time.Time
	}

	var (
		order    []string
		buckets  = make(map[string][]entry)
		rejected []string
	)

	for _, iso := range slots {
		at, ok := ParseSlot(iso, loc)
		if !ok {
			rejected = append(rejected, iso)
			continue
		}

		at = at.In(loc)
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, loc)
		if day.Before(today) {
			continue
		}

		key := day.Format(DayLayout)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], entry{iso: iso, at: at})
	}

	grouped := make(Grouped, 0, len(order))
	for _, key := range order {
		entries := buckets[key]
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

		day := Day{Key: key, Slots: make([]string, len(entries))}
		for i, e := range entries {
			day.Slots[i] = e.iso
		}
		grouped = append(grouped, day)
	}

	return grouped, rejected
}
