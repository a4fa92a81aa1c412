// Package availability normalizes bookable slots into local calendar days.
package availability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Day is one local calendar day and its slots in display order.
type Day struct {
	Key   string   // YYYY-MM-DD in the widget's zone
	Slots []string // ISO-8601 timestamps
}

// Grouped is availability bucketed by day. Days keep the order they were first seen in.
type Grouped []Day

// Empty reports whether there is nothing to show.
func (g Grouped) Empty() bool {
	for _, d := range g {
		if len(d.Slots) > 0 {
			return false
		}
	}
	return true
}

// Slots flattens the grouping in display order.
func (g Grouped) Slots() []string {
	var out []string
	for _, d := range g {
		out = append(out, d.Slots...)
	}
	return out
}

// Contains reports whether iso is one of the displayed slots.
func (g Grouped) Contains(iso string) bool {
	for _, d := range g {
		if slices.Contains(d.Slots, iso) {
			return true
		}
	}
	return false
}

// Day returns the slots for key.
func (g Grouped) Day(key string) ([]string, bool) {
	for _, d := range g {
		if d.Key == key {
			return d.Slots, true
		}
	}
	return nil, false
}

// Clone returns a deep copy.
func (g Grouped) Clone() Grouped {
	if g == nil {
		return nil
	}
	out := make(Grouped, len(g))
	for i, d := range g {
		out[i] = Day{Key: d.Key, Slots: slices.Clone(d.Slots)}
	}
	return out
}

// MarshalJSON writes the grouping as a JSON object in day order.
func (g Grouped) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Key)
		if err != nil {
			return nil, err
		}
		slots := d.Slots
		if slots == nil {
			slots = []string{}
		}
		value, err := json.Marshal(slots)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of day keys, keeping the document's key order.
func (g *Grouped) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*g = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("availability: grouped must be an object, got %v", tok)
	}

	out := Grouped{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("availability: unexpected key %v", tok)
		}

		var slots []string
		if err := dec.Decode(&slots); err != nil {
			return fmt.Errorf("availability: day %s: %w", key, err)
		}
		out = append(out, Day{Key: key, Slots: slots})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*g = out
	return nil
}
