package transcript

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Proton-105/aadee-assistant/internal/availability"
)

// Renderer prints a transcript as plain text, writing only entries it has not shown yet.
type Renderer struct {
	w     io.Writer
	loc   *time.Location
	shown int
	slots string
	chips []string
}

// NewRenderer writes to w, formatting slot chips in loc.
func NewRenderer(w io.Writer, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{w: w, loc: loc}
}

// Render brings the output up to date. A transcript shorter than what was already printed
// means the widget was reopened, so rendering starts over. Slot chips are printed whenever
// the displayed set changes.
func (r *Renderer) Render(t Transcript, slots availability.Grouped, showing bool) error {
	if t.Len() < r.shown {
		if _, err := fmt.Fprintln(r.w, "----"); err != nil {
			return err
		}
		r.shown = 0
	}

	for _, msg := range t.Since(r.shown) {
		if _, err := fmt.Fprintln(r.w, formatMessage(msg)); err != nil {
			return err
		}
	}
	r.shown = t.Len()

	if !showing {
		slots = nil
	}

	fingerprint := strings.Join(slots.Slots(), "|")
	if fingerprint == r.slots {
		return nil
	}
	r.slots = fingerprint
	r.chips = slots.Slots()

	n := 0
	for _, day := range slots {
		if len(day.Slots) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(r.w, "  %s\n", availability.FormatDay(day.Key)); err != nil {
			return err
		}
		for _, iso := range day.Slots {
			n++
			if _, err := fmt.Fprintf(r.w, "    [%d] %s\n", n, availability.FormatTime(iso, r.loc)); err != nil {
				return err
			}
		}
	}

	return nil
}

// Reset forgets what was printed so the next Render starts a fresh screen.
func (r *Renderer) Reset() {
	r.shown = 0
	r.slots = ""
	r.chips = nil
}

// Chip returns the slot printed as number n (1-based).
func (r *Renderer) Chip(n int) (string, bool) {
	if n < 1 || n > len(r.chips) {
		return "", false
	}
	return r.chips[n-1], true
}

func formatMessage(msg Message) string {
	prefix := "assistant>"
	if msg.Role == RoleUser {
		prefix = "you>"
	}

	lines := strings.Split(msg.Content, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.Repeat(" ", len(prefix)+1) + lines[i]
	}

	return prefix + " " + strings.Join(lines, "\n")
}
