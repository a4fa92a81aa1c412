package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Source fetches raw availability for the next days.
type Source interface {
	Availability(ctx context.Context, days int) (Response, error)
}

// Grouper fetches availability and normalizes it for display.
type Grouper struct {
	source Source
	loc    *time.Location
	now    func() time.Time
	log    *slog.Logger
}

// NewGrouper builds a Grouper that groups by day in loc.
func NewGrouper(source Source, loc *time.Location, log *slog.Logger) *Grouper {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	return &Grouper{source: source, loc: loc, now: time.Now, log: log}
}

// WithClock replaces the clock used to decide what "today" is.
func (g *Grouper) WithClock(now func() time.Time) *Grouper {
	g.now = now
	return g
}

// Location returns the zone used for day keys.
func (g *Grouper) Location() *time.Location {
	return g.loc
}

// Fetch returns grouped availability for windowDays ahead. On failure it returns an empty
// grouping together with the error.
func (g *Grouper) Fetch(ctx context.Context, windowDays int) (Grouped, error) {
	resp, err := g.source.Availability(ctx, windowDays)
	if err != nil {
		return Grouped{}, fmt.Errorf("fetch availability: %w", err)
	}

	grouped, rejected := Normalize(resp, g.now(), g.loc)
	for _, iso := range rejected {
		g.log.Warn("skipping unparseable slot", slog.String("slot", iso))
	}

	g.log.Debug("availability loaded",
		slog.Int("days", len(grouped)),
		slog.Int("slots", len(grouped.Slots())),
		slog.Bool("pre_grouped", len(resp.Slots) == 0 && resp.Grouped != nil),
	)

	return grouped, nil
}
