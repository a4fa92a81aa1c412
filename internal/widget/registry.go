package widget

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Factory builds the widget for a profile, e.g. a Telegram chat or a browser session.
type Factory func(profile string) *Widget

// Registry keeps one widget per profile.
type Registry struct {
	mu      sync.Mutex
	widgets map[string]*Widget
	factory Factory
	log     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		widgets: make(map[string]*Widget),
		factory: factory,
		log:     log,
	}
}

// Get returns the profile's widget, creating and opening it on first use.
func (r *Registry) Get(ctx context.Context, profile string) *Widget {
	w, _ := r.Acquire(ctx, profile)
	return w
}

// Acquire is Get that also reports whether the widget was just created, so a front end can
// show the fresh greeting to a user whose earlier conversation was evicted.
func (r *Registry) Acquire(ctx context.Context, profile string) (*Widget, bool) {
	r.mu.Lock()
	w, ok := r.widgets[profile]
	if !ok {
		w = r.factory(profile)
		r.widgets[profile] = w
	}
	r.mu.Unlock()

	if !ok {
		w.Open(ctx)
		r.log.Debug("widget created", slog.String("profile", profile))
	}

	return w, !ok
}

// Remove forgets the profile's widget.
func (r *Registry) Remove(profile string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.widgets, profile)
}

// Len returns the number of live widgets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.widgets)
}

// CountByState implements metrics.StateCounter.
func (r *Registry) CountByState() map[string]int {
	r.mu.Lock()
	widgets := make([]*Widget, 0, len(r.widgets))
	for _, w := range r.widgets {
		widgets = append(widgets, w)
	}
	r.mu.Unlock()

	counts := make(map[string]int)
	for _, w := range widgets {
		counts[string(w.State())]++
	}
	return counts
}

// EvictIdle drops widgets inactive for longer than ttl and returns how many were removed.
func (r *Registry) EvictIdle(now time.Time, ttl time.Duration) int {
	r.mu.Lock()
	snapshot := make(map[string]*Widget, len(r.widgets))
	for profile, w := range r.widgets {
		snapshot[profile] = w
	}
	r.mu.Unlock()

	var stale []string
	for profile, w := range snapshot {
		if now.Sub(w.LastActive()) > ttl {
			stale = append(stale, profile)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, profile := range stale {
		if r.widgets[profile] == snapshot[profile] {
			delete(r.widgets, profile)
			removed++
		}
	}
	return removed
}
