package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// ErrNotReady is returned by Readiness while a dependency check fails or the process drains.
var ErrNotReady = errors.New("not ready")

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// DependencyChecker reports per-component status.
type DependencyChecker interface {
	Check(ctx context.Context) (map[string]string, bool)
}

// Probes answers the orchestrator's probes from the dependency checks.
type Probes struct {
	deps     DependencyChecker
	draining atomic.Bool
	log      *slog.Logger
}

// NewProbes creates a new Probes instance. deps may be nil.
func NewProbes(deps DependencyChecker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{deps: deps, log: log}
}

// Drain marks the process as shutting down so readiness fails first.
func (p *Probes) Drain() {
	p.draining.Store(true)
}

// Liveness reports success while the process runs.
func (p *Probes) Liveness(context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

// Readiness fails while draining or while any dependency is unhealthy.
func (p *Probes) Readiness(ctx context.Context) error {
	_, err := p.readiness(ctx)
	return err
}

func (p *Probes) readiness(ctx context.Context) (map[string]string, error) {
	if p.draining.Load() {
		return nil, ErrNotReady
	}
	if p.deps == nil {
		return map[string]string{}, nil
	}

	results, healthy := p.deps.Check(ctx)
	if !healthy {
		return results, ErrNotReady
	}
	return results, nil
}

// LivenessHandler serves /healthz.
func (p *Probes) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, p.Liveness(r.Context()), nil)
}

// ReadinessHandler serves /readyz with per-component results.
func (p *Probes) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	results, err := p.readiness(r.Context())
	writeStatus(w, err, results)
}

func writeStatus(w http.ResponseWriter, err error, components map[string]string) {
	body := struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components,omitempty"`
	}{Status: "ok", Components: components}

	code := http.StatusOK
	if err != nil {
		body.Status = err.Error()
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
