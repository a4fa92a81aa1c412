// Package idempotency makes side-effecting calls safe to repeat under the same key.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

var ErrRequestInProgress = errors.New("request with this key is already in progress")

const defaultLockTTL = 2 * time.Minute

type Operation func(ctx context.Context) (any, error)

// Result is the operation's JSON encoded response.
type Result struct {
	Raw       json.RawMessage
	FromCache bool
}

// Decode unmarshals the stored response into v.
func (r *Result) Decode(v any) error {
	if r == nil || len(r.Raw) == 0 {
		return nil
	}
	return json.Unmarshal(r.Raw, v)
}

type Manager interface {
	Execute(
		ctx context.Context,
		key string,
		ttl time.Duration,
		fn Operation,
	) (*Result, error)
}

type manager struct {
	store   Store
	lockTTL time.Duration
	log     *slog.Logger
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store:   store,
		lockTTL: defaultLockTTL,
		log:     log,
	}
}

// Execute runs fn once per key. A completed result is replayed for ttl; a key that is locked
// by another caller yields ErrRequestInProgress. Failed operations are not remembered.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	record, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if record != nil && record.Status == StatusCompleted {
		m.log.Debug("idempotent replay", slog.String("key", key))
		return &Result{Raw: record.Response, FromCache: true}, nil
	}

	locked, err := m.store.Lock(ctx, key, m.lockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrRequestInProgress
	}
	defer func() {
		if err := m.store.ReleaseLock(context.WithoutCancel(ctx), key); err != nil {
			m.log.Warn("failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		}
	}()

	result, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{Status: StatusCompleted, Response: raw}, ttl); err != nil {
		m.log.Warn("failed to store idempotency record", slog.String("key", key), slog.Any("error", err))
	}

	return &Result{Raw: raw}, nil
}
