package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultKey is the storage key for the session identifier.
const DefaultKey = "aadee_session_id"

// Store hands out one identifier per profile. It never fails: when the KV is unusable it
// falls back to an identifier that lives as long as the Store.
type Store struct {
	kv  KV
	key string
	log *slog.Logger

	mu sync.Mutex
	id string
}

// NewStore creates a Store reading and writing key in kv. A nil kv keeps the id in memory.
func NewStore(kv KV, key string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if key == "" {
		key = DefaultKey
	}

	return &Store{kv: kv, key: key, log: log}
}

// GetOrCreate returns the persisted identifier, creating and saving one on first use.
func (s *Store) GetOrCreate(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id
	}

	if s.kv == nil {
		s.id = uuid.NewString()
		return s.id
	}

	id, err := s.kv.Get(ctx, s.key)
	switch {
	case err == nil && id != "":
		s.id = id
		return s.id
	case err != nil && !errors.Is(err, ErrNotFound):
		s.id = uuid.NewString()
		s.log.Warn("session storage unavailable, using in-memory id",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		return s.id
	}

	s.id = uuid.NewString()
	if err := s.kv.Set(ctx, s.key, s.id); err != nil {
		s.log.Warn("failed to persist session id, keeping it in memory",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
	}

	return s.id
}

// Key returns the storage key this store uses.
func (s *Store) Key() string {
	return s.key
}
