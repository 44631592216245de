// Package store is the typed local cache layered on the key-value
// persistence adapter. Each collection is serialized as a single JSON
// array blob under one adapter key, so every write rewrites the whole
// collection. A per-key mutex serializes read-modify-write cycles so
// concurrent callers cannot lose updates.
package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/campuskit/campusd/internal/kv"
	"go.uber.org/zap"
)

// Adapter keys. ClearAll removes exactly this set.
const (
	keyMessages    = "messages"
	keyChannels    = "channels"
	keyUsers       = "users"
	keyGallery     = "gallery"
	keyOTPPins     = "otp_pins"
	keyCurrentUser = "current_user"
	keyOutbox      = "outbox"
)

var allKeys = []string{
	keyMessages, keyChannels, keyUsers, keyGallery,
	keyOTPPins, keyCurrentUser, keyOutbox,
}

// Store provides CRUD and filter operations over the cached collections.
type Store struct {
	kv     kv.Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a store on top of the given persistence adapter.
func New(adapter kv.Store, logger *zap.Logger) *Store {
	return &Store{
		kv:     adapter,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lock returns the mutex guarding one collection key.
func (s *Store) lock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

// readSlice loads and decodes a collection blob. An absent key yields
// an empty slice; a failed read or decode is an error, never silently
// conflated with "nothing stored".
func readSlice[T any](s *Store, key string) ([]T, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

// writeSlice serializes and rewrites an entire collection blob.
func writeSlice[T any](s *Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// ClearAll removes every known collection key in one batch. Used on
// logout; the caller treats it as best-effort since the adapter makes
// no atomicity promise across keys.
func (s *Store) ClearAll() error {
	if err := s.kv.RemoveMany(allKeys); err != nil {
		return fmt.Errorf("clear all: %w", err)
	}
	s.logger.Info("local cache cleared")
	return nil
}
