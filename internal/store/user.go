package store

import (
	"encoding/json"
	"fmt"
)

// SaveUser upserts a participant by id, same pattern as channels.
func (s *Store) SaveUser(u User) error {
	mu := s.lock(keyUsers)
	mu.Lock()
	defer mu.Unlock()

	users, err := readSlice[User](s, keyUsers)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == u.ID {
			users[i] = u
			return writeSlice(s, keyUsers, users)
		}
	}
	return writeSlice(s, keyUsers, append(users, u))
}

// Users returns all cached participants.
func (s *Store) Users() ([]User, error) {
	return readSlice[User](s, keyUsers)
}

// CurrentUser returns who is logged in on this device, or nil when
// nobody is.
func (s *Store) CurrentUser() (*User, error) {
	raw, ok, err := s.kv.Get(keyCurrentUser)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", keyCurrentUser, err)
	}
	if !ok {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyCurrentUser, err)
	}
	return &u, nil
}

// ClearCurrentUser empties the current-user slot without touching the
// rest of the cache.
func (s *Store) ClearCurrentUser() error {
	if err := s.kv.Remove(keyCurrentUser); err != nil {
		return fmt.Errorf("remove %s: %w", keyCurrentUser, err)
	}
	return nil
}

// SetCurrentUser overwrites the current-user slot wholesale. Called on
// each login.
func (s *Store) SetCurrentUser(u User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode %s: %w", keyCurrentUser, err)
	}
	if err := s.kv.Set(keyCurrentUser, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", keyCurrentUser, err)
	}
	return nil
}
