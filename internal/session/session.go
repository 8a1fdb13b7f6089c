// Package session holds the signed-in user's state: bearer token and
// profile, seeded from local storage at startup and written back on every
// change.
package session

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sufyan2618/project-management/internal/storage"
	"github.com/sufyan2618/project-management/pkg/types"
)

// KV is the persistent storage the session is kept in.
// Implementations: storage.Local (SQLite)
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	RemoveAll(keys ...string) error
}

// State is a snapshot of the session
type State struct {
	Token           string
	User            *types.User
	IsAuthenticated bool
}

// Role returns the user's role, or "" when signed out
func (s State) Role() types.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Valid reports whether the session can be used at now: it must be
// authenticated and its token must not be past its expiry. Tokens that are
// not JWTs carry no expiry and stay valid until logout.
func (s State) Valid(now time.Time) bool {
	if !s.IsAuthenticated || s.Token == "" {
		return false
	}
	claims, err := ParseToken(s.Token)
	if err != nil {
		return true
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return false
	}
	return true
}

// Store owns the session state
type Store struct {
	mu        sync.RWMutex
	kv        KV
	state     State
	listeners []func(State)
}

// NewStore creates a store seeded from kv. The session counts as
// authenticated iff a token is stored. A corrupt stored profile is dropped
// with a warning rather than failing startup.
func NewStore(kv KV) (*Store, error) {
	s := &Store{kv: kv}

	token, ok, err := kv.Get(storage.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if ok {
		s.state.Token = token
		s.state.IsAuthenticated = token != ""
	}

	raw, ok, err := kv.Get(storage.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if ok && raw != "" {
		var user types.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			log.Printf("warning: failed to parse stored user: %v", err)
		} else {
			s.state.User = &user
		}
	}

	return s, nil
}

// State returns a copy of the current session
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Subscribe registers fn to be called after every state change
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// SetCredentials signs the user in and persists token and profile
func (s *Store) SetCredentials(user types.User, token string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.kv.Set(storage.KeyAccessToken, token); err != nil {
		return err
	}
	if err := s.kv.Set(storage.KeyUser, string(data)); err != nil {
		return err
	}

	s.update(func(st *State) {
		st.Token = token
		st.User = &user
		st.IsAuthenticated = true
	})
	return nil
}

// UpdateUser replaces the stored profile, keeping the token
func (s *Store) UpdateUser(user types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.kv.Set(storage.KeyUser, string(data)); err != nil {
		return err
	}
	s.update(func(st *State) { st.User = &user })
	return nil
}

// Logout clears the session and both persisted entries together
func (s *Store) Logout() error {
	err := s.kv.RemoveAll(storage.KeyAccessToken, storage.KeyUser)
	s.update(func(st *State) { *st = State{} })
	if err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}
	return nil
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()

	st := s.State()
	for _, l := range listeners {
		l(st)
	}
}
