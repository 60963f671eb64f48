// Package memory provides the in-memory Store used as the default dev
// backend and in tests. An ordered slice keeps insertion order; an id
// index makes point operations O(1) instead of a scan-and-rewrite.
package memory

import (
	"context"
	"sync"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
	"github.com/uestliguci/LifestyleCalculator/internal/storage"
)

var (
	_ storage.Store     = (*Store)(nil)
	_ storage.UserStore = (*Store)(nil)
)

type Store struct {
	mu       sync.Mutex
	items    []core.Transaction
	index    map[string]int
	settings map[string]core.Settings
	users    map[string]*storage.User // keyed by username
}

func New() *Store {
	return &Store{
		index:    make(map[string]int),
		settings: make(map[string]core.Settings),
		users:    make(map[string]*storage.User),
	}
}

func (s *Store) List(_ context.Context, f storage.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.items[i], nil
}

func (s *Store) Add(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[t.ID]; ok {
		return storage.ErrDuplicateID
	}
	s.index[t.ID] = len(s.items)
	s.items = append(s.items, t)
	return nil
}

func (s *Store) Update(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[t.ID]
	if !ok {
		return core.ErrNotFound
	}
	s.items[i] = t
	return nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return core.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
	return nil
}

func (s *Store) ReplaceAll(_ context.Context, userID string, txs []core.Transaction, settings *core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]core.Transaction, 0, len(s.items)+len(txs))
	for _, t := range s.items {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	kept = append(kept, txs...)
	s.items = kept
	s.index = make(map[string]int, len(s.items))
	for i, t := range s.items {
		s.index[t.ID] = i
	}
	if settings != nil {
		s.settings[userID] = *settings
	}
	return nil
}

func (s *Store) GetSettings(_ context.Context, userID string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.settings[userID]; ok {
		return st, nil
	}
	st := core.DefaultSettings()
	s.settings[userID] = st
	return st, nil
}

func (s *Store) PutSettings(_ context.Context, userID string, st core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[userID] = st
	return nil
}

func (s *Store) CreateUser(_ context.Context, u *storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return storage.ErrUserExists
	}
	cp := *u
	s.users[u.Username] = &cp
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (s *Store) Close() error { return nil }
