// Package state persists the per-profile application state: the identifier
// of the logged-in user and the selected theme. Nothing else survives a
// restart; chat history lives in the store.
package state

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

type fileState struct {
	UserID string `toml:"user_id"`
	Theme  string `toml:"theme"`
}

// Store is a durable key-value holder for the two persisted keys.
// Single reader/writer per profile; the profile lock keeps other
// processes out.
type Store struct {
	mu   sync.Mutex
	path string
	cur  fileState
}

// Open loads the state file at path, starting empty when it does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := toml.DecodeFile(path, &s.cur); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// UserID returns the persisted user identifier, or "" when logged out.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.UserID
}

// SetUserID persists the user identifier.
func (s *Store) SetUserID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.UserID = id
	return s.save()
}

// ClearUserID removes the persisted user identifier.
func (s *Store) ClearUserID() error {
	return s.SetUserID("")
}

// Theme returns the persisted theme name, or "" when never set.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Theme
}

// SetTheme persists the theme name.
func (s *Store) SetTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Theme = theme
	return s.save()
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(s.cur)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
