// Package session owns the authenticated identity: the persisted session
// file and the controller that keeps it consistent with the backend.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/securechat/msgr/internal/api"
	"go.uber.org/zap"
)

// Session is the persisted identity: an opaque bearer token and the last
// known user profile. Either may be absent.
type Session struct {
	Token string    `json:"token,omitempty"`
	User  *api.User `json:"user,omitempty"`
}

// Store persists one Session as a JSON file in the profile directory.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a store writing to the given file path.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Load reads the persisted session. Missing, unreadable, or corrupt data
// degrades to an empty session; Load never fails.
func (s *Store) Load() Session {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Session{}
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.logger.Warn("discarding corrupt session file", zap.Error(err))
		return Session{}
	}
	return sess
}

// Save persists the session atomically (temp file + rename), so a reader
// never observes a partial write.
func (s *Store) Save(sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear removes the persisted session. Idempotent.
func (s *Store) Clear() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("clear session file", zap.Error(err))
	}
}
