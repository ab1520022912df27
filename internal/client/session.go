package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iliyamo/seat-booking/internal/api"
)

const sessionFileName = "session.json"

// Session is the identity of one logged in user: the bearer token plus
// the profile cached at login.  It is created by Client.Login, passed to
// every protected call and cleared by Client.Logout.  seatctl persists it
// between runs with a SessionStore.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      api.User  `json:"user"`
}

// Valid reports whether s can authenticate a request.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// Expired reports whether the token is past its expiry at now.  A zero
// expiry never expires locally; the server remains the authority.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionStore persists one Session as a JSON file.
type SessionStore struct {
	Path string
}

// DefaultSessionPath is <user config dir>/seat-booking/session.json.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "seat-booking", sessionFileName), nil
}

// NewSessionStore uses path, or the default location when path is empty.
func NewSessionStore(path string) (*SessionStore, error) {
	if path == "" {
		p, err := DefaultSessionPath()
		if err != nil {
			return nil, fmt.Errorf("resolve session path: %w", err)
		}
		path = p
	}
	return &SessionStore{Path: path}, nil
}

// Load returns the saved session.  A missing file yields ErrNoSession.
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("read session %s: %w", s.Path, err)
	}
	if !sess.Valid() {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Save writes the session readable by the owner only.
func (s *SessionStore) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, payload, 0o600)
}

// Clear removes the session file.  Clearing twice is fine.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
