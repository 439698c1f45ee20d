// Package credstore persists the dashboard's credentials in the sqlite
// key-value table. It is the only component that touches the credential
// keys; everything else goes through its accessors.
package credstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/covdash/covdash/internal/log"
	"github.com/covdash/covdash/internal/oauth"
)

// ErrStorageUnavailable is returned when a credential write fails. Callers
// must not assume the value persisted.
var ErrStorageUnavailable = errors.New("credential storage unavailable")

// Fixed storage keys. The state key is transient: present only between
// connect and the next validation attempt.
const (
	keyToken = "gh_access_token"
	keyUser  = "gh_user"
	keyState = "oauth_state"
)

// Store handles credential key-value storage in the credentials table.
type Store struct {
	db *sql.DB
}

// New creates a new Store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM credentials WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO credentials (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	_, err := s.db.Exec("DELETE FROM credentials WHERE key = ?", key)
	return err
}

// StoreToken writes the bearer token.
func (s *Store) StoreToken(token string) error {
	return s.set(keyToken, token)
}

// GetToken returns the stored token, or the empty string when absent.
// A read failure degrades to absent rather than surfacing an error: a
// corrupted store means unauthenticated, never a crash.
func (s *Store) GetToken() string {
	value, err := s.get(keyToken)
	if err != nil {
		log.Debug("token read failed, treating as absent", "error", err)
		return ""
	}
	return value
}

// IsAuthenticated reports whether a non-empty token is stored.
func (s *Store) IsAuthenticated() bool {
	return s.GetToken() != ""
}

// StoreUser writes the serialized user profile.
func (s *Store) StoreUser(profile *oauth.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return s.set(keyUser, string(raw))
}

// GetUser returns the stored profile, or nil when absent or unreadable.
func (s *Store) GetUser() *oauth.UserProfile {
	value, err := s.get(keyUser)
	if err != nil || value == "" {
		return nil
	}
	var profile oauth.UserProfile
	if err := json.Unmarshal([]byte(value), &profile); err != nil {
		log.Debug("stored user profile is not valid json", "error", err)
		return nil
	}
	return &profile
}

// StoreState writes the pending CSRF state, replacing any previous one.
// Only the most recent authorization attempt can complete validation.
func (s *Store) StoreState(state string) error {
	return s.set(keyState, state)
}

// ValidateState consumes the pending state and reports whether it matches
// the candidate. The stored value is deleted regardless of the outcome, so
// a replayed callback always fails. An absent state or an empty candidate
// never validates.
func (s *Store) ValidateState(candidate string) bool {
	stored, err := s.get(keyState)
	if delErr := s.delete(keyState); delErr != nil {
		log.Warn("failed to consume oauth state", "error", delErr)
	}
	if err != nil || stored == "" || candidate == "" {
		return false
	}
	return stored == candidate
}

// Revoke deletes the token, user profile, and any pending state. Deleting
// absent keys is not an error, so revoking twice is harmless.
func (s *Store) Revoke() error {
	var firstErr error
	for _, key := range []string{keyToken, keyUser, keyState} {
		if err := s.delete(key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}
	return firstErr
}
