package session

import (
	"sync"
	"time"

	"github.com/amidaware/schedctl/shared"
	"github.com/sirupsen/logrus"
)

// Session is the one place the bearer token and the logged in user live.
// It is handed to the api client as its token source and to the route guard.
// Expiry is never checked: a stale token stays valid until a request fails.
type Session struct {
	mu    sync.RWMutex
	token string
	user  shared.User
	since time.Time

	store Store
	log   *logrus.Entry
}

// Open restores whatever the store holds. A corrupt record is dropped and
// the session starts logged out.
func Open(store Store, logger *logrus.Logger) (*Session, error) {
	s := &Session{store: store, log: logger.WithField("component", "session")}

	rec, err := store.Load()
	if err != nil {
		s.log.Warnln("discarding unreadable session:", err)
		if cerr := store.Clear(); cerr != nil {
			return nil, cerr
		}
		return s, nil
	}
	if rec != nil && rec.Token != "" {
		s.token = rec.Token
		s.user = shared.User{ID: rec.UserID, Username: rec.Username}
		s.since = time.Unix(rec.SavedAt, 0)
	}
	return s, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() shared.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Since is when the current identity was established, zero when logged out
func (s *Session) Since() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.since
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Begin persists the login first and only then publishes it, so a failed
// write never leaves a token in memory that the next run would not see.
func (s *Session) Begin(resp shared.LoginResponse) error {
	now := time.Now()
	rec := Record{
		Token:    resp.Token,
		UserID:   resp.User.ID,
		Username: resp.User.Username,
		SavedAt:  now.Unix(),
	}
	if err := s.store.Save(rec); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = resp.Token
	s.user = resp.User
	s.since = time.Unix(rec.SavedAt, 0)
	s.mu.Unlock()

	s.log.WithField("user", resp.User.Username).Debugln("session started")
	return nil
}

// End clears the identity in memory even if the store cannot be cleared
func (s *Session) End() error {
	s.mu.Lock()
	user := s.user.Username
	s.token = ""
	s.user = shared.User{}
	s.since = time.Time{}
	s.mu.Unlock()

	s.log.WithField("user", user).Debugln("session ended")
	return s.store.Clear()
}

func (s *Session) Close() error {
	return s.store.Close()
}
