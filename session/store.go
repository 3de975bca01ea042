// Package session owns the client-side session: the token store and
// the state machine that resolves it into a user identity.
package session

import (
	"sync"
	"time"
)

// Store holds the current access token and its expiry timer, in
// process memory only. A full restart requires re-authentication.
type Store struct {
	mu    sync.Mutex
	token string
	timer *time.Timer
}

func NewStore() *Store {
	return &Store{}
}

// SetToken replaces the current token and re-arms the expiry timer.
// The previously scheduled callback is cancelled first, so at most one
// timer is ever pending and only the most recent onExpire can fire.
// onExpire runs on its own goroutine.
func (s *Store) SetToken(token string, expiresIn time.Duration, onExpire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.token = token
	if expiresIn > 0 && onExpire != nil {
		var timer *time.Timer
		timer = time.AfterFunc(expiresIn, func() {
			// A timer that fired while being superseded by a newer
			// SetToken or a Clear must not log out the fresh session.
			s.mu.Lock()
			current := s.timer == timer
			if current {
				s.timer = nil
			}
			s.mu.Unlock()

			if current {
				onExpire()
			}
		})
		s.timer = timer
	}
}

// Token returns the current token, if one is held.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Clear discards the token and cancels any pending expiry callback.
// Safe to call when already clear.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.token = ""
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
