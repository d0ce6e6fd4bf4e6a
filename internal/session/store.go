package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"eia-drafter/internal/domain"

	"github.com/google/uuid"
)

// ErrStale is returned by Save when the stored session was reset after the
// caller read it.
var ErrStale = errors.New("session was reset")

// Store is an in-memory session registry with idle expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store; ttl <= 0 disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new empty session for ownerID.
func (s *Store) Create(ownerID string) Session {
	sess := New(uuid.NewString(), ownerID, s.now())
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess.Clone()
}

// Get returns a copy of the session. Sessions of other owners are reported as
// not found.
func (s *Store) Get(id, ownerID string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || sess.OwnerID != ownerID || s.expired(sess) {
		return Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return sess.Clone(), nil
}

// Save replaces the stored session. A session whose upload generation is
// behind the stored one is rejected with ErrStale.
func (s *Store) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[sess.ID]
	if !ok || current.OwnerID != sess.OwnerID {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sess.ID)
	}
	if sess.UploadGeneration < current.UploadGeneration {
		return ErrStale
	}
	sess.UpdatedAt = s.now()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// SaveResults stores the output of a run for kinds without touching the rest
// of the stored session, so runs of different kinds on one snapshot do not
// overwrite each other. A run started before an upload or reset is rejected
// with ErrStale.
func (s *Store) SaveResults(sess Session, kinds ...domain.ReportKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[sess.ID]
	if !ok || current.OwnerID != sess.OwnerID {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sess.ID)
	}
	if sess.UploadGeneration != current.UploadGeneration {
		return ErrStale
	}
	merged := current.mergeResults(sess, kinds)
	merged.UpdatedAt = s.now()
	s.sessions[sess.ID] = merged
	return nil
}

// Delete removes the session.
func (s *Store) Delete(id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.OwnerID != ownerID {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expired(sess Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, logger domain.Logger) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Info("Expired sessions removed", "count", n, "remaining", s.Len())
			}
		}
	}
}
