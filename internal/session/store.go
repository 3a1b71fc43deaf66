// Package session holds in-progress conversation state. Sessions live in
// process memory only; completed conversations leave their trace in the lead
// store, not here.
package session

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("session not found")

// Session is one in-progress conversation.
type Session struct {
	ID           string
	CurrentStep  int
	Collected    map[string]string // field name -> canonical value
	Retries      map[string]int    // field name -> consecutive failure count
	CreatedAt    time.Time
	LastActivity time.Time
}

// New returns an empty session at step 0.
func New(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           id,
		Collected:    make(map[string]string),
		Retries:      make(map[string]int),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// entry pairs a session with its own mutex so turns for one session are
// serialized without blocking turns for other sessions.
type entry struct {
	mu   sync.Mutex
	sess *Session
}

// Store is the keyed collection of live sessions. The collection map is
// guarded by one mutex; each session's read-modify-write is guarded by a
// per-session mutex.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Put registers a session.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sess.ID] = &entry{sess: sess}
}

// Update runs fn with exclusive access to the session and stamps its
// last-activity time. At most one Update per session id runs at a time.
func (s *Store) Update(id string, fn func(*Session) error) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.LastActivity = time.Now().UTC()
	return fn(e.sess)
}

// Get returns a snapshot copy of the session.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return Session{}, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	snap := *e.sess
	snap.Collected = maps.Clone(e.sess.Collected)
	snap.Retries = maps.Clone(e.sess.Retries)
	return snap, nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts sessions idle for longer than idleFor and returns how many
// were removed.
func (s *Store) Sweep(idleFor time.Duration) int {
	cutoff := time.Now().UTC().Add(-idleFor)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		e.mu.Lock()
		idle := e.sess.LastActivity.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// RunSweeper evicts idle sessions on a ticker until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context, interval, idleFor time.Duration) {
	logger := slog.Default()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(idleFor); n > 0 {
				logger.Info("idle sessions evicted", "count", n, "ttl", idleFor)
			}
		}
	}
}
