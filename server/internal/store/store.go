package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/netpulse/netpulse/internal/cycle"
)

// Entry is a cycle report together with the time it was stored.
type Entry struct {
	Report    *cycle.Report
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory report store, keyed by cycle ID.
// A background goroutine (Run) periodically evicts reports older than the
// configured TTL. Nothing is persisted across restarts.
type Store struct {
	mu     sync.RWMutex
	data   map[string]*Entry
	latest string
	ttl    time.Duration
	now    func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the configured retention window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores rep and marks it as the latest report.
// Callers must not modify rep after calling Put.
func (s *Store) Put(rep *cycle.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rep.ID] = &Entry{
		Report:    rep,
		UpdatedAt: s.now(),
	}
	s.latest = rep.ID
}

// Get returns the Entry for the given cycle ID and a boolean indicating
// whether a live entry was found.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok || !s.fresh(e) {
		return nil, false
	}
	return e, true
}

// Latest returns the most recently stored report if it is still within the TTL.
func (s *Store) Latest() (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[s.latest]
	if !ok || !s.fresh(e) {
		return nil, false
	}
	return e, true
}

// List returns all live entries, newest first.
// Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if s.fresh(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale reports", "count", n)
			}
		}
	}
}

// fresh reports whether e is within the TTL. Callers must hold s.mu.
func (s *Store) fresh(e *Entry) bool {
	return e.UpdatedAt.After(s.now().Add(-s.ttl))
}
