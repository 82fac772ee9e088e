package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/conversation"
	"github.com/spigell/interview-coach/internal/logger"
)

const defaultSessionTTL = 2 * time.Hour

// slot is one browser's interview. mu serializes actions of the same user so
// a double-submitted form cannot interleave two transcript updates.
type slot struct {
	mu sync.Mutex

	session    *conversation.Session
	evaluation string
	notice     string
	lastSeen   time.Time
}

// Store keeps the interviews of all browsers in memory. Nothing survives a restart.
type Store struct {
	mu       sync.Mutex
	slots    map[string]*slot
	maxTurns int
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewStore(maxTurns int, ttl time.Duration, log *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &Store{
		slots:    make(map[string]*slot),
		maxTurns: maxTurns,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.WithFields(log),
	}
}

// get returns a live slot and refreshes its idle timer.
func (s *Store) get(id string) (*slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[id]
	if !ok {
		return nil, false
	}

	now := s.now()
	if now.Sub(sl.lastSeen) > s.ttl {
		delete(s.slots, id)
		return nil, false
	}

	sl.lastSeen = now
	return sl, true
}

// create registers an empty interview under a fresh random id.
func (s *Store) create() (string, *slot) {
	id := uuid.NewString()
	sl := &slot{
		session:  conversation.NewSession(id, s.maxTurns),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.slots[id] = sl
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session_id", id))

	return id, sl
}

func (s *Store) remove(id string) {
	s.mu.Lock()
	delete(s.slots, id)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Sweep drops interviews idle for longer than the TTL and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sl := range s.slots {
		if now.Sub(sl.lastSeen) > s.ttl {
			delete(s.slots, id)
			removed++
		}
	}

	return removed
}

// Janitor sweeps the store every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 4
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Info("expired sessions removed",
					zap.Int("removed", removed),
					zap.Int("active", s.Len()),
				)
			}
		}
	}
}
