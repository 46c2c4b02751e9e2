// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/helpie/internal/model"
)

const idPrefix = "sess_"

// =============================================================================
// CONFIG
// =============================================================================

// Config holds configuration for the session store.
type Config struct {
	// IdleTimeout drops a session after this long without activity (default: 2h)
	IdleTimeout time.Duration

	// MaxSessions caps live sessions; the least recently used one is evicted
	// when full (default: 10000)
	MaxSessions int

	// SweepInterval is how often Run removes idle sessions (default: 5m)
	SweepInterval time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   2 * time.Hour,
		MaxSessions:   10000,
		SweepInterval: 5 * time.Minute,
	}
}

// Greeting is the assistant turn every opened session starts with.
type Greeting struct {
	Raw      string
	Rendered string
}

// Turn builds a fresh greeting turn.
func (g Greeting) Turn() model.Turn {
	return model.NewAssistantTurn(g.Raw, g.Rendered)
}

// =============================================================================
// STORE
// =============================================================================

type entry struct {
	conv         *model.Conversation
	startTime    time.Time
	lastActivity time.Time
}

// Store maps session ids to conversations. It is safe for concurrent use;
// turn-level serialization is left to the conversation's own lock.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	cfg      Config
	greeting Greeting
	now      func() time.Time
}

// NewStore creates a session store. Zero config fields take defaults.
func NewStore(cfg Config, greeting Greeting) *Store {
	def := DefaultConfig()
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	return &Store{
		sessions: make(map[string]*entry),
		cfg:      cfg,
		greeting: greeting,
		now:      time.Now,
	}
}

// Open resets the session named by id to the single greeting turn and
// returns its id. An empty or unknown id starts a new session. The reset
// waits for a turn in flight on the same conversation.
func (s *Store) Open(id string) (string, *model.Conversation) {
	s.mu.Lock()
	e, ok := s.lookupLocked(id)
	if !ok {
		id, e = s.createLocked()
	}
	s.mu.Unlock()

	s.resetConversation(e.conv)
	log.Printf("SESSION_OPEN | session=%s", shortID(id))
	return id, e.conv
}

// Attach returns the conversation for id, creating an empty one under a
// new id when the session is unknown or expired. Unlike Open it never
// discards history.
func (s *Store) Attach(id string) (string, *model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.lookupLocked(id); ok {
		return id, e.conv
	}
	id, e := s.createLocked()
	return id, e.conv
}

// Get returns the conversation for a live session.
func (s *Store) Get(id string) (*model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookupLocked(id)
	if !ok {
		return nil, false
	}
	return e.conv, true
}

// Reset puts a live session back to the greeting turn.
func (s *Store) Reset(id string) bool {
	conv, ok := s.Get(id)
	if !ok {
		return false
	}
	s.resetConversation(conv)
	return true
}

// resetConversation holds the conversation turn lock so a reply still in
// flight lands before the reset, never after the greeting.
func (s *Store) resetConversation(conv *model.Conversation) {
	conv.Lock()
	defer conv.Unlock()
	conv.Reset(s.greeting.Turn())
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Greeting returns the configured greeting.
func (s *Store) Greeting() Greeting {
	return s.greeting
}

// =============================================================================
// EXPIRY
// =============================================================================

// Sweep removes sessions idle longer than the timeout and returns how many
// were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if now.Sub(e.lastActivity) >= s.cfg.IdleTimeout {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("SESSION_SWEEP | removed=%d remaining=%d", removed, len(s.sessions))
	}
	return removed
}

// Run sweeps idle sessions until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// =============================================================================
// STATUS
// =============================================================================

// Status is a snapshot of one session.
type Status struct {
	SessionID     string
	StartTime     time.Time
	IdleTime      time.Duration
	RemainingTime time.Duration
	Turns         int
}

// GetStatus returns a snapshot of a live session.
func (s *Store) GetStatus(id string) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return Status{}, false
	}
	idle := s.now().Sub(e.lastActivity)
	remaining := s.cfg.IdleTimeout - idle
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		SessionID:     id,
		StartTime:     e.startTime,
		IdleTime:      idle,
		RemainingTime: remaining,
		Turns:         e.conv.Len(),
	}, true
}

// =============================================================================
// HELPERS
// =============================================================================

// ValidID reports whether id has the shape of a generated session id.
func ValidID(id string) bool {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

func (s *Store) lookupLocked(id string) (*entry, bool) {
	if !ValidID(id) {
		return nil, false
	}
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(e.lastActivity) >= s.cfg.IdleTimeout {
		delete(s.sessions, id)
		return nil, false
	}
	e.lastActivity = now
	return e, true
}

func (s *Store) createLocked() (string, *entry) {
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.evictOldestLocked()
	}
	now := s.now()
	id := idPrefix + uuid.New().String()
	e := &entry{conv: model.NewConversation(), startTime: now, lastActivity: now}
	s.sessions[id] = e
	return id, e
}

func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.sessions {
		if oldestID == "" || e.lastActivity.Before(oldest) {
			oldestID, oldest = id, e.lastActivity
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
		log.Printf("SESSION_EVICT | session=%s", shortID(oldestID))
	}
}

// shortID keeps log lines readable without printing the full cookie value.
func shortID(id string) string {
	if len(id) <= len(idPrefix)+8 {
		return id
	}
	return id[:len(idPrefix)+8]
}
