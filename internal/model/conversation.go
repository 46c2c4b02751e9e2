// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered turns of one chat session.
//
// Two locks are involved. The turn lock (Lock/Unlock) is taken by whoever
// runs a full chat turn and is held across the provider call so turns of
// one session never interleave. The internal data lock only guards the
// turn slice, so readers such as a history listing do not wait for an
// in-flight generation.
type Conversation struct {
	ID        string
	CreatedAt time.Time

	turnMu sync.Mutex

	mu        sync.RWMutex
	turns     []Turn
	updatedAt time.Time
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.New().String(),
		CreatedAt: now,
		updatedAt: now,
		turns:     make([]Turn, 0, 16),
	}
}

// Lock acquires the turn lock.
func (c *Conversation) Lock() { c.turnMu.Lock() }

// Unlock releases the turn lock.
func (c *Conversation) Unlock() { c.turnMu.Unlock() }

// =============================================================================
// TURN MANAGEMENT
// =============================================================================

// Append adds turns in order as a single step.
func (c *Conversation) Append(turns ...Turn) {
	if len(turns) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turns...)
	c.updatedAt = time.Now()
}

// Reset replaces the whole history. With no arguments the conversation
// becomes empty.
func (c *Conversation) Reset(turns ...Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(make([]Turn, 0, 16), turns...)
	c.updatedAt = time.Now()
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Turns returns a copy of the history.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Last returns the most recent turn.
func (c *Conversation) Last() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// Window returns the raw text of the last n turns, oldest first.
func (c *Conversation) Window(n int) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	start := len(c.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, 0, len(c.turns)-start)
	for _, t := range c.turns[start:] {
		out = append(out, t.Message())
	}
	return out
}

// UpdatedAt returns when the history last changed.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
