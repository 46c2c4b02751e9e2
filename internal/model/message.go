// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// =============================================================================
// ROLE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Helpie"
	case RoleSystem:
		return "System"
	default:
		return "Unknown"
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ParseRole converts a wire string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single {role, content} entry of a generation request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// =============================================================================
// TURN
// =============================================================================

// Turn is one entry of a conversation. Raw is the unrendered text used as
// model context; Rendered holds the HTML for assistant turns and is never
// sent upstream.
type Turn struct {
	Role      Role      `json:"role"`
	Raw       string    `json:"content"`
	Rendered  string    `json:"html,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserTurn creates a user turn.
func NewUserTurn(raw string) Turn {
	return Turn{Role: RoleUser, Raw: raw, Timestamp: time.Now()}
}

// NewAssistantTurn creates an assistant turn with its rendered form.
func NewAssistantTurn(raw, rendered string) Turn {
	return Turn{Role: RoleAssistant, Raw: raw, Rendered: rendered, Timestamp: time.Now()}
}

// Message converts the turn into provider context.
func (t Turn) Message() Message {
	return Message{Role: t.Role, Content: t.Raw}
}
