// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreatedLayout is the minute-resolution layout of Ticket.Created.
const CreatedLayout = "2006-01-02 15:04"

// UnassignedName is the assignee of a new ticket.
const UnassignedName = "Unassigned"

// =============================================================================
// TICKET TYPE
// =============================================================================

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// Priority is the urgency of a ticket.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Ticket is one helpdesk request.
type Ticket struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Issue    string   `json:"issue"`
	Status   Status   `json:"status"`
	Created  string   `json:"created"`
	Priority Priority `json:"priority"`
	Assigned string   `json:"assigned"`
}

// TicketUpdate carries the editable fields of a ticket.
type TicketUpdate struct {
	Priority Priority `json:"priority"`
	Issue    string   `json:"issue"`
	Assigned string   `json:"assigned"`
	Status   Status   `json:"status"`
}

// Stats are the dashboard counters.
type Stats struct {
	Total  int `json:"total"`
	Open   int `json:"open_count"`
	Closed int `json:"closed_count"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// TicketStore is implemented by every ticket backend.
type TicketStore interface {
	// List returns all tickets in creation order.
	List() ([]Ticket, error)
	// Create classifies and stores a new open ticket.
	Create(name, issue string) (Ticket, error)
	// Get returns one ticket or ErrTicketNotFound.
	Get(id string) (Ticket, error)
	// Search returns tickets whose name, issue, status, priority or
	// assignee contains query, case-insensitively. An empty query
	// matches everything.
	Search(query string) ([]Ticket, error)
	// Close marks a ticket closed. Unknown ids are ignored.
	Close(id string) error
	// Update replaces the editable fields or returns ErrTicketNotFound.
	Update(id string, upd TicketUpdate) (Ticket, error)
	// Stats counts tickets by status and priority.
	Stats() (Stats, error)
	// Shutdown releases backend resources.
	Shutdown() error
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrTicketNotFound is returned when a ticket id is unknown.
var ErrTicketNotFound = &StoreError{Message: "Ticket not found"}

// ErrInvalidTicket is the base for validation failures.
var ErrInvalidTicket = &StoreError{Message: "invalid ticket"}

// StoreError represents a storage error. It can be compared using
// errors.Is; validation failures match ErrInvalidTicket.
type StoreError struct {
	Message string
	invalid bool
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	if t == ErrInvalidTicket {
		return e.invalid || e == ErrInvalidTicket
	}
	return e.Message == t.Message
}

func invalidf(format string, args ...any) error {
	return &StoreError{Message: fmt.Sprintf(format, args...), invalid: true}
}

// =============================================================================
// HELPERS
// =============================================================================

// NewTicket builds an open, unassigned ticket with a fresh id and a
// priority derived from the issue text.
func NewTicket(name, issue string, now time.Time) (Ticket, error) {
	name = strings.TrimSpace(name)
	issue = strings.TrimSpace(issue)
	if name == "" {
		return Ticket{}, invalidf("name is required")
	}
	if issue == "" {
		return Ticket{}, invalidf("issue is required")
	}
	return Ticket{
		ID:       newTicketID(),
		Name:     name,
		Issue:    issue,
		Status:   StatusOpen,
		Created:  now.Format(CreatedLayout),
		Priority: ClassifyPriority(issue),
		Assigned: UnassignedName,
	}, nil
}

// newTicketID returns the first 8 characters of a random UUID.
func newTicketID() string {
	return uuid.New().String()[:8]
}

// ParseStatus validates a status name, ignoring case.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return StatusOpen, nil
	case "closed":
		return StatusClosed, nil
	}
	return "", invalidf("unknown status %q", s)
}

// ParsePriority validates a priority name, ignoring case.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	return "", invalidf("unknown priority %q", s)
}

// Validate normalizes the update in place.
func (u *TicketUpdate) Validate() error {
	p, err := ParsePriority(string(u.Priority))
	if err != nil {
		return err
	}
	st, err := ParseStatus(string(u.Status))
	if err != nil {
		return err
	}
	u.Priority, u.Status = p, st
	u.Issue = strings.TrimSpace(u.Issue)
	if u.Issue == "" {
		return invalidf("issue is required")
	}
	u.Assigned = strings.TrimSpace(u.Assigned)
	if u.Assigned == "" {
		u.Assigned = UnassignedName
	}
	return nil
}

// Apply copies the update onto t.
func (u TicketUpdate) Apply(t *Ticket) {
	t.Priority = u.Priority
	t.Issue = u.Issue
	t.Assigned = u.Assigned
	t.Status = u.Status
}

// Matches reports whether the ticket matches a lower-cased search query.
func (t Ticket) Matches(query string) bool {
	if query == "" {
		return true
	}
	for _, field := range []string{t.Name, t.Issue, string(t.Status), string(t.Priority), t.Assigned} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// ComputeStats counts tickets by status and priority.
func ComputeStats(tickets []Ticket) Stats {
	st := Stats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case StatusOpen:
			st.Open++
		case StatusClosed:
			st.Closed++
		}
		switch t.Priority {
		case PriorityHigh:
			st.High++
		case PriorityMedium:
			st.Medium++
		case PriorityLow:
			st.Low++
		}
	}
	return st
}

// filterTickets returns the tickets matching query.
func filterTickets(tickets []Ticket, query string) []Ticket {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Matches(q) {
			out = append(out, t)
		}
	}
	return out
}
