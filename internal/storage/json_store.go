// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jeranaias/helpie/internal/util"
)

// DefaultTicketsPath is where tickets live when nothing else is configured.
const DefaultTicketsPath = "data/tickets.json"

// =============================================================================
// JSON TICKET STORE
// =============================================================================

// JSONTicketStore keeps every ticket in one JSON array file. Each mutation
// reads the file, applies the change and rewrites it atomically under a
// process-wide lock.
type JSONTicketStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewJSONTicketStore creates a store backed by path. The file is created
// lazily on the first write; a missing file reads as an empty list.
func NewJSONTicketStore(path string) (*JSONTicketStore, error) {
	if path == "" {
		path = DefaultTicketsPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create tickets directory: %w", err)
	}
	return &JSONTicketStore{path: path, now: time.Now}, nil
}

// Path returns the backing file path.
func (s *JSONTicketStore) Path() string {
	return s.path
}

// load reads all tickets. Caller holds s.mu.
func (s *JSONTicketStore) load() ([]Ticket, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Ticket{}, nil
		}
		return nil, err
	}
	var tickets []Ticket
	if len(data) == 0 {
		return []Ticket{}, nil
	}
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if tickets == nil {
		tickets = []Ticket{}
	}
	return tickets, nil
}

// save rewrites the file. Caller holds s.mu.
func (s *JSONTicketStore) save(tickets []Ticket) error {
	return util.WriteJSONFile(s.path, tickets, "    ", 0644)
}

// List returns all tickets in creation order.
func (s *JSONTicketStore) List() ([]Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Create classifies and appends a new ticket.
func (s *JSONTicketStore) Create(name, issue string) (Ticket, error) {
	t, err := NewTicket(name, issue, s.now())
	if err != nil {
		return Ticket{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load()
	if err != nil {
		return Ticket{}, err
	}
	tickets = append(tickets, t)
	if err := s.save(tickets); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// Get returns the ticket with the given id.
func (s *JSONTicketStore) Get(id string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load()
	if err != nil {
		return Ticket{}, err
	}
	for _, t := range tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return Ticket{}, ErrTicketNotFound
}

// Search filters tickets by a case-insensitive substring query.
func (s *JSONTicketStore) Search(query string) ([]Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load()
	if err != nil {
		return nil, err
	}
	return filterTickets(tickets, query), nil
}

// Close marks the ticket closed. Unknown ids are ignored.
func (s *JSONTicketStore) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load()
	if err != nil {
		return err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			tickets[i].Status = StatusClosed
			return s.save(tickets)
		}
	}
	return nil
}

// Update replaces the editable fields of a ticket.
func (s *JSONTicketStore) Update(id string, upd TicketUpdate) (Ticket, error) {
	if err := upd.Validate(); err != nil {
		return Ticket{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load()
	if err != nil {
		return Ticket{}, err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			upd.Apply(&tickets[i])
			if err := s.save(tickets); err != nil {
				return Ticket{}, err
			}
			return tickets[i], nil
		}
	}
	return Ticket{}, ErrTicketNotFound
}

// Stats counts tickets by status and priority.
func (s *JSONTicketStore) Stats() (Stats, error) {
	tickets, err := s.List()
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(tickets), nil
}

// Shutdown is a no-op; the file is closed after every operation.
func (s *JSONTicketStore) Shutdown() error {
	return nil
}
