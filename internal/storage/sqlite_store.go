// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultTicketsDBPath is the default SQLite database location.
const DefaultTicketsDBPath = "data/tickets.db"

// ticketSchema creates the tickets table. seq keeps creation order stable
// for tickets created within the same minute.
const ticketSchema = `
CREATE TABLE IF NOT EXISTS tickets (
    seq      INTEGER PRIMARY KEY AUTOINCREMENT,
    id       TEXT NOT NULL UNIQUE,
    name     TEXT NOT NULL,
    issue    TEXT NOT NULL,
    status   TEXT NOT NULL,
    created  TEXT NOT NULL,
    priority TEXT NOT NULL,
    assigned TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
`

const ticketColumns = "id, name, issue, status, created, priority, assigned"

// =============================================================================
// SQLITE TICKET STORE
// =============================================================================

// SQLiteTicketStore keeps tickets in a SQLite table.
type SQLiteTicketStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteTicketStore opens or creates the database at path.
func NewSQLiteTicketStore(path string) (*SQLiteTicketStore, error) {
	if path == "" {
		path = DefaultTicketsDBPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(ticketSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteTicketStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteTicketStore) Path() string {
	return s.path
}

func scanTicket(row interface{ Scan(...any) error }) (Ticket, error) {
	var t Ticket
	var status, priority string
	if err := row.Scan(&t.ID, &t.Name, &t.Issue, &status, &t.Created, &priority, &t.Assigned); err != nil {
		return Ticket{}, err
	}
	t.Status = Status(status)
	t.Priority = Priority(priority)
	return t, nil
}

func (s *SQLiteTicketStore) query(q string, args ...any) ([]Ticket, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	tickets := []Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// List returns all tickets in creation order.
func (s *SQLiteTicketStore) List() ([]Ticket, error) {
	return s.query("SELECT " + ticketColumns + " FROM tickets ORDER BY seq")
}

// Create classifies and inserts a new ticket.
func (s *SQLiteTicketStore) Create(name, issue string) (Ticket, error) {
	t, err := NewTicket(name, issue, s.now())
	if err != nil {
		return Ticket{}, err
	}
	_, err = s.db.Exec(
		"INSERT INTO tickets ("+ticketColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Name, t.Issue, string(t.Status), t.Created, string(t.Priority), t.Assigned,
	)
	if err != nil {
		return Ticket{}, fmt.Errorf("insert ticket: %w", err)
	}
	return t, nil
}

// Get returns the ticket with the given id.
func (s *SQLiteTicketStore) Get(id string) (Ticket, error) {
	row := s.db.QueryRow("SELECT "+ticketColumns+" FROM tickets WHERE id = ?", id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Ticket{}, ErrTicketNotFound
	}
	if err != nil {
		return Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

// Search filters tickets by a case-insensitive substring query. Matching
// happens in Go so both backends share one definition of a match.
func (s *SQLiteTicketStore) Search(query string) ([]Ticket, error) {
	tickets, err := s.List()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return tickets, nil
	}
	return filterTickets(tickets, query), nil
}

// Close marks the ticket closed. Unknown ids are ignored.
func (s *SQLiteTicketStore) Close(id string) error {
	if _, err := s.db.Exec("UPDATE tickets SET status = ? WHERE id = ?", string(StatusClosed), id); err != nil {
		return fmt.Errorf("close ticket: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a ticket.
func (s *SQLiteTicketStore) Update(id string, upd TicketUpdate) (Ticket, error) {
	if err := upd.Validate(); err != nil {
		return Ticket{}, err
	}
	res, err := s.db.Exec(
		"UPDATE tickets SET priority = ?, issue = ?, assigned = ?, status = ? WHERE id = ?",
		string(upd.Priority), upd.Issue, upd.Assigned, string(upd.Status), id,
	)
	if err != nil {
		return Ticket{}, fmt.Errorf("update ticket: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Ticket{}, ErrTicketNotFound
	}
	return s.Get(id)
}

// Stats counts tickets by status and priority.
func (s *SQLiteTicketStore) Stats() (Stats, error) {
	var st Stats
	row := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(status = ?), 0),
			COALESCE(SUM(status = ?), 0),
			COALESCE(SUM(priority = ?), 0),
			COALESCE(SUM(priority = ?), 0),
			COALESCE(SUM(priority = ?), 0)
		FROM tickets`,
		string(StatusOpen), string(StatusClosed),
		string(PriorityHigh), string(PriorityMedium), string(PriorityLow),
	)
	if err := row.Scan(&st.Total, &st.Open, &st.Closed, &st.High, &st.Medium, &st.Low); err != nil {
		return Stats{}, fmt.Errorf("ticket stats: %w", err)
	}
	return st, nil
}

// Shutdown closes the database.
func (s *SQLiteTicketStore) Shutdown() error {
	return s.db.Close()
}
