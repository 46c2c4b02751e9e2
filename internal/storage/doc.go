// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides helpdesk persistence: the ticket store and saved
// chat transcripts.
//
// # Key Types
//
//   - TicketStore: CRUD interface for tickets
//   - JSONTicketStore: one JSON array file, rewritten atomically
//   - SQLiteTicketStore: the same data in a SQLite table
//   - TranscriptStore: saved chat sessions from the terminal client
//
// # Usage
//
//	store, err := storage.OpenTicketStore(storage.BackendJSON, "data/tickets.json")
//	t, err := store.Create("Dana", "Email is down for the whole floor")
//	// t.Priority == storage.PriorityHigh
//
// # Storage Location
//
// Tickets default to data/tickets.json relative to the working directory.
// Transcripts are stored in ~/.helpie/transcripts/ as JSON files.
package storage
