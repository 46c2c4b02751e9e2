// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session keeps one conversation per chat session.
//
// Sessions are identified by an opaque id (carried in the helpie_session
// cookie by the HTTP server). Opening a session always discards any prior
// transcript and seeds the greeting turn. Idle sessions are swept after a
// timeout so the map cannot grow without bound.
//
// # Key Types
//
//   - Store: session id to conversation map with idle expiry
//   - Config: idle timeout, capacity and sweep interval
//   - Status: a snapshot of one session for diagnostics
//
// # Usage
//
//	store := session.NewStore(session.DefaultConfig(), greeting)
//	go store.Run(ctx)
//	id, conv := store.Open(cookieValue)
package session
