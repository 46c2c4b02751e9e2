// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the helpdesk HTTP API.
//
// # Endpoints
//
//   - GET  /                       - Dashboard ticket counters
//   - GET  /tickets?search=        - List or search tickets
//   - POST /tickets                - Create a ticket (form or JSON)
//   - GET  /tickets/edit/{id}      - Ticket plus assignable technicians
//   - POST /tickets/edit/{id}      - Update a ticket
//   - POST /tickets/close/{id}     - Close a ticket (GET kept for old links)
//   - GET  /helpie                 - Start a fresh assistant conversation
//   - POST /helpie/chat            - Send one message to the assistant
//   - GET  /health                 - Health check
//   - GET  /azure                  - Retired, always 410
//
// # Middleware
//
// Every request passes through panic recovery, security headers, access
// logging and per-IP rate limiting, in that order.
//
// # Usage
//
//	srv := server.NewServer(5000, tickets, sessions, orchestrator).
//		WithGateway(gateway)
//	go sessions.Run(ctx)
//	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
//		log.Fatal(err)
//	}
package server
