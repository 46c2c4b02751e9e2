// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the helpie command tree.
//
// # Commands
//
//	helpie serve [--port N]                 HTTP server (tickets + Helpie chat)
//	helpie chat [--plain]                   Terminal chat with Helpie
//	helpie render [file|-] [--markdown]     Normalize and render model output
//	helpie tickets list|add|show|update|close|stats
//	helpie transcripts list|show|delete|export  Conversations saved with /save
//	helpie config show|path|init|get|set|keys
//	helpie providers [--probe]              Provider status and fallback order
//
// Every command accepts --config to read a specific file instead of
// ~/.helpie/config.toml. Providers, the orchestrator and the ticket store
// are built from the loaded config in wiring.go, so the CLI and the server
// behave the same way.
package cli
