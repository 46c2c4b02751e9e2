// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved chat transcripts as Markdown, standalone
// HTML or JSON, for attaching a troubleshooting session to a ticket or an
// email.
//
// # Usage
//
//	exp, err := export.ForFormat("html", export.DefaultOptions())
//	path, err := export.ExportToFile(transcript, exp, opts)
//
// The HTML exporter reuses each assistant turn's stored fragment, so the
// page shows replies exactly as the chat widget did.
package export
