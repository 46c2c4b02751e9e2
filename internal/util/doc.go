// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across helpie.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - WriteJSONFile: indented JSON written through AtomicWriteFile
//
// String Utilities:
//   - TruncateRunes, TruncateRunesNoEllipsis: UTF-8 safe truncation
//   - PadWidth, TruncateWidth: display-width aware column helpers
//
// # Usage
//
//	// Persist the ticket list without risking a half-written file
//	err := util.WriteJSONFile(path, tickets, "    ", 0644)
//
//	// Clip an upstream error body for a log line
//	msg := util.TruncateRunesNoEllipsis(body, 200)
package util
