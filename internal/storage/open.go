// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"
)

// Backend names a ticket storage implementation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendJSON:
		return BackendJSON, nil
	case BackendSQLite:
		return BackendSQLite, nil
	}
	return "", fmt.Errorf("unknown ticket backend %q (want json or sqlite)", s)
}

// OpenTicketStore opens the named backend at path.
func OpenTicketStore(backend Backend, path string) (TicketStore, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONTicketStore(path)
	case BackendSQLite:
		return NewSQLiteTicketStore(path)
	}
	return nil, fmt.Errorf("unknown ticket backend %q", backend)
}

var (
	_ TicketStore = (*JSONTicketStore)(nil)
	_ TicketStore = (*SQLiteTicketStore)(nil)
)
