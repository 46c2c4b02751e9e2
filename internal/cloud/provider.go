// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jeranaias/helpie/internal/model"
)

// ProviderID names a generation provider in preference lists and config.
type ProviderID string

const (
	ProviderGroq       ProviderID = "groq"
	ProviderAzure      ProviderID = "azure"
	ProviderOpenRouter ProviderID = "openrouter"
	ProviderOllama     ProviderID = "ollama"
)

// KnownProviders lists every provider id helpie can build.
var KnownProviders = []ProviderID{ProviderGroq, ProviderAzure, ProviderOpenRouter, ProviderOllama}

// ParseProviderID validates a provider name from config or flags.
func ParseProviderID(s string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownProviders {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Provider turns a message list into reply text.
//
// Complete returns the sanitized reply or a *Error. When Configured reports
// false, Complete must fail with ConfigurationMissing without touching the
// network.
type Provider interface {
	ID() ProviderID
	Name() string
	Configured() bool
	Complete(ctx context.Context, messages []model.Message) (string, error)
}

// MaskKey renders a secret for display without exposing any of its
// characters.
func MaskKey(key string) string {
	if key == "" {
		return "[not set]"
	}
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(key), hex.EncodeToString(h[:4]))
}
