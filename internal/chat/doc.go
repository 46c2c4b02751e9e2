// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs one troubleshooting turn end to end.
//
// A turn validates the user's message, builds the generation request from
// the system prompt plus the last 15 stored turns, asks the gateway for a
// reply, renders it, and only then appends the user and assistant turns to
// the conversation. A failed turn leaves the conversation untouched.
//
// # Usage
//
//	orch := chat.NewOrchestrator(gateway).WithPreference(pref)
//	doc, err := orch.HandleTurn(ctx, conv, "my laptop won't charge")
//	var cerr *chat.Error
//	if errors.As(err, &cerr) {
//	    // cerr.Message is safe to show to the user
//	}
package chat
