// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides an opt-in local generation provider backed by an
// Ollama server's native /api/chat endpoint.
//
// The client satisfies cloud.Provider, so it can be listed in the provider
// preference next to the hosted ones:
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL:      "http://127.0.0.1:11434",
//	    DefaultModel: "llama3.2",
//	})
//	text, err := client.Complete(ctx, messages)
package ollama
