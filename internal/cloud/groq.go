// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import "strings"

const (
	// DefaultGroqURL is Groq's OpenAI-compatible completions endpoint.
	DefaultGroqURL = "https://api.groq.com/openai/v1/chat/completions"

	// DefaultGroqModel is used when no model is configured.
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// NewGroqClient creates the primary provider. An empty key yields a client
// whose calls fail with ConfigurationMissing.
func NewGroqClient(apiKey, modelName string) *Client {
	apiKey = strings.TrimSpace(apiKey)
	if modelName == "" {
		modelName = DefaultGroqModel
	}

	c := newClient(ProviderGroq, "Groq", DefaultGroqURL)
	c.model = modelName
	c.configured = apiKey != ""
	c.missingHint = "GROQ_API_KEY missing. Add it to your .env."
	c.headers.Set("Authorization", "Bearer "+apiKey)
	return c
}
