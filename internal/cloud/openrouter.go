// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import "strings"

const (
	// DefaultOpenRouterURL is OpenRouter's completions endpoint.
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultOpenRouterModel is a free-tier model used when none is set.
	DefaultOpenRouterModel = "deepseek/deepseek-chat-v3-0324:free"

	openRouterReferer = "https://example.com"
	openRouterTitle   = "Helpie AI Troubleshooter"
)

// NewOpenRouterClient creates the tertiary provider.
func NewOpenRouterClient(apiKey, modelName string) *Client {
	apiKey = strings.TrimSpace(apiKey)
	if modelName == "" {
		modelName = DefaultOpenRouterModel
	}

	c := newClient(ProviderOpenRouter, "OpenRouter", DefaultOpenRouterURL)
	c.model = modelName
	c.configured = apiKey != ""
	c.missingHint = "OpenRouter API key missing. Set OPENROUTER_API_KEY (or switch AI_PROVIDER=groq)."
	c.headers.Set("Authorization", "Bearer "+apiKey)
	c.headers.Set("HTTP-Referer", openRouterReferer)
	c.headers.Set("X-Title", openRouterTitle)
	return c
}
