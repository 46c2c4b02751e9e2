// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultAzureAPIVersion is the chat-completions API version requested.
const DefaultAzureAPIVersion = "2024-02-15-preview"

// AzureSettings are the three required settings plus the optional API
// version.
type AzureSettings struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
}

// Complete reports whether all three required settings are present.
func (s AzureSettings) Complete() bool {
	return strings.TrimSpace(s.Endpoint) != "" &&
		strings.TrimSpace(s.APIKey) != "" &&
		strings.TrimSpace(s.Deployment) != ""
}

// URL builds the deployment completions URL.
func (s AzureSettings) URL() string {
	version := s.APIVersion
	if version == "" {
		version = DefaultAzureAPIVersion
	}
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		trimBase(s.Endpoint), url.PathEscape(strings.TrimSpace(s.Deployment)), url.QueryEscape(version))
}

// NewAzureClient creates the secondary provider. The model is selected by
// the deployment, so no model field is sent.
func NewAzureClient(s AzureSettings) *Client {
	c := newClient(ProviderAzure, "Azure OpenAI", s.URL())
	c.configured = s.Complete()
	c.missingHint = "Azure OpenAI env vars missing. Set AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY, AZURE_OPENAI_DEPLOYMENT."
	c.headers.Set("api-key", strings.TrimSpace(s.APIKey))
	return c
}
