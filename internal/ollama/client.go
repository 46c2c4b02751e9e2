// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/helpie/internal/cloud"
	"github.com/jeranaias/helpie/internal/markup"
	"github.com/jeranaias/helpie/internal/model"
	"github.com/jeranaias/helpie/internal/util"
)

const providerName = "Ollama"

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL. Empty leaves the provider
	// unconfigured.
	BaseURL string

	// DefaultModel is the model used for chat. Empty leaves the provider
	// unconfigured.
	DefaultModel string

	// Timeout for a completion call (default: 45s)
	Timeout time.Duration

	// MaxTokens caps the reply length (default: 512)
	MaxTokens int

	// Temperature for sampling (default: 0.2)
	Temperature float64
}

// DefaultConfig returns a configuration pointing at a local server with no
// model selected.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:     "http://127.0.0.1:11434",
		Timeout:     cloud.DefaultTimeout,
		MaxTokens:   cloud.DefaultMaxTokens,
		Temperature: cloud.DefaultTemperature,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API. It is safe for
// concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClientWithConfig creates a client, filling zero values from
// DefaultConfig except BaseURL and DefaultModel.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = cloud.DefaultTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = cloud.DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = cloud.DefaultTemperature
	}

	return &Client{
		config:     &cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ID implements cloud.Provider.
func (c *Client) ID() cloud.ProviderID { return cloud.ProviderOllama }

// Name implements cloud.Provider.
func (c *Client) Name() string { return providerName }

// Configured reports whether both a server URL and a model are set.
func (c *Client) Configured() bool {
	return c.config.BaseURL != "" && c.config.DefaultModel != ""
}

// GetConfig returns the effective configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that Ollama is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", c.config.BaseURL, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from Ollama: %s", resp.Status)
	}
	return nil
}

// ListModels retrieves the installed models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama not reachable at %s: %w", c.config.BaseURL, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list models: %s", resp.Status)
	}
	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Models, nil
}

// =============================================================================
// CHAT
// =============================================================================

// Complete sends a non-streaming chat request and returns the sanitized
// reply. Failures are reported as *cloud.Error.
func (c *Client) Complete(ctx context.Context, messages []model.Message) (string, error) {
	if !c.Configured() {
		return "", &cloud.Error{
			Provider: cloud.ProviderOllama,
			Kind:     cloud.ConfigurationMissing,
			Message:  "Ollama settings missing. Set OLLAMA_URL and OLLAMA_MODEL.",
		}
	}

	body, err := json.Marshal(ChatRequest{
		Model:    c.config.DefaultModel,
		Messages: messages,
		Stream:   false,
		Options: &Options{
			Temperature: c.config.Temperature,
			NumPredict:  c.config.MaxTokens,
		},
	})
	if err != nil {
		return "", c.transportError(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", c.transportError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.transportError(err)
	}
	defer drainAndClose(resp.Body)
	log.Printf("PROVIDER_RESPONSE | provider=%s status=%d duration=%v", cloud.ProviderOllama, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, cloud.MaxResponseSize))
	if err != nil {
		return "", c.transportError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		detail := string(raw)
		var ollamaErr OllamaError
		if json.Unmarshal(raw, &ollamaErr) == nil && ollamaErr.Error != "" {
			detail = ollamaErr.Error
		}
		return "", &cloud.Error{
			Provider: cloud.ProviderOllama,
			Kind:     cloud.UpstreamHTTPError,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("%s error: %d %s", providerName, resp.StatusCode, util.TruncateRunesNoEllipsis(detail, 200)),
		}
	}

	var result ChatResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", c.transportError(fmt.Errorf("failed to decode response: %w", err))
	}
	if result.Message.Content == "" && !result.Done {
		return "", c.transportError(errors.New("response contained no message"))
	}
	return markup.Sanitize(result.Message.Content), nil
}

func (c *Client) transportError(err error) *cloud.Error {
	return &cloud.Error{
		Provider: cloud.ProviderOllama,
		Kind:     cloud.UpstreamTransportError,
		Message:  fmt.Sprintf("%s exception: %v", providerName, err),
		Err:      err,
	}
}

// drainAndClose drains the body so the connection can be reused.
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(r, 4096))
	r.Close()
}
