// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/helpie/internal/markup"
	"github.com/jeranaias/helpie/internal/model"
	"github.com/jeranaias/helpie/internal/util"
)

// Request defaults shared by every hosted provider.
const (
	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 45 * time.Second

	// DefaultMaxTokens caps the reply length.
	DefaultMaxTokens = 512

	// DefaultTemperature keeps troubleshooting steps predictable.
	DefaultTemperature = 0.2

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// errorBodyLimit is how much of a failed response body is quoted back.
	errorBodyLimit = 200
)

// sharedTransport pools connections across all provider clients.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the chat-completions request body. Model is omitted for
// deployments that encode the model in the URL (Azure).
type ChatRequest struct {
	Model       string          `json:"model,omitempty"`
	Messages    []model.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

// ChatResponse is the subset of the chat-completions response helpie reads.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    model.Role `json:"role"`
			Content *string    `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Reported when a 200 response carries no reply. Azure answers with a null
// content when its content filter fires.
var (
	errNoChoices = errors.New("response contained no choices")
	errNoContent = errors.New("response contained no content")
)

// GetContent returns the content of the first choice.
func (r *ChatResponse) GetContent() (string, error) {
	if len(r.Choices) == 0 {
		return "", errNoChoices
	}
	choice := r.Choices[0]
	if choice.Message.Content == nil || *choice.Message.Content == "" {
		if choice.FinishReason != "" {
			return "", fmt.Errorf("%w (finish_reason=%s)", errNoContent, choice.FinishReason)
		}
		return "", errNoContent
	}
	return *choice.Message.Content, nil
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is an OpenAI-compatible chat-completions binding. Use the
// provider constructors (NewGroqClient, NewAzureClient,
// NewOpenRouterClient) rather than building one directly.
type Client struct {
	id          ProviderID
	name        string
	endpoint    string
	model       string
	headers     http.Header
	configured  bool
	missingHint string

	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

func newClient(id ProviderID, name, endpoint string) *Client {
	return &Client{
		id:          id,
		name:        name,
		endpoint:    endpoint,
		headers:     make(http.Header),
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
	}
}

// WithEndpoint overrides the full completions URL.
func (c *Client) WithEndpoint(url string) *Client {
	c.endpoint = url
	return c
}

// WithTimeout sets the per-call timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithMaxTokens sets the reply length cap.
func (c *Client) WithMaxTokens(n int) *Client {
	if n > 0 {
		c.maxTokens = n
	}
	return c
}

// WithTemperature sets the sampling temperature.
func (c *Client) WithTemperature(t float64) *Client {
	c.temperature = t
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// ID returns the provider id.
func (c *Client) ID() ProviderID { return c.id }

// Name returns the provider display name used in error messages.
func (c *Client) Name() string { return c.name }

// Model returns the model sent with each request (empty for Azure).
func (c *Client) Model() string { return c.model }

// Endpoint returns the completions URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Configured reports whether all required settings are present.
func (c *Client) Configured() bool { return c.configured }

// Complete sends messages and returns the sanitized reply text.
func (c *Client) Complete(ctx context.Context, messages []model.Message) (string, error) {
	if !c.configured {
		return "", &Error{Provider: c.id, Kind: ConfigurationMissing, Message: c.missingHint}
	}

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", newTransportError(c.id, c.name, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", newTransportError(c.id, c.name, fmt.Errorf("failed to create request: %w", err))
	}
	c.setHeaders(req)
	c.logRequest(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newTransportError(c.id, c.name, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return "", newTransportError(c.id, c.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", newHTTPError(c.id, c.name, resp.StatusCode, util.TruncateRunesNoEllipsis(string(body), errorBodyLimit))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", newTransportError(c.id, c.name, fmt.Errorf("failed to parse response: %w", err))
	}
	content, err := chatResp.GetContent()
	if err != nil {
		return "", newTransportError(c.id, c.name, err)
	}
	return markup.Sanitize(content), nil
}

// setHeaders applies the provider's auth and metadata headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "helpie/1.0")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
}

// logRequest logs method and path. Headers carry credentials and bodies
// carry user text, so neither is logged.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("PROVIDER_REQUEST | provider=%s method=%s path=%s", c.id, req.Method, req.URL.Path)
}

// logResponse logs status and duration only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("PROVIDER_RESPONSE | provider=%s status=%d duration=%v", c.id, resp.StatusCode, duration.Round(time.Millisecond))
}

// readResponse reads the response body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// trimBase strips trailing slashes from a configured base URL.
func trimBase(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}
