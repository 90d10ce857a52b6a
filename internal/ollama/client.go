// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeContextExceeded
	ErrTypeConnection
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning      = &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running"}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrModelNotFound   = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
	ErrContextExceeded = &ClientError{Type: ErrTypeContextExceeded, Message: "context window exceeded"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://127.0.0.1:11434)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6 resolution issues on Windows
	BaseURL string

	// Timeout is the transport backstop for a single request (default: 2m).
	// Callers that need a tighter response deadline pass their own context;
	// this only keeps a wedged connection from pinning a goroutine forever.
	Timeout time.Duration

	// DefaultModel to use if none specified (default: "qwen2.5-coder:14b")
	DefaultModel string

	// RequestsPerSecond caps the sustained request rate against the local
	// server (default: 2). Guards against tight request loops, not load.
	RequestsPerSecond float64

	// RequestBurst is the token bucket depth (default: 10).
	RequestBurst int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "http://127.0.0.1:11434",
		Timeout:           2 * time.Minute,
		DefaultModel:      "qwen2.5-coder:14b",
		RequestsPerSecond: 2,
		RequestBurst:      10,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API.
// It provides methods for health checks, model listing, and chat requests.
//
// The Client is thread-safe for concurrent use. Chat requests pass through a
// token-bucket limiter so a misbehaving caller cannot hammer the local server.
//
// Example:
//
//	client := ollama.NewClient()
//	if err := client.EnsureRunning(ctx); err != nil {
//	    log.Fatal("Ollama not available:", err)
//	}
//	resp, err := client.Chat(ctx, "", messages, nil)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Ollama client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "qwen2.5-coder:14b"
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 2
	}
	if config.RequestBurst == 0 {
		config.RequestBurst = 10
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.RequestBurst),
	}
}

// Model returns the configured default model.
func (c *Client) Model() string {
	return c.config.DefaultModel
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that Ollama is reachable and running.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "unexpected status from Ollama: " + resp.Status,
		}
	}

	return nil
}

// EnsureRunning checks that Ollama is reachable and attempts to start the
// server process if it is not. Returns nil once the server answers.
// The spawn is platform-specific (see start_unix.go and start_windows.go).
func (c *Client) EnsureRunning(ctx context.Context) error {
	if err := c.CheckRunning(ctx); err == nil {
		return nil
	}
	return c.startServer(ctx)
}

// waitForServer polls the health endpoint until a freshly spawned server
// answers, for up to ten seconds.
func (c *Client) waitForServer(ctx context.Context, path string) error {
	fmt.Fprintf(os.Stderr, "Starting Ollama...\n")

	deadline := time.Now().Add(10 * time.Second)
	var lastErr error

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return &ClientError{Type: ErrTypeConnection, Message: "Ollama startup cancelled", Cause: ctx.Err()}
		default:
		}

		checkCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		lastErr = c.CheckRunning(checkCtx)
		cancel()

		if lastErr == nil {
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}

	return &ClientError{
		Type:    ErrTypeConnection,
		Message: "Ollama started but not responding after 10 seconds (path: " + path + ")",
		Cause:   lastErr,
	}
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// ListModels retrieves all locally installed models from Ollama.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: "failed to list models: " + resp.Status,
		}
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return result.Models, nil
}

// ModelExists reports whether a model is installed locally.
// A bare name matches its ":latest" tag.
func (c *Client) ModelExists(ctx context.Context, model string) bool {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		if m.Name == model || strings.TrimSuffix(m.Name, ":latest") == model {
			return true
		}
	}
	return false
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends a non-streaming chat request and returns the decoded response.
// An empty model selects the configured default; opts may be nil.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, opts *Options) (*ChatResponse, error) {
	if model == "" {
		model = c.config.DefaultModel
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ClientError{Type: ErrTypeTimeout, Message: "request rate limit wait interrupted", Cause: err}
	}

	reqBody := ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  opts,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrModelNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, chatStatusError(resp)
	}

	var result ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return &result, nil
}

// chatStatusError turns a non-200 chat response into a classified error,
// preferring the server's own message body when it decodes.
func chatStatusError(resp *http.Response) error {
	var ollamaErr OllamaError
	if err := json.NewDecoder(resp.Body).Decode(&ollamaErr); err == nil && ollamaErr.Error != "" {
		if isContextExceeded(ollamaErr.Error) {
			return &ClientError{Type: ErrTypeContextExceeded, Message: ollamaErr.Error}
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: ollamaErr.Error}
	}
	return &ClientError{
		Type:    ErrTypeInvalidResponse,
		Message: "chat request failed: " + resp.Status,
	}
}

// isContextExceeded matches the server messages emitted when a prompt no
// longer fits the model's context window.
func isContextExceeded(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "context length") || strings.Contains(lower, "context window")
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// IsModelNotFound checks if an error is a model not found error.
func IsModelNotFound(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeModelNotFound
	}
	return errors.Is(err, ErrModelNotFound)
}

// IsNotRunning checks if an error indicates Ollama is not running.
func IsNotRunning(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNotRunning
	}
	return errors.Is(err, ErrNotRunning)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsContextExceeded checks if an error means the prompt outgrew the model's
// context window.
func IsContextExceeded(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeContextExceeded
	}
	return errors.Is(err, ErrContextExceeded)
}
