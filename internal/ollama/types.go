// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message represents a chat message in the conversation.
//
// The agent drives tool use through plain text: the model announces calls in
// its reply and receives results as user messages. There is no tool_calls
// field; roles are limited to system, user, and assistant.
type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // The message content
}

// ChatRequest is the request body for the /api/chat endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`             // Model name (e.g., "qwen2.5-coder:14b")
	Messages []Message `json:"messages"`          // Conversation history
	Stream   bool      `json:"stream"`            // Always false: callers consume whole replies
	Options  *Options  `json:"options,omitempty"` // Model parameters
}

// Options contains model parameters for inference.
type Options struct {
	Temperature   float64  `json:"temperature,omitempty"`    // 0.0-2.0, default 0.8
	TopK          int      `json:"top_k,omitempty"`          // Default 40
	TopP          float64  `json:"top_p,omitempty"`          // 0.0-1.0, default 0.9
	RepeatPenalty float64  `json:"repeat_penalty,omitempty"` // Default 1.1
	NumCtx        int      `json:"num_ctx,omitempty"`        // Context window size
	NumPredict    int      `json:"num_predict,omitempty"`    // Max tokens to generate, -1 for unlimited
	Stop          []string `json:"stop,omitempty"`           // Stop sequences
	Seed          int      `json:"seed,omitempty"`           // Random seed
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is the response from the /api/chat endpoint.
type ChatResponse struct {
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	Message            Message   `json:"message"`
	Done               bool      `json:"done"`
	DoneReason         string    `json:"done_reason,omitempty"`
	TotalDuration      int64     `json:"total_duration,omitempty"`       // nanoseconds
	LoadDuration       int64     `json:"load_duration,omitempty"`        // nanoseconds
	PromptEvalCount    int       `json:"prompt_eval_count,omitempty"`    // number of tokens in prompt
	PromptEvalDuration int64     `json:"prompt_eval_duration,omitempty"` // nanoseconds
	EvalCount          int       `json:"eval_count,omitempty"`           // number of tokens generated
	EvalDuration       int64     `json:"eval_duration,omitempty"`        // nanoseconds
}

// =============================================================================
// MODEL TYPES
// =============================================================================

// ModelInfo describes one locally installed model.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

// ListModelsResponse is the response from the /api/tags endpoint.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// OllamaError is the error body the server returns on non-200 responses.
type OllamaError struct {
	Error string `json:"error"`
}

// =============================================================================
// HELPER METHODS
// =============================================================================

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// TokensPerSecond calculates the generation speed from a response.
func (r *ChatResponse) TokensPerSecond() float64 {
	if r.EvalDuration == 0 {
		return 0
	}
	seconds := float64(r.EvalDuration) / 1e9
	return float64(r.EvalCount) / seconds
}

// TotalTime returns the total generation time.
func (r *ChatResponse) TotalTime() time.Duration {
	return time.Duration(r.TotalDuration)
}

// FormatSize formats the model size in human-readable form.
func (m *ModelInfo) FormatSize() string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)

	switch {
	case m.Size >= gb:
		return formatScaled(float64(m.Size)/gb) + " GB"
	case m.Size >= mb:
		return formatScaled(float64(m.Size)/mb) + " MB"
	case m.Size >= kb:
		return formatScaled(float64(m.Size)/kb) + " KB"
	default:
		return strconv.FormatInt(m.Size, 10) + " B"
	}
}

// formatScaled renders with one decimal place, dropping a trailing ".0".
func formatScaled(f float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(f, 'f', 1, 64), ".0")
}
