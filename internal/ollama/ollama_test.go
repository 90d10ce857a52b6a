// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// newTestClient returns a client pointed at a mock server. The limiter is
// opened wide so tests never stall on the token bucket.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()

	server := httptest.NewServer(handler)
	client := NewClientWithConfig(&ClientConfig{
		BaseURL:           server.URL,
		DefaultModel:      "test-model",
		RequestsPerSecond: 1000,
		RequestBurst:      1000,
	})
	return server, client
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		role string
	}{
		{"system", NewSystemMessage("Be helpful"), "system"},
		{"user", NewUserMessage("Hello"), "user"},
		{"assistant", NewAssistantMessage("Hi there"), "assistant"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.msg.Role != tc.role {
				t.Errorf("Role = %q, want %q", tc.msg.Role, tc.role)
			}
			if tc.msg.Content == "" {
				t.Error("Content should not be empty")
			}
		})
	}
}

// =============================================================================
// CONFIGURATION TESTS
// =============================================================================

func TestNewClientWithConfig_FillsDefaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:9999"})

	cfg := client.config
	if cfg.BaseURL != "http://127.0.0.1:9999" {
		t.Errorf("BaseURL = %q, explicit value should survive", cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		t.Error("Timeout should be defaulted")
	}
	if cfg.DefaultModel == "" {
		t.Error("DefaultModel should be defaulted")
	}
	if cfg.RequestsPerSecond == 0 {
		t.Error("RequestsPerSecond should be defaulted")
	}
	if cfg.RequestBurst == 0 {
		t.Error("RequestBurst should be defaulted")
	}
}

func TestNewClientWithConfig_NilUsesDefaults(t *testing.T) {
	client := NewClientWithConfig(nil)

	if client.Model() != "qwen2.5-coder:14b" {
		t.Errorf("Model() = %q, want default model", client.Model())
	}
	if client.BaseURL() != "http://127.0.0.1:11434" {
		t.Errorf("BaseURL() = %q, want default URL", client.BaseURL())
	}
}

func TestNewClientWithConfig_LimiterConfigured(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{
		RequestsPerSecond: 7,
		RequestBurst:      3,
	})

	if client.limiter.Limit() != rate.Limit(7) {
		t.Errorf("limiter.Limit() = %v, want 7", client.limiter.Limit())
	}
	if client.limiter.Burst() != 3 {
		t.Errorf("limiter.Burst() = %d, want 3", client.limiter.Burst())
	}
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_DecodesResponse(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("Stream should be false")
		}
		if req.Model != "test-model" {
			t.Errorf("Model = %q, empty model should select the default", req.Model)
		}

		json.NewEncoder(w).Encode(ChatResponse{
			Model:   "test-model",
			Message: NewAssistantMessage("All done."),
			Done:    true,
		})
	})
	defer server.Close()

	resp, err := client.Chat(context.Background(), "", []Message{NewUserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if resp.Message.Role != "assistant" {
		t.Errorf("Message.Role = %q, want assistant", resp.Message.Role)
	}
	if resp.Message.Content != "All done." {
		t.Errorf("Message.Content = %q", resp.Message.Content)
	}
}

func TestChat_SendsModelAndOptions(t *testing.T) {
	var got ChatRequest
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ChatResponse{Done: true})
	})
	defer server.Close()

	opts := &Options{NumPredict: 512, Temperature: 0.2}
	if _, err := client.Chat(context.Background(), "other-model", []Message{NewUserMessage("go")}, opts); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if got.Model != "other-model" {
		t.Errorf("Model = %q, want other-model", got.Model)
	}
	if got.Options == nil {
		t.Fatal("Options should be forwarded")
	}
	if got.Options.NumPredict != 512 {
		t.Errorf("NumPredict = %d, want 512", got.Options.NumPredict)
	}
	if got.Options.Temperature != 0.2 {
		t.Errorf("Temperature = %f, want 0.2", got.Options.Temperature)
	}
}

func TestChat_ModelNotFound(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	})
	defer server.Close()

	_, err := client.Chat(context.Background(), "nope", []Message{NewUserMessage("hi")}, nil)
	if !IsModelNotFound(err) {
		t.Errorf("IsModelNotFound = false, err = %v", err)
	}
}

func TestChat_SurfacesServerErrorBody(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(OllamaError{Error: "model requires more system memory"})
	})
	defer server.Close()

	_, err := client.Chat(context.Background(), "", []Message{NewUserMessage("hi")}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "more system memory") {
		t.Errorf("err = %v, want the server's own message", err)
	}
}

func TestChat_ClassifiesContextExceeded(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(OllamaError{Error: "prompt exceeds the maximum context length"})
	})
	defer server.Close()

	_, err := client.Chat(context.Background(), "", []Message{NewUserMessage("hi")}, nil)
	if !IsContextExceeded(err) {
		t.Errorf("IsContextExceeded = false, err = %v", err)
	}
}

func TestChat_ServerDown(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.Chat(context.Background(), "", []Message{NewUserMessage("hi")}, nil)
	if !IsNotRunning(err) {
		t.Errorf("IsNotRunning = false, err = %v", err)
	}
}

func TestChat_ContextDeadline(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(ChatResponse{Done: true})
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, "", []Message{NewUserMessage("hi")}, nil)
	if !IsTimeout(err) {
		t.Errorf("IsTimeout = false, err = %v", err)
	}
}

// =============================================================================
// HEALTH CHECK TESTS
// =============================================================================

func TestCheckRunning(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	})
	defer server.Close()

	if err := client.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning failed: %v", err)
	}
}

func TestCheckRunning_Down(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	err := client.CheckRunning(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("IsNotRunning = false, err = %v", err)
	}
}

// =============================================================================
// MODEL OPERATION TESTS
// =============================================================================

func TestListModels(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ListModelsResponse{Models: []ModelInfo{
			{Name: "qwen2.5-coder:14b", Size: 9_000_000_000},
			{Name: "llama3:8b", Size: 4_700_000_000},
		}})
	})
	defer server.Close()

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}

	if len(models) != 2 {
		t.Fatalf("len(models) = %d, want 2", len(models))
	}
	if models[0].Name != "qwen2.5-coder:14b" {
		t.Errorf("models[0].Name = %q", models[0].Name)
	}
}

func TestModelExists(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ListModelsResponse{Models: []ModelInfo{
			{Name: "llama3:8b"},
			{Name: "mistral:latest"},
		}})
	})
	defer server.Close()

	tests := []struct {
		model string
		want  bool
	}{
		{"llama3:8b", true},
		{"mistral:latest", true},
		{"mistral", true}, // bare name matches its :latest tag
		{"missing:1b", false},
	}

	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			if got := client.ModelExists(context.Background(), tc.model); got != tc.want {
				t.Errorf("ModelExists(%q) = %v, want %v", tc.model, got, tc.want)
			}
		})
	}
}

func TestModelExists_ServerDown(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	if client.ModelExists(context.Background(), "llama3:8b") {
		t.Error("ModelExists should be false when the server is unreachable")
	}
}

// =============================================================================
// METRICS TESTS
// =============================================================================

func TestChatResponse_TokensPerSecond(t *testing.T) {
	tests := []struct {
		name         string
		evalCount    int
		evalDuration int64
		want         float64
	}{
		{"normal", 100, int64(time.Second), 100.0},
		{"zero duration", 100, 0, 0.0},
		{"fast", 1000, int64(100 * time.Millisecond), 10000.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := &ChatResponse{
				EvalCount:    tc.evalCount,
				EvalDuration: tc.evalDuration,
			}

			got := resp.TokensPerSecond()

			// Allow small floating point differences
			if tc.want != 0 && (got < tc.want*0.99 || got > tc.want*1.01) {
				t.Errorf("TokensPerSecond() = %f, want %f", got, tc.want)
			}
			if tc.want == 0 && got != 0 {
				t.Errorf("TokensPerSecond() = %f, want 0", got)
			}
		})
	}
}

func TestChatResponse_TotalTime(t *testing.T) {
	resp := &ChatResponse{
		TotalDuration: int64(2 * time.Second),
	}

	if resp.TotalTime() != 2*time.Second {
		t.Errorf("TotalTime() = %v, want 2s", resp.TotalTime())
	}
}

// =============================================================================
// MODEL INFO TESTS
// =============================================================================

func TestModelInfo_FormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1 MB"},
		{2 * 1024 * 1024 * 1024, "2 GB"},
		{7_700_000_000, "7.2 GB"},
	}

	for _, tc := range tests {
		m := &ModelInfo{Size: tc.size}
		if got := m.FormatSize(); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}

// =============================================================================
// ERROR TYPE TESTS
// =============================================================================

func TestClientError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: cause}

	if err.Error() != "request failed: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}

	bare := &ClientError{Type: ErrTypeUnknown, Message: "just a message"}
	if bare.Error() != "just a message" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !IsNotRunning(ErrNotRunning) {
		t.Error("IsNotRunning(ErrNotRunning) should be true")
	}
	if !IsTimeout(ErrTimeout) {
		t.Error("IsTimeout(ErrTimeout) should be true")
	}
	if !IsModelNotFound(ErrModelNotFound) {
		t.Error("IsModelNotFound(ErrModelNotFound) should be true")
	}
	if !IsContextExceeded(ErrContextExceeded) {
		t.Error("IsContextExceeded(ErrContextExceeded) should be true")
	}

	if IsTimeout(ErrNotRunning) {
		t.Error("IsTimeout(ErrNotRunning) should be false")
	}
	if IsModelNotFound(errors.New("plain error")) {
		t.Error("IsModelNotFound should be false for unrelated errors")
	}
}
