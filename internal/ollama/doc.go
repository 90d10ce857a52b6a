// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// Callers consume whole responses and parse tool calls out of the reply
// text, so the client speaks only the non-streaming /api/chat endpoint:
// one request in, one decoded ChatResponse out. Errors are classified into
// a small taxonomy (ClientError carrying an ErrorType, plus sentinel
// values) so callers can tell "server not running" from "model missing"
// from "prompt no longer fits the context window" without matching strings.
//
// # Key Types
//
//   - Client: rate-limited HTTP client for the Ollama API
//   - Message: chat message with role and content
//   - ChatResponse: decoded reply with generation metrics
//   - ClientError: classified client error
//
// # Usage
//
// Create a client, make sure the server is up, and send a chat request:
//
//	client := ollama.NewClient()
//	if err := client.EnsureRunning(ctx); err != nil {
//	    ...
//	}
//	resp, err := client.Chat(ctx, "", []ollama.Message{
//	    ollama.NewUserMessage("Hello"),
//	}, nil)
//
// EnsureRunning tries to start a local "ollama serve" when the server is not
// already answering; the spawn is platform-specific and fully detached.
package ollama
