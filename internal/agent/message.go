// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem carries the tool catalogue and usage rules. Inserted once,
	// first in the conversation.
	RoleSystem Role = "system"

	// RoleUser carries the user's task and, synthetically, tool outputs and
	// cancellation notices fed back to the model.
	RoleUser Role = "user"

	// RoleAssistant carries model replies.
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation. The sequence is append-only
// within a session.
type Message struct {
	Role    Role
	Content string
}

// =============================================================================
// MODEL COMPLETION CONTRACT
// =============================================================================

// Completion is the outcome of one model call.
type Completion struct {
	// Succeeded reports whether the model produced a reply.
	Succeeded bool

	// Content is the model's reply text when Succeeded.
	Content string

	// Err describes the transport failure when not Succeeded.
	Err error
}

// CompleteFunc sends a conversation to the model and returns its reply.
// maxTokens caps the reply length; -1 means unlimited. The loop races each
// call against its own wall-clock deadline and abandons calls that lose, so
// implementations must enforce a transport-level timeout of their own.
type CompleteFunc func(messages []Message, maxTokens int) Completion
