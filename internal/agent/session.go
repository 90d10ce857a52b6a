// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigagent/internal/approve"
	"github.com/jeranaias/rigagent/internal/ledger"
	"github.com/jeranaias/rigagent/internal/parse"
	"github.com/jeranaias/rigagent/internal/tools"
)

// =============================================================================
// SESSION OPTIONS
// =============================================================================

// Default budgets. Options fields left zero take these.
const (
	DefaultMaxIterations = 20
	DefaultLLMTimeout    = 45 * time.Second
	DefaultMaxTokens     = 4096
	DefaultMaxToolOutput = 16384
)

// ActionObserver is notified after every tool execution, successful or not,
// with the completed ledger record, the parse strategy that produced the
// call, and the execution duration. Hosts use it to persist actions outside
// the in-memory ledger. Runs on the loop's goroutine.
type ActionObserver func(rec ledger.ActionRecord, strategy parse.Strategy, duration time.Duration)

// Options configures a Session. Registry and Complete are required;
// everything else has a working default.
type Options struct {
	// Registry dispatches tool calls. Required.
	Registry *tools.Registry

	// Complete sends conversations to the model. Required.
	Complete CompleteFunc

	// Gate confirms destructive calls. A nil gate, or a gate with no
	// approval callback, lets destructive calls execute unchecked.
	Gate *approve.Gate

	// Ledger records executed actions. Nil creates a fresh one. Passing a
	// shared ledger keeps undo history cumulative across sessions.
	Ledger *ledger.Ledger

	// Events receives loop observations. Optional.
	Events *Events

	// Observer receives completed action records. Optional.
	Observer ActionObserver

	// WorkDir is the sandbox root for file tools. Empty means the current
	// directory.
	WorkDir string

	// MaxIterations caps think/act cycles per Run.
	MaxIterations int

	// LLMTimeout is the wall-clock deadline per model response.
	LLMTimeout time.Duration

	// MaxTokens caps tokens per completion; -1 means unlimited.
	MaxTokens int

	// MaxToolOutput caps the bytes of tool output fed back into the
	// conversation; longer output is truncated. Negative disables the cap.
	MaxToolOutput int
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns one conversation with the model and everything a Run needs:
// the registry, gate, ledger, budgets, and event sinks. Construct one per
// user session and call Run for each task; the conversation accumulates
// across Runs so the model keeps its context, while iteration budgets reset
// per Run.
//
// A Session is a plain value with no global state behind it. It is not safe
// for concurrent Runs: one logical task at a time.
type Session struct {
	id       string
	registry *tools.Registry
	complete CompleteFunc
	gate     *approve.Gate
	ledger   *ledger.Ledger
	events   *Events
	observer ActionObserver
	workDir  string

	maxIterations int
	llmTimeout    time.Duration
	maxTokens     int
	maxToolOutput int

	conversation []Message
}

// NewSession creates a session from options, filling defaults for zero
// fields.
func NewSession(opts Options) (*Session, error) {
	if opts.Registry == nil {
		return nil, errors.New("agent: tool registry is required")
	}
	if opts.Complete == nil {
		return nil, errors.New("agent: complete function is required")
	}

	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.New("agent: cannot determine working directory: " + err.Error())
		}
		workDir = wd
	}

	led := opts.Ledger
	if led == nil {
		led = ledger.New()
	}

	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	llmTimeout := opts.LLMTimeout
	if llmTimeout <= 0 {
		llmTimeout = DefaultLLMTimeout
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	maxToolOutput := opts.MaxToolOutput
	if maxToolOutput == 0 {
		maxToolOutput = DefaultMaxToolOutput
	}

	return &Session{
		id:            uuid.NewString(),
		registry:      opts.Registry,
		complete:      opts.Complete,
		gate:          opts.Gate,
		ledger:        led,
		events:        opts.Events,
		observer:      opts.Observer,
		workDir:       workDir,
		maxIterations: maxIterations,
		llmTimeout:    llmTimeout,
		maxTokens:     maxTokens,
		maxToolOutput: maxToolOutput,
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// WorkDir returns the sandbox root file tools are confined to.
func (s *Session) WorkDir() string {
	return s.workDir
}

// Ledger returns the session's action ledger, for undo and summaries.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// Registry returns the session's tool registry.
func (s *Session) Registry() *tools.Registry {
	return s.registry
}

// Conversation returns a copy of the conversation so far.
func (s *Session) Conversation() []Message {
	out := make([]Message, len(s.conversation))
	copy(out, s.conversation)
	return out
}

// ClearConversation drops the conversation, including the system message,
// so the next Run starts fresh. The ledger is untouched: undo history
// survives a conversation reset.
func (s *Session) ClearConversation() {
	s.conversation = nil
}

// appendMessage adds one turn to the conversation.
func (s *Session) appendMessage(role Role, content string) {
	s.conversation = append(s.conversation, Message{Role: role, Content: content})
}
