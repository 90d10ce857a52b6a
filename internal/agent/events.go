// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"github.com/jeranaias/rigagent/internal/tools"
)

// =============================================================================
// LOOP EVENTS
// =============================================================================

// Events carries the host's observation callbacks. All fields are optional
// and fire-and-forget: the loop never reads a return value, and a nil Events
// or nil field is skipped. Callbacks run on the loop's goroutine, so they
// should return quickly; a slow callback stalls the session.
type Events struct {
	// OnThinking fires when a model call starts, with the 1-based iteration
	// number about to run.
	OnThinking func(iteration int)

	// OnApprovalRequest fires just before the gate is consulted for a
	// destructive call, with the call's full arguments. Hosts use it to
	// render a richer prompt than the one-line description the gate
	// callback receives. The approval callback runs on the same goroutine
	// immediately after, so a host may stash the args without locking
	// against the loop.
	OnApprovalRequest func(name string, args tools.Args)

	// OnToolExecuting fires just before a tool runs.
	OnToolExecuting func(name string)

	// OnToolResult fires after a tool returns, successful or not.
	OnToolResult func(result tools.Result)

	// OnFinalAnswer fires when the model replies with no tool call.
	OnFinalAnswer func(text string)

	// OnError fires with the user-facing text of a terminal condition:
	// a transport failure or an exhausted iteration budget.
	OnError func(text string)
}

// The emit helpers tolerate a nil receiver so the loop never branches on
// whether the host installed events.

func (e *Events) emitThinking(iteration int) {
	if e != nil && e.OnThinking != nil {
		e.OnThinking(iteration)
	}
}

func (e *Events) emitApprovalRequest(name string, args tools.Args) {
	if e != nil && e.OnApprovalRequest != nil {
		e.OnApprovalRequest(name, args)
	}
}

func (e *Events) emitToolExecuting(name string) {
	if e != nil && e.OnToolExecuting != nil {
		e.OnToolExecuting(name)
	}
}

func (e *Events) emitToolResult(result tools.Result) {
	if e != nil && e.OnToolResult != nil {
		e.OnToolResult(result)
	}
}

func (e *Events) emitFinalAnswer(text string) {
	if e != nil && e.OnFinalAnswer != nil {
		e.OnFinalAnswer(text)
	}
}

func (e *Events) emitError(text string) {
	if e != nil && e.OnError != nil {
		e.OnError(text)
	}
}
