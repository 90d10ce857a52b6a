// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent drives the think/act orchestration loop.
//
// A Session owns one conversation with the model plus the collaborators a
// run needs: the tool registry, the confirmation gate, the action ledger,
// and the host's event callbacks. Run executes one task to completion:
//
//	Init → Thinking → (ToolFound | NoToolFound) → [Confirming] → Executing
//	     → Thinking ... | Answered | Budgeted | Errored
//
// Each Thinking step races the model call against a wall-clock deadline; a
// timeout or transport failure ends the Run without consuming budget, since
// no progress was made. A response that parses to a tool call is gated if
// destructive, executed, recorded in the ledger, and its output fed back to
// the model as a user-role message; a response with no tool call is the
// final answer. An iteration counter increments once per produced response
// and force-terminates the Run at the ceiling, which is the safety valve
// against a model retrying a failing tool forever.
//
// Tools execute strictly one at a time, in the order the model asks, because
// each output becomes input to the next Thinking step. Tool-level failures
// of any kind (unknown tool, execution error, sandbox violation) never
// terminate the Run; they are surfaced to the model as text on the theory
// that it can self-correct. Only model transport failures escape Run, as
// *TransportError.
//
// Run may be called repeatedly on one Session: the conversation accumulates
// across calls (multi-turn), while the iteration budget resets per call.
// There are no package-level singletons; every dependency is carried by the
// Session explicitly.
package agent
