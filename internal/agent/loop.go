// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/jeranaias/rigagent/internal/approve"
	"github.com/jeranaias/rigagent/internal/ledger"
	"github.com/jeranaias/rigagent/internal/parse"
	"github.com/jeranaias/rigagent/internal/tools"
	"github.com/jeranaias/rigagent/internal/util"
)

// =============================================================================
// RUN OUTCOMES
// =============================================================================

// RunOutcome classifies how a Run ended.
type RunOutcome int

const (
	// OutcomeAnswered means the model replied with no tool call; the reply
	// is the final answer.
	OutcomeAnswered RunOutcome = iota

	// OutcomeBudgeted means the iteration ceiling was reached before the
	// model finished; the task may be incomplete.
	OutcomeBudgeted

	// OutcomeErrored means a model call failed or timed out.
	OutcomeErrored
)

// String returns a stable identifier for logging.
func (o RunOutcome) String() string {
	switch o {
	case OutcomeBudgeted:
		return "budgeted"
	case OutcomeErrored:
		return "errored"
	default:
		return "answered"
	}
}

// RunResult is what one Run produced.
type RunResult struct {
	// Answer is the final answer, or the user-facing text of a budget or
	// transport termination.
	Answer string

	// Outcome classifies the termination.
	Outcome RunOutcome

	// Iterations counts the thinking cycles that produced a model response.
	Iterations int
}

// TransportError reports a failed or timed-out model call. It is the only
// error class that terminates a Run: tool-level failures are fed back to the
// model as text instead.
type TransportError struct {
	Message string
	Cause   error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// ORCHESTRATION LOOP
// =============================================================================

// Run executes one task: it seeds the conversation on first use, then loops
// think → parse → (confirm) → execute → observe until the model answers
// without a tool call, the iteration budget runs out, or a model call fails.
//
// The returned error is non-nil only for transport failures (a
// *TransportError); budget exhaustion and every tool-level failure are
// normal results. RunResult is always populated.
func (s *Session) Run(ctx context.Context, task string) (RunResult, error) {
	if len(s.conversation) == 0 {
		s.appendMessage(RoleSystem, BuildSystemPrompt(s.registry))
	}
	s.appendMessage(RoleUser, task)

	iterations := 0
	for {
		if iterations >= s.maxIterations {
			msg := "Stopped after " + util.IntToString(s.maxIterations) +
				" iterations; the task may be incomplete. Review what was done with the action summary, or rephrase the request."
			s.events.emitError(msg)
			return RunResult{Answer: msg, Outcome: OutcomeBudgeted, Iterations: iterations}, nil
		}

		s.events.emitThinking(iterations + 1)
		completion, err := s.think(ctx)
		if err != nil {
			// No response was produced, so no budget is consumed.
			msg := err.Error()
			s.events.emitError(msg)
			return RunResult{Answer: msg, Outcome: OutcomeErrored, Iterations: iterations}, err
		}
		iterations++

		// The model's turn enters the conversation whether or not it carries
		// a tool call; the model must see its own past requests.
		s.appendMessage(RoleAssistant, completion.Content)

		outcome := parse.Parse(completion.Content)
		if !outcome.Found() {
			// A miss is the final answer, not an error.
			s.events.emitFinalAnswer(completion.Content)
			return RunResult{Answer: completion.Content, Outcome: OutcomeAnswered, Iterations: iterations}, nil
		}

		call := outcome.Call
		if s.gate != nil && s.gate.NeedsApproval(call.Name) {
			s.events.emitApprovalRequest(call.Name, call.Args)
			desc := approve.Describe(call.Name, call.Args)
			if outcome.Confidence == parse.ConfidenceLow {
				desc += " [inferred from prose]"
			}
			if !s.gate.RequestApproval(call.Name, desc) {
				s.appendMessage(RoleUser,
					"The user declined the "+call.Name+" operation; it was not executed. "+
						"Suggest a different approach or finish with what you have.")
				continue
			}
		}

		output := s.executeCall(ctx, call, outcome.Strategy)
		s.appendMessage(RoleUser, "Tool "+call.Name+" output:\n"+output)
	}
}

// =============================================================================
// THINKING
// =============================================================================

// think sends the conversation to the model, racing the call against the
// session's wall-clock deadline. On timeout the in-flight call is abandoned
// rather than cancelled; the buffered channel lets the goroutine finish and
// exit, and the transport's own timeout reclaims the connection.
func (s *Session) think(ctx context.Context) (Completion, error) {
	snapshot := make([]Message, len(s.conversation))
	copy(snapshot, s.conversation)

	ch := make(chan Completion, 1)
	go func() {
		ch <- s.complete(snapshot, s.maxTokens)
	}()

	timer := time.NewTimer(s.llmTimeout)
	defer timer.Stop()

	select {
	case c := <-ch:
		if c.Err != nil {
			return Completion{}, &TransportError{Message: "model call failed", Cause: c.Err}
		}
		if !c.Succeeded {
			return Completion{}, &TransportError{Message: "model call failed"}
		}
		return c, nil

	case <-timer.C:
		return Completion{}, &TransportError{Message: "model response timed out after " + s.llmTimeout.String()}

	case <-ctx.Done():
		return Completion{}, &TransportError{Message: "model call interrupted", Cause: ctx.Err()}
	}
}

// =============================================================================
// EXECUTION
// =============================================================================

// executeCall runs one approved tool call: capture undo pre-state, dispatch,
// record, observe. The returned text is what the model sees next, truncated
// to the session's output cap.
func (s *Session) executeCall(ctx context.Context, call *parse.ToolCall, strategy parse.Strategy) string {
	// Pre-state must be read before the mutation. A path the resolver
	// rejects gets no payload; the tool will refuse it the same way.
	var undo *ledger.UndoPayload
	if call.Name == "write_file" || call.Name == "delete_file" {
		if path := call.Args.GetString("path", ""); path != "" {
			if abs, err := tools.ResolvePath(s.workDir, path); err == nil {
				undo = ledger.CapturePreState(path, abs)
			}
		}
	}

	s.events.emitToolExecuting(call.Name)
	start := time.Now()
	result := s.registry.Execute(ctx, call.Name, call.Args, s.workDir)
	duration := time.Since(start)
	s.events.emitToolResult(result)

	rec := ledger.ActionRecord{
		ToolName:     call.Name,
		Args:         call.Args,
		ResultOutput: result.Output,
		Succeeded:    result.Succeeded,
	}
	// A failed call changed nothing; promising an undo for it would revert
	// someone else's bytes.
	if result.Succeeded {
		rec.Undo = undo
	}
	recorded := s.ledger.Record(rec)

	if s.observer != nil {
		s.observer(recorded, strategy, duration)
	}

	if s.maxToolOutput > 0 {
		return truncateOutput(result.Output, s.maxToolOutput)
	}
	return result.Output
}

// truncateOutput caps output at maxBytes without splitting a rune.
func truncateOutput(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... [output truncated]"
}
