// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run.go - One-shot task command handler for the rigagent CLI.
//
// Handles "rigagent run <task>": runs the agent loop once, prints the
// final answer, and exits with a code that reflects how the run ended.
//
// Command: run
// Short:   Run a single task and exit
// Aliases: do
//
// Examples:
//   rigagent run "list the go files here and summarize them"
//   rigagent run "fix the typo in README.md" --root ~/project
//   rigagent run "clean up temp files" --yes
//   rigagent run "count lines of code" --json | jq .answer
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/rigagent/internal/agent"
)

// runReport is the JSON shape for --json output.
type runReport struct {
	Answer     string `json:"answer"`
	Outcome    string `json:"outcome"`
	Iterations int    `json:"iterations"`
	Actions    int    `json:"actions"`
	DurationMs int64  `json:"duration_ms"`
}

// HandleRunCommand handles the "run" command.
func HandleRunCommand(args Args) error {
	if args.Query == "" {
		return NewUsageError("run requires a task, e.g.: rigagent run \"list the go files here\"")
	}

	h, err := buildHarness(args)
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C cancels the run; the loop stops at the next model call.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	start := time.Now()
	result, err := h.session.Run(ctx, args.Query)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return &InterruptedError{}
		}
		return err
	}

	actions := h.session.Ledger().Len()

	if args.JSON {
		printJSON(runReport{
			Answer:     result.Answer,
			Outcome:    result.Outcome.String(),
			Iterations: result.Iterations,
			Actions:    actions,
			DurationMs: elapsed.Milliseconds(),
		})
	} else {
		DisplayAnswer(result.Answer, h.cfg.CLI.RenderMarkdown)
	}

	if !args.Quiet && !args.JSON {
		fmt.Fprintf(os.Stderr, "%s %d iterations, %s actions, %s\n",
			DimStyle.Render("[done]"),
			result.Iterations,
			formatNumber(actions),
			formatDurationShort(elapsed))
	}

	if result.Outcome != agent.OutcomeAnswered {
		return NewIncompleteError(result.Outcome)
	}
	return nil
}
