// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigagent command-line interface: argument
// parsing, command handlers, and terminal output.
//
// Commands:
//   - chat: interactive REPL where each message runs the agent loop
//   - run: one-shot task execution with scriptable exit codes
//   - history: inspect the persistent action store
//   - config: show and change configuration
//
// The chat and run handlers assemble the same harness: config, Ollama
// client, tool registry, approval gate, ledger, workspace tracker, and
// history store, wired into one agent session. The approval prompt is
// interactive (y/N plus an optional elevation code); --yes approves
// everything for unattended runs.
//
// Output adapts to the terminal: markdown-rendered answers and colored
// status lines on a TTY, plain text when piped, NO_COLOR and FORCE_COLOR
// respected. Final answers go to stdout, progress and warnings to stderr.
package cli
