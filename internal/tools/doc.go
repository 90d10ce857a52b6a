// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agentic tool system for rigagent.
//
// This package implements the tool registry and the built-in tools the
// orchestration loop dispatches to. Dispatch is total: unknown tool names
// and every tool-level failure come back as a failed Result, never as an
// error, so the loop can always surface the outcome to the model.
//
// # Key Types
//
//   - Tool: interface every tool implements (name, parameters, Execute)
//   - Registry: name-to-tool map with total Execute dispatch
//   - Args / Value: typed tool arguments (string, number or boolean)
//   - Result: tool execution outcome with output and status
//
// # Built-in Tools
//
// File Tools:
//   - read_file: read a file inside the working directory
//   - write_file: create or replace a file atomically
//   - delete_file: delete a single file
//   - list_files: list a directory
//
// System Tools:
//   - run_shell: shell command execution (restricted, 60s timeout)
//   - install_package / remove_package: package manager invocation
//
// # Security
//
// All file paths are confined to the working directory via ResolvePath,
// which rejects parent traversal before any filesystem access and re-checks
// containment after symlink resolution. Shell commands are NFKC-normalized
// and screened against blocklists; child processes run in their own process
// group with a sanitized environment and are killed as a group on timeout.
package tools
