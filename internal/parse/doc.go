// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parse extracts tool calls from model output.
//
// Local models do not reliably follow a JSON protocol, so Parse runs an
// ordered recognition cascade from strictest to loosest:
//
//  1. A ```tool fenced block containing a single JSON object
//  2. A ```json fenced block containing a "tool" key
//  3. Any untagged fenced block containing a "tool" key
//  4. An inline {"tool": ..., "params": {...}} object
//  5. An inline flat JSON object starting with a "tool" key
//  6. Natural-language inference (create-file, install, list-files phrasing)
//
// The first strategy that produces a call wins. Parse is total and
// deterministic: it never returns an error, and the same text always yields
// the same Outcome. Text that matches no strategy is a miss, reported as an
// empty Outcome, which callers treat as a final answer rather than a failure.
//
// Strategy 6 trades precision for robustness and is tagged ConfidenceLow so
// hosts can surface that the call was inferred rather than stated.
package parse
