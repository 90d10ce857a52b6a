// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff computes line diffs for file change previews.
//
// The approval prompt uses this package to show what a file write will
// actually change before the user confirms it. Diffs are computed with a
// plain LCS table walk and grouped into hunks with three lines of context,
// which keeps previews short without hiding the change.
//
// # Key Types
//
//   - Kind: classification of a diff line (context, added, removed)
//   - Line: one line of the diff with 1-based old/new line numbers
//   - Hunk: a run of changes plus surrounding context
//   - FileDiff: the complete diff for one file, with counts and mode
//
// # Usage
//
// Compute and render a diff:
//
//	d := diff.Compute("main.go", oldContent, newContent)
//	fmt.Println(d.Summary()) // "modify +2 -1"
//	fmt.Print(d.Unified())
package diff
