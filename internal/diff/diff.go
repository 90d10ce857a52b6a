// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff computes line diffs for file change previews.
package diff

import (
	"fmt"
	"strings"
)

// =============================================================================
// LINE KINDS
// =============================================================================

// Kind classifies a single diff line.
type Kind int

const (
	// KindContext is an unchanged line present in both versions.
	KindContext Kind = iota
	// KindAdded is a line present only in the new version.
	KindAdded
	// KindRemoved is a line present only in the old version.
	KindRemoved
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindContext:
		return "context"
	case KindAdded:
		return "added"
	case KindRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Prefix returns the unified-diff marker for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindAdded:
		return "+"
	case KindRemoved:
		return "-"
	default:
		return " "
	}
}

// =============================================================================
// FILE MODES
// =============================================================================

// Mode describes what kind of change a diff represents.
type Mode int

const (
	// ModeModify is a change to an existing file.
	ModeModify Mode = iota
	// ModeCreate is a brand new file.
	ModeCreate
	// ModeDelete removes the file entirely.
	ModeDelete
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeDelete:
		return "delete"
	default:
		return "modify"
	}
}

// =============================================================================
// DIFF TYPES
// =============================================================================

// Line is a single line of a computed diff. OldNo and NewNo are 1-based;
// zero means the line does not exist on that side.
type Line struct {
	Kind  Kind
	Text  string
	OldNo int
	NewNo int
}

// Hunk is a contiguous run of changes plus surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the computed diff for one file.
type FileDiff struct {
	Path    string
	Mode    Mode
	Added   int
	Removed int
	Hunks   []Hunk
}

// contextRadius is how many unchanged lines surround each hunk.
const contextRadius = 3

// =============================================================================
// COMPUTATION
// =============================================================================

// Compute diffs before against after line by line. The algorithm is a plain
// LCS table walk, which is plenty for preview-sized files.
func Compute(path, before, after string) *FileDiff {
	d := &FileDiff{Path: path}
	switch {
	case before == "" && after != "":
		d.Mode = ModeCreate
	case before != "" && after == "":
		d.Mode = ModeDelete
	default:
		d.Mode = ModeModify
	}

	lines := alignLines(toLines(before), toLines(after))
	for _, ln := range lines {
		switch ln.Kind {
		case KindAdded:
			d.Added++
		case KindRemoved:
			d.Removed++
		}
	}
	d.Hunks = buildHunks(lines)
	return d
}

// toLines splits content on newlines, dropping the empty tail a trailing
// newline produces.
func toLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// alignLines produces the full diff line sequence for two line slices.
// It fills a standard LCS length table, then walks it backwards emitting
// context, added, and removed lines, and reverses the result.
func alignLines(old, new []string) []Line {
	m, n := len(old), len(new)
	if m == 0 && n == 0 {
		return nil
	}

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if old[i-1] == new[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	out := make([]Line, 0, m+n)
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && old[i-1] == new[j-1]:
			out = append(out, Line{Kind: KindContext, Text: old[i-1], OldNo: i, NewNo: j})
			i--
			j--
		case j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]):
			out = append(out, Line{Kind: KindAdded, Text: new[j-1], NewNo: j})
			j--
		default:
			out = append(out, Line{Kind: KindRemoved, Text: old[i-1], OldNo: i})
			i--
		}
	}

	// Reverse in place; the walk emitted lines tail first.
	for a, b := 0, len(out)-1; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out
}

// buildHunks groups changed lines into hunks. Each change expands by
// contextRadius lines on both sides; overlapping or adjacent spans merge
// into a single hunk.
func buildHunks(lines []Line) []Hunk {
	type span struct{ lo, hi int }
	var spans []span
	for i, ln := range lines {
		if ln.Kind == KindContext {
			continue
		}
		lo := i - contextRadius
		if lo < 0 {
			lo = 0
		}
		hi := i + contextRadius + 1
		if hi > len(lines) {
			hi = len(lines)
		}
		if k := len(spans) - 1; k >= 0 && lo <= spans[k].hi {
			spans[k].hi = hi
		} else {
			spans = append(spans, span{lo: lo, hi: hi})
		}
	}

	hunks := make([]Hunk, 0, len(spans))
	for _, s := range spans {
		h := Hunk{Lines: lines[s.lo:s.hi]}
		for _, ln := range h.Lines {
			if ln.OldNo > 0 {
				if h.OldStart == 0 {
					h.OldStart = ln.OldNo
				}
				h.OldCount++
			}
			if ln.NewNo > 0 {
				if h.NewStart == 0 {
					h.NewStart = ln.NewNo
				}
				h.NewCount++
			}
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// =============================================================================
// FORMATTING
// =============================================================================

// Unified renders the diff in standard unified format.
func (d *FileDiff) Unified() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n", d.Path)
	fmt.Fprintf(&sb, "+++ b/%s\n", d.Path)
	for _, h := range d.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, ln := range h.Lines {
			sb.WriteString(ln.Kind.Prefix())
			sb.WriteString(ln.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Summary returns a one-line description such as "modify +2 -1".
func (d *FileDiff) Summary() string {
	parts := []string{d.Mode.String()}
	if d.Added > 0 {
		parts = append(parts, fmt.Sprintf("+%d", d.Added))
	}
	if d.Removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d", d.Removed))
	}
	return strings.Join(parts, " ")
}

// Changed reports whether the diff contains any additions or removals.
func (d *FileDiff) Changed() bool {
	return d.Added > 0 || d.Removed > 0
}
