// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"strings"
	"testing"
)

func TestCompute_Create(t *testing.T) {
	d := Compute("test.txt", "", "line1\nline2\nline3")

	if d.Mode != ModeCreate {
		t.Errorf("Expected ModeCreate, got %s", d.Mode)
	}
	if d.Added != 3 {
		t.Errorf("Expected 3 added, got %d", d.Added)
	}
	if d.Removed != 0 {
		t.Errorf("Expected 0 removed, got %d", d.Removed)
	}
	if len(d.Hunks) != 1 {
		t.Errorf("Expected 1 hunk, got %d", len(d.Hunks))
	}
}

func TestCompute_Delete(t *testing.T) {
	d := Compute("test.txt", "line1\nline2\nline3", "")

	if d.Mode != ModeDelete {
		t.Errorf("Expected ModeDelete, got %s", d.Mode)
	}
	if d.Added != 0 {
		t.Errorf("Expected 0 added, got %d", d.Added)
	}
	if d.Removed != 3 {
		t.Errorf("Expected 3 removed, got %d", d.Removed)
	}
}

func TestCompute_Modify(t *testing.T) {
	d := Compute("test.txt", "line1\nline2\nline3", "line1\nchanged\nline3\nline4")

	if d.Mode != ModeModify {
		t.Errorf("Expected ModeModify, got %s", d.Mode)
	}
	if d.Added != 2 {
		t.Errorf("Expected 2 added, got %d", d.Added)
	}
	if d.Removed != 1 {
		t.Errorf("Expected 1 removed, got %d", d.Removed)
	}
	if !d.Changed() {
		t.Error("Expected Changed() to be true")
	}
}

func TestCompute_NoChanges(t *testing.T) {
	content := "line1\nline2\nline3"
	d := Compute("test.txt", content, content)

	if d.Added != 0 || d.Removed != 0 {
		t.Errorf("Expected no changes, got +%d -%d", d.Added, d.Removed)
	}
	if d.Changed() {
		t.Error("Expected Changed() to be false")
	}
	if len(d.Hunks) != 0 {
		t.Errorf("Expected 0 hunks, got %d", len(d.Hunks))
	}
}

func TestCompute_TrailingNewline(t *testing.T) {
	// A trailing newline must not count as an extra changed line.
	d := Compute("test.txt", "a\nb\n", "a\nb\nc\n")

	if d.Added != 1 {
		t.Errorf("Expected 1 added, got %d", d.Added)
	}
	if d.Removed != 0 {
		t.Errorf("Expected 0 removed, got %d", d.Removed)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindContext, "context"},
		{KindAdded, "added"},
		{KindRemoved, "removed"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

func TestKind_Prefix(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindContext, " "},
		{KindAdded, "+"},
		{KindRemoved, "-"},
	}

	for _, tt := range tests {
		if got := tt.kind.Prefix(); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode     Mode
		expected string
	}{
		{ModeModify, "modify"},
		{ModeCreate, "create"},
		{ModeDelete, "delete"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

func TestUnified(t *testing.T) {
	d := Compute("test.txt", "line1\nline2\nline3", "line1\nchanged\nline3")
	out := d.Unified()

	if !strings.Contains(out, "--- a/test.txt") {
		t.Error("Expected old file header")
	}
	if !strings.Contains(out, "+++ b/test.txt") {
		t.Error("Expected new file header")
	}
	if !strings.Contains(out, "-line2") {
		t.Error("Expected removed line with - prefix")
	}
	if !strings.Contains(out, "+changed") {
		t.Error("Expected added line with + prefix")
	}
	if !strings.Contains(out, "@@ -1,3 +1,3 @@") {
		t.Errorf("Expected hunk header, got:\n%s", out)
	}
}

func TestBuildHunks_MergesNearbyChanges(t *testing.T) {
	// Two changes separated by only two context lines collapse into one hunk.
	old := "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10"
	new := "l1\nX2\nl3\nl4\nX5\nl6\nl7\nl8\nl9\nl10"

	d := Compute("test.txt", old, new)
	if len(d.Hunks) != 1 {
		t.Fatalf("Expected 1 merged hunk, got %d", len(d.Hunks))
	}
}

func TestBuildHunks_SeparatesDistantChanges(t *testing.T) {
	var oldLines, newLines []string
	for i := 1; i <= 20; i++ {
		oldLines = append(oldLines, "line")
		newLines = append(newLines, "line")
	}
	oldLines[1] = "old-a"
	newLines[1] = "new-a"
	oldLines[15] = "old-b"
	newLines[15] = "new-b"

	d := Compute("test.txt", strings.Join(oldLines, "\n"), strings.Join(newLines, "\n"))
	if len(d.Hunks) != 2 {
		t.Fatalf("Expected 2 hunks, got %d", len(d.Hunks))
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name     string
		before   string
		after    string
		expected string
	}{
		{"create", "", "a\nb\nc", "create +3"},
		{"delete", "a\nb\nc", "", "delete -3"},
		{"modify", "a\nb\nc", "a\nB\nc\nd", "modify +2 -1"},
		{"unchanged", "a\nb", "a\nb", "modify"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Compute("f.txt", tt.before, tt.after)
			if got := d.Summary(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCompute_LineNumbers(t *testing.T) {
	d := Compute("test.txt", "a\nb\nc", "a\nB\nc")
	if len(d.Hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(d.Hunks))
	}

	var removed, added *Line
	for i := range d.Hunks[0].Lines {
		ln := &d.Hunks[0].Lines[i]
		switch ln.Kind {
		case KindRemoved:
			removed = ln
		case KindAdded:
			added = ln
		}
	}

	if removed == nil || removed.OldNo != 2 || removed.NewNo != 0 {
		t.Errorf("Expected removed line at old line 2, got %+v", removed)
	}
	if added == nil || added.NewNo != 2 || added.OldNo != 0 {
		t.Errorf("Expected added line at new line 2, got %+v", added)
	}
}

func BenchmarkCompute(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("some line of file content here\n")
	}
	before := sb.String()
	after := strings.Replace(before, "some line", "a new line", 5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compute("bench.txt", before, after)
	}
}
