// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/rigagent/internal/tools"
)

// =============================================================================
// RECORDING TESTS
// =============================================================================

func TestRecord_FillsIDAndTimestamp(t *testing.T) {
	l := New()

	rec := l.Record(ActionRecord{ToolName: "read_file", Succeeded: true})
	if rec.ID == "" {
		t.Error("ID not assigned")
	}
	if rec.Timestamp.IsZero() {
		t.Error("timestamp not assigned")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}

	second := l.Record(ActionRecord{ToolName: "list_files", Succeeded: true})
	if second.ID == rec.ID {
		t.Error("IDs should be unique")
	}
}

func TestLedger_ConcurrentRecord(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Record(ActionRecord{ToolName: "read_file", Succeeded: true})
		}()
	}
	wg.Wait()

	if l.Len() != 50 {
		t.Errorf("Len() = %d, want 50", l.Len())
	}
}

// =============================================================================
// PRE-STATE CAPTURE TESTS
// =============================================================================

func TestCapturePreState(t *testing.T) {
	dir := t.TempDir()

	existing := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(existing, []byte("prior bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	p := CapturePreState("a.txt", existing)
	if p == nil {
		t.Fatal("payload missing for existing file")
	}
	if p.Kind != UndoPriorContent {
		t.Errorf("kind = %v, want UndoPriorContent", p.Kind)
	}
	if string(p.Content) != "prior bytes" {
		t.Errorf("content = %q", p.Content)
	}

	p = CapturePreState("b.txt", filepath.Join(dir, "b.txt"))
	if p == nil {
		t.Fatal("payload missing for absent file")
	}
	if p.Kind != UndoNewFile {
		t.Errorf("kind = %v, want UndoNewFile", p.Kind)
	}
	if len(p.Content) != 0 {
		t.Errorf("new-file payload should carry no content, got %d bytes", len(p.Content))
	}
}

// =============================================================================
// UNDO TESTS
// =============================================================================

func TestUndoLast_RestoresPriorContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("before"), 0644); err != nil {
		t.Fatal(err)
	}

	l := New()
	payload := CapturePreState("f.txt", path)

	// The write happens after capture.
	if err := os.WriteFile(path, []byte("after"), 0644); err != nil {
		t.Fatal(err)
	}
	l.Record(ActionRecord{ToolName: "write_file", Succeeded: true, Undo: payload})

	msg := l.UndoLast()
	if !strings.Contains(msg, "restored") {
		t.Errorf("message = %q, want restore notice", msg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "before" {
		t.Errorf("content = %q, want before", data)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after undo", l.Len())
	}
}

func TestUndoLast_RemovesNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	l := New()
	payload := CapturePreState("a.txt", path)

	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	l.Record(ActionRecord{ToolName: "write_file", Succeeded: true, Undo: payload})

	msg := l.UndoLast()
	if !strings.Contains(msg, "removed") {
		t.Errorf("message = %q, want removal notice", msg)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be absent again after undo")
	}
}

func TestUndoLast_RecreatesDeletedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doomed.txt")
	if err := os.WriteFile(path, []byte("important data"), 0644); err != nil {
		t.Fatal(err)
	}

	l := New()
	payload := CapturePreState("doomed.txt", path)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	l.Record(ActionRecord{ToolName: "delete_file", Succeeded: true, Undo: payload})

	msg := l.UndoLast()
	if !strings.Contains(msg, "recreated") {
		t.Errorf("message = %q, want recreate notice", msg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not recreated: %v", err)
	}
	if string(data) != "important data" {
		t.Errorf("content = %q, want exact prior bytes", data)
	}
}

func TestUndoLast_NothingToUndo(t *testing.T) {
	l := New()
	if msg := l.UndoLast(); msg != "Nothing to undo." {
		t.Errorf("message = %q", msg)
	}

	// Records without payloads are not undoable and stay in place.
	l.Record(ActionRecord{ToolName: "read_file", Succeeded: true})
	if msg := l.UndoLast(); msg != "Nothing to undo." {
		t.Errorf("message = %q", msg)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, non-undoable record must not be removed", l.Len())
	}
}

func TestUndoLast_WalksBackward(t *testing.T) {
	dir := t.TempDir()

	first := filepath.Join(dir, "first.txt")
	if err := os.WriteFile(first, []byte("one"), 0644); err != nil {
		t.Fatal(err)
	}
	firstPayload := CapturePreState("first.txt", first)
	if err := os.WriteFile(first, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	second := filepath.Join(dir, "second.txt")
	secondPayload := CapturePreState("second.txt", second)
	if err := os.WriteFile(second, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}

	l := New()
	l.Record(ActionRecord{ToolName: "write_file", Succeeded: true, Undo: firstPayload})
	l.Record(ActionRecord{ToolName: "write_file", Succeeded: true, Undo: secondPayload})

	// First undo reverts the most recent action (the new file).
	l.UndoLast()
	if _, err := os.Stat(second); !os.IsNotExist(err) {
		t.Error("second.txt should be removed by the first undo")
	}
	if data, _ := os.ReadFile(first); string(data) != "changed" {
		t.Errorf("first.txt = %q, must be untouched by the first undo", data)
	}

	// Second undo walks back to the earlier write.
	l.UndoLast()
	if data, _ := os.ReadFile(first); string(data) != "one" {
		t.Errorf("first.txt = %q, want one", data)
	}

	if msg := l.UndoLast(); msg != "Nothing to undo." {
		t.Errorf("third undo = %q, want nothing left", msg)
	}
}

func TestUndoLast_SkipsNonUndoableTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.txt")

	l := New()
	payload := CapturePreState("w.txt", path)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	l.Record(ActionRecord{ToolName: "write_file", Succeeded: true, Undo: payload})
	l.Record(ActionRecord{ToolName: "read_file", Succeeded: true})

	msg := l.UndoLast()
	if !strings.Contains(msg, "removed") {
		t.Errorf("message = %q, want the write reverted", msg)
	}
	// The read record survives; only the reverted write is removed.
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestPeekUndo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.txt")

	l := New()
	if _, ok := l.PeekUndo(); ok {
		t.Error("empty ledger should have nothing to peek")
	}

	payload := CapturePreState("p.txt", path)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	l.Record(ActionRecord{ToolName: "write_file", Succeeded: true, Undo: payload})

	rec, ok := l.PeekUndo()
	if !ok {
		t.Fatal("expected an undoable record")
	}
	if rec.ToolName != "write_file" {
		t.Errorf("tool = %q, want write_file", rec.ToolName)
	}
	// Peek must not consume the record.
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after peek", l.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("peek must not touch the file")
	}
}

func TestUndoLast_StalenessWarning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.txt")
	if err := os.WriteFile(path, []byte("before"), 0644); err != nil {
		t.Fatal(err)
	}

	l := New()
	payload := CapturePreState("s.txt", path)
	if err := os.WriteFile(path, []byte("after"), 0644); err != nil {
		t.Fatal(err)
	}
	l.Record(ActionRecord{ToolName: "write_file", Succeeded: true, Undo: payload})

	var askedPath string
	l.SetStalenessCheck(func(absPath string, since time.Time) bool {
		askedPath = absPath
		return true
	})

	msg := l.UndoLast()
	if !strings.Contains(msg, "restored") {
		t.Errorf("message = %q, want restore notice", msg)
	}
	if !strings.Contains(msg, "Warning:") || !strings.Contains(msg, "modified outside") {
		t.Errorf("message = %q, want staleness warning", msg)
	}
	if askedPath != path {
		t.Errorf("check asked about %q, want %q", askedPath, path)
	}

	// The revert itself still happens.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "before" {
		t.Errorf("content = %q, want before", data)
	}
}

func TestUndoLast_NoWarningWhenFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")

	l := New()
	payload := CapturePreState("f.txt", path)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	l.Record(ActionRecord{ToolName: "write_file", Succeeded: true, Undo: payload})

	l.SetStalenessCheck(func(absPath string, since time.Time) bool { return false })

	msg := l.UndoLast()
	if strings.Contains(msg, "Warning:") {
		t.Errorf("message = %q, unexpected warning", msg)
	}
}

// =============================================================================
// SUMMARY TESTS
// =============================================================================

func TestSummary(t *testing.T) {
	l := New()
	if got := l.Summary(5); !strings.Contains(got, "No actions") {
		t.Errorf("empty summary = %q", got)
	}

	l.Record(ActionRecord{
		ToolName:  "read_file",
		Args:      tools.Args{"path": tools.StringValue("a.txt")},
		Succeeded: true,
	})
	l.Record(ActionRecord{
		ToolName:  "run_shell",
		Args:      tools.Args{"command": tools.StringValue("make build")},
		Succeeded: false,
	})
	l.Record(ActionRecord{
		ToolName:  "write_file",
		Args:      tools.Args{"path": tools.StringValue("b.txt")},
		Succeeded: true,
		Undo:      &UndoPayload{Kind: UndoNewFile, Path: "b.txt", AbsPath: "/tmp/b.txt"},
	})

	got := l.Summary(2)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("Summary(2) has %d lines, want 2:\n%s", len(lines), got)
	}
	if !strings.Contains(got, "run_shell") || !strings.Contains(got, "write_file") {
		t.Errorf("summary missing recent tools:\n%s", got)
	}
	if strings.Contains(got, "read_file") {
		t.Errorf("summary should only hold the last 2 entries:\n%s", got)
	}
	if !strings.Contains(got, "failed") {
		t.Errorf("failed action not marked:\n%s", got)
	}
	if !strings.Contains(got, "[undoable]") {
		t.Errorf("undoable action not marked:\n%s", got)
	}

	full := l.Summary(0)
	if !strings.Contains(full, "read_file") {
		t.Errorf("Summary(0) should include all entries:\n%s", full)
	}
}
