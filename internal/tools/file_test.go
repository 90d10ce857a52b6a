// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agentic tool system for rigagent.
package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// WRITE FILE TESTS
// =============================================================================

func TestWriteFileTool_CreatesFile(t *testing.T) {
	workDir := t.TempDir()
	tool := &WriteFileTool{}

	res := tool.Execute(context.Background(), Args{
		"path":    StringValue("hello.txt"),
		"content": StringValue("hello, world"),
	}, workDir)

	if !res.Succeeded {
		t.Fatalf("write failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "Created") {
		t.Errorf("output = %q, want creation message", res.Output)
	}

	data, err := os.ReadFile(filepath.Join(workDir, "hello.txt"))
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if string(data) != "hello, world" {
		t.Errorf("content = %q", string(data))
	}
}

func TestWriteFileTool_CreatesParentDirs(t *testing.T) {
	workDir := t.TempDir()
	tool := &WriteFileTool{}

	res := tool.Execute(context.Background(), Args{
		"path":    StringValue("a/b/c.txt"),
		"content": StringValue("nested"),
	}, workDir)

	if !res.Succeeded {
		t.Fatalf("write failed: %s", res.Output)
	}
	if _, err := os.Stat(filepath.Join(workDir, "a", "b", "c.txt")); err != nil {
		t.Fatalf("nested file missing: %v", err)
	}
}

func TestWriteFileTool_OverwriteReportsIt(t *testing.T) {
	workDir := t.TempDir()
	tool := &WriteFileTool{}
	args := Args{
		"path":    StringValue("f.txt"),
		"content": StringValue("v1"),
	}

	if res := tool.Execute(context.Background(), args, workDir); !res.Succeeded {
		t.Fatalf("first write failed: %s", res.Output)
	}

	args["content"] = StringValue("v2")
	res := tool.Execute(context.Background(), args, workDir)
	if !res.Succeeded {
		t.Fatalf("second write failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "Overwrote") {
		t.Errorf("output = %q, want overwrite message", res.Output)
	}

	data, _ := os.ReadFile(filepath.Join(workDir, "f.txt"))
	if string(data) != "v2" {
		t.Errorf("content = %q, want v2", string(data))
	}
}

func TestWriteFileTool_RejectsTraversal(t *testing.T) {
	workDir := t.TempDir()
	tool := &WriteFileTool{}

	res := tool.Execute(context.Background(), Args{
		"path":    StringValue("../escape.txt"),
		"content": StringValue("nope"),
	}, workDir)

	if res.Succeeded {
		t.Fatal("traversal write should fail")
	}
	if !strings.Contains(res.Output, "security error") {
		t.Errorf("output = %q, want security error", res.Output)
	}
	// Nothing may exist outside the working directory.
	if _, err := os.Stat(filepath.Join(filepath.Dir(workDir), "escape.txt")); err == nil {
		t.Error("file was created outside the working directory")
	}
}

func TestWriteFileTool_MissingArgs(t *testing.T) {
	workDir := t.TempDir()
	tool := &WriteFileTool{}

	if res := tool.Execute(context.Background(), Args{}, workDir); res.Succeeded {
		t.Error("write without path should fail")
	}
	res := tool.Execute(context.Background(), Args{"path": StringValue("x.txt")}, workDir)
	if res.Succeeded {
		t.Error("write without content should fail")
	}
}

func TestWriteFileTool_EmptyContentAllowed(t *testing.T) {
	workDir := t.TempDir()
	tool := &WriteFileTool{}

	res := tool.Execute(context.Background(), Args{
		"path":    StringValue("empty.txt"),
		"content": StringValue(""),
	}, workDir)
	if !res.Succeeded {
		t.Fatalf("empty write failed: %s", res.Output)
	}
	info, err := os.Stat(filepath.Join(workDir, "empty.txt"))
	if err != nil {
		t.Fatalf("file missing: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}

// =============================================================================
// READ FILE TESTS
// =============================================================================

func TestReadFileTool_RoundTrip(t *testing.T) {
	workDir := t.TempDir()
	content := "line one\nline two\n"
	if err := os.WriteFile(filepath.Join(workDir, "r.txt"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tool := &ReadFileTool{}
	res := tool.Execute(context.Background(), Args{"path": StringValue("r.txt")}, workDir)
	if !res.Succeeded {
		t.Fatalf("read failed: %s", res.Output)
	}
	if res.Output != content {
		t.Errorf("content = %q, want %q", res.Output, content)
	}
}

func TestReadFileTool_NotFound(t *testing.T) {
	tool := &ReadFileTool{}
	res := tool.Execute(context.Background(), Args{"path": StringValue("ghost.txt")}, t.TempDir())
	if res.Succeeded {
		t.Fatal("reading a missing file should fail")
	}
	if !strings.Contains(res.Output, "not found") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestReadFileTool_RejectsDirectory(t *testing.T) {
	workDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(workDir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	tool := &ReadFileTool{}
	res := tool.Execute(context.Background(), Args{"path": StringValue("sub")}, workDir)
	if res.Succeeded {
		t.Fatal("reading a directory should fail")
	}
}

func TestReadFileTool_SizeLimit(t *testing.T) {
	workDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(workDir, "big.txt"), make([]byte, 2048), 0644); err != nil {
		t.Fatal(err)
	}

	tool := &ReadFileTool{MaxFileSize: 1024}
	res := tool.Execute(context.Background(), Args{"path": StringValue("big.txt")}, workDir)
	if res.Succeeded {
		t.Fatal("oversized read should fail")
	}
	if !strings.Contains(res.Output, "too large") {
		t.Errorf("output = %q", res.Output)
	}
}

// =============================================================================
// DELETE FILE TESTS
// =============================================================================

func TestDeleteFileTool_DeletesFile(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "doomed.txt")
	if err := os.WriteFile(path, []byte("bye"), 0644); err != nil {
		t.Fatal(err)
	}

	tool := &DeleteFileTool{}
	res := tool.Execute(context.Background(), Args{"path": StringValue("doomed.txt")}, workDir)
	if !res.Succeeded {
		t.Fatalf("delete failed: %s", res.Output)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after delete")
	}
}

func TestDeleteFileTool_MissingFileFails(t *testing.T) {
	tool := &DeleteFileTool{}
	res := tool.Execute(context.Background(), Args{"path": StringValue("ghost.txt")}, t.TempDir())
	if res.Succeeded {
		t.Fatal("deleting a missing file should fail")
	}
}

func TestDeleteFileTool_RejectsDirectory(t *testing.T) {
	workDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(workDir, "keep"), 0755); err != nil {
		t.Fatal(err)
	}

	tool := &DeleteFileTool{}
	res := tool.Execute(context.Background(), Args{"path": StringValue("keep")}, workDir)
	if res.Succeeded {
		t.Fatal("deleting a directory should fail")
	}
	if _, err := os.Stat(filepath.Join(workDir, "keep")); err != nil {
		t.Error("directory was removed")
	}
}

func TestDeleteFileTool_RejectsTraversal(t *testing.T) {
	workDir := t.TempDir()
	// Plant a file just outside the root and try to reach it.
	outside := filepath.Join(filepath.Dir(workDir), "outside.txt")
	if err := os.WriteFile(outside, []byte("keep me"), 0644); err != nil {
		t.Skip("cannot create file outside temp root")
	}
	defer os.Remove(outside)

	tool := &DeleteFileTool{}
	res := tool.Execute(context.Background(), Args{"path": StringValue("../outside.txt")}, workDir)
	if res.Succeeded {
		t.Fatal("traversal delete should fail")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("file outside the working directory was deleted")
	}
}

// =============================================================================
// LIST FILES TESTS
// =============================================================================

func TestListFilesTool_ListsDirsFirst(t *testing.T) {
	workDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(workDir, "zdir"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "afile.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tool := &ListFilesTool{}
	res := tool.Execute(context.Background(), Args{}, workDir)
	if !res.Succeeded {
		t.Fatalf("list failed: %s", res.Output)
	}

	dirIdx := strings.Index(res.Output, "zdir")
	fileIdx := strings.Index(res.Output, "afile.txt")
	if dirIdx == -1 || fileIdx == -1 {
		t.Fatalf("listing missing entries: %q", res.Output)
	}
	if dirIdx > fileIdx {
		t.Error("directories should be listed before files")
	}
}

func TestListFilesTool_EmptyDir(t *testing.T) {
	tool := &ListFilesTool{}
	res := tool.Execute(context.Background(), Args{}, t.TempDir())
	if !res.Succeeded {
		t.Fatalf("list failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "(empty)") {
		t.Errorf("output = %q, want empty marker", res.Output)
	}
}

func TestListFilesTool_MissingDir(t *testing.T) {
	tool := &ListFilesTool{}
	res := tool.Execute(context.Background(), Args{"path": StringValue("nope")}, t.TempDir())
	if res.Succeeded {
		t.Fatal("listing a missing directory should fail")
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestCountLines(t *testing.T) {
	testCases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
	}

	for _, tc := range testCases {
		if got := countLines(tc.input); got != tc.want {
			t.Errorf("countLines(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	testCases := []struct {
		bytes int64
		want  string
	}{
		{512, "512B"},
		{2048, "2KB"},
		{3 * 1024 * 1024, "3MB"},
	}

	for _, tc := range testCases {
		if got := formatSize(tc.bytes); got != tc.want {
			t.Errorf("formatSize(%d) = %q, want %q", tc.bytes, got, tc.want)
		}
	}
}
