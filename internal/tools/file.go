// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agentic tool system for rigagent.
// file.go implements the file tools: read_file, write_file, delete_file
// and list_files. All paths are confined to the working directory via
// ResolvePath before any filesystem access.
package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeranaias/rigagent/internal/util"
)

// =============================================================================
// LIMITS
// =============================================================================

const (
	// defaultMaxFileSize caps file reads and writes (10MB).
	defaultMaxFileSize = 10 * 1024 * 1024

	// maxListEntries caps directory listings to keep tool output bounded.
	maxListEntries = 500
)

// =============================================================================
// READ FILE
// =============================================================================

// ReadFileTool reads the contents of a text file.
type ReadFileTool struct {
	// MaxFileSize is the maximum file size to read (default: 10MB)
	MaxFileSize int64
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return `Read the contents of a text file.
Returns the complete file content. Fails on directories, files over the
size limit, and paths outside the working directory.`
}

func (t *ReadFileTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "path",
			Type:        "string",
			Required:    true,
			Description: "Path to the file, relative to the working directory.",
		},
	}
}

// Execute reads a file after confining the path to the working directory.
func (t *ReadFileTool) Execute(ctx context.Context, args Args, workDir string) Result {
	maxSize := t.MaxFileSize
	if maxSize == 0 {
		maxSize = defaultMaxFileSize
	}

	path := args.GetString("path", "")
	if path == "" {
		return Failure("path is required")
	}

	absPath, err := ResolvePath(workDir, path)
	if err != nil {
		return Failure(err.Error())
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("file not found: " + path)
		}
		return Failure("cannot access file: " + err.Error())
	}
	if info.IsDir() {
		return Failure("'" + path + "' is a directory, not a file (use list_files)")
	}
	if info.Size() > maxSize {
		return Failure("file too large (" + formatSize(info.Size()) + "), max " + formatSize(maxSize))
	}

	if err := ctx.Err(); err != nil {
		return Failure("operation cancelled")
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Failure("cannot read file: " + err.Error())
	}

	return Success(string(data))
}

// =============================================================================
// WRITE FILE
// =============================================================================

// WriteFileTool creates a file or completely replaces an existing one.
type WriteFileTool struct {
	// MaxFileSize is the maximum content size to write (default: 10MB)
	MaxFileSize int64
}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return `Create a file or completely replace an existing file with new content.
Parent directories are created automatically. The write is atomic: the file
holds either its old content or the complete new content, never a partial
mix. Paths outside the working directory are rejected.`
}

func (t *WriteFileTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "path",
			Type:        "string",
			Required:    true,
			Description: "Path to the file, relative to the working directory.",
		},
		{
			Name:        "content",
			Type:        "string",
			Required:    true,
			Description: "Complete file content. Replaces any existing content entirely.",
		},
	}
}

// Execute writes the file atomically after confining the path.
func (t *WriteFileTool) Execute(ctx context.Context, args Args, workDir string) Result {
	maxSize := t.MaxFileSize
	if maxSize == 0 {
		maxSize = defaultMaxFileSize
	}

	path := args.GetString("path", "")
	if path == "" {
		return Failure("path is required")
	}
	if !args.Has("content") {
		return Failure("content is required")
	}
	content := args.GetString("content", "")

	absPath, err := ResolvePath(workDir, path)
	if err != nil {
		return Failure(err.Error())
	}

	if int64(len(content)) > maxSize {
		return Failure("content too large (" + formatSize(int64(len(content))) + "), max " + formatSize(maxSize))
	}

	existed := false
	if info, err := os.Stat(absPath); err == nil {
		if info.IsDir() {
			return Failure("cannot write to '" + path + "': path is a directory")
		}
		existed = true
	}

	if err := ctx.Err(); err != nil {
		return Failure("operation cancelled")
	}

	if err := util.AtomicWriteFile(absPath, []byte(content), 0644); err != nil {
		return Failure("cannot write file: " + err.Error())
	}

	lines := countLines(content)
	size := formatSize(int64(len(content)))
	if existed {
		return Success("Overwrote " + path + " (" + util.IntToString(lines) + " lines, " + size + ")")
	}
	return Success("Created " + path + " (" + util.IntToString(lines) + " lines, " + size + ")")
}

// =============================================================================
// DELETE FILE
// =============================================================================

// DeleteFileTool removes a single file.
type DeleteFileTool struct{}

func (t *DeleteFileTool) Name() string { return "delete_file" }

func (t *DeleteFileTool) Description() string {
	return `Delete a single file.
Directories cannot be deleted. Paths outside the working directory are
rejected.`
}

func (t *DeleteFileTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "path",
			Type:        "string",
			Required:    true,
			Description: "Path to the file, relative to the working directory.",
		},
	}
}

// Execute deletes the file after confining the path.
func (t *DeleteFileTool) Execute(ctx context.Context, args Args, workDir string) Result {
	path := args.GetString("path", "")
	if path == "" {
		return Failure("path is required")
	}

	absPath, err := ResolvePath(workDir, path)
	if err != nil {
		return Failure(err.Error())
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("file not found: " + path)
		}
		return Failure("cannot access file: " + err.Error())
	}
	if info.IsDir() {
		return Failure("'" + path + "' is a directory; only files can be deleted")
	}

	if err := ctx.Err(); err != nil {
		return Failure("operation cancelled")
	}

	if err := os.Remove(absPath); err != nil {
		return Failure("cannot delete file: " + err.Error())
	}

	return Success("Deleted " + path + " (" + formatSize(info.Size()) + ")")
}

// =============================================================================
// LIST FILES
// =============================================================================

// ListFilesTool lists the entries of a directory.
type ListFilesTool struct{}

func (t *ListFilesTool) Name() string { return "list_files" }

func (t *ListFilesTool) Description() string {
	return `List the files and folders in a directory.
Directories are listed first with a trailing slash. Defaults to the working
directory when no path is given.`
}

func (t *ListFilesTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "path",
			Type:        "string",
			Required:    false,
			Description: "Directory to list, relative to the working directory. Default: the working directory itself.",
		},
	}
}

// Execute lists a directory after confining the path.
func (t *ListFilesTool) Execute(ctx context.Context, args Args, workDir string) Result {
	path := args.GetString("path", ".")

	absPath, err := ResolvePath(workDir, path)
	if err != nil {
		return Failure(err.Error())
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("directory not found: " + path)
		}
		return Failure("cannot access directory: " + err.Error())
	}
	if !info.IsDir() {
		return Failure("'" + path + "' is a file, not a directory (use read_file)")
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return Failure("cannot list directory: " + err.Error())
	}

	// Directories first, then files, each group alphabetical.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	var sb strings.Builder
	sb.WriteString("Contents of " + path + ":\n")
	shown := 0
	for _, entry := range entries {
		if shown >= maxListEntries {
			sb.WriteString("... and " + util.IntToString(len(entries)-shown) + " more entries\n")
			break
		}
		if entry.IsDir() {
			sb.WriteString("  " + entry.Name() + string(filepath.Separator) + "\n")
		} else {
			line := "  " + entry.Name()
			if fi, err := entry.Info(); err == nil {
				line += " (" + formatSize(fi.Size()) + ")"
			}
			sb.WriteString(line + "\n")
		}
		shown++
	}
	if len(entries) == 0 {
		sb.WriteString("  (empty)\n")
	}

	return Success(strings.TrimRight(sb.String(), "\n"))
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatSize formats a byte size in human-readable form.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return util.IntToString(int(bytes/GB)) + "GB"
	case bytes >= MB:
		return util.IntToString(int(bytes/MB)) + "MB"
	case bytes >= KB:
		return util.IntToString(int(bytes/KB)) + "KB"
	default:
		return util.IntToString(int(bytes)) + "B"
	}
}

// countLines counts the lines in a string. A trailing newline does not add
// an empty final line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
