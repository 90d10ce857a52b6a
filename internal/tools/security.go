// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agentic tool system for rigagent.
// security.go implements path confinement for file operations.
package tools

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// =============================================================================
// SECURITY ERROR TYPE
// =============================================================================

// SecurityError represents a security validation error.
type SecurityError struct {
	Type    string // Type of security error
	Path    string // Path that caused the error (if applicable)
	Message string // Human-readable error message
}

func (e *SecurityError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("security error (%s): %s [path: %s]", e.Type, e.Message, e.Path)
	}
	return fmt.Sprintf("security error (%s): %s", e.Type, e.Message)
}

// =============================================================================
// PATH CONFINEMENT
// =============================================================================

// ResolvePath validates a tool-supplied path against the working root and
// returns the absolute path to operate on. Every file-mutating tool goes
// through here before touching the filesystem.
//
// SECURITY: The checks run in a strict order:
//  1. Reject parent-traversal segments on the raw cleaned path. This happens
//     before any filesystem access so "../../etc/passwd" never even triggers
//     a stat outside the root.
//  2. Join relative paths onto the root; absolute paths must already lie
//     inside it. Checked lexically, still before filesystem access.
//  3. Resolve symlinks (parent-directory fallback for files that do not
//     exist yet, e.g. write targets) and re-check containment on the real
//     path. This prevents a symlink inside the root from reaching outside.
func ResolvePath(root, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &SecurityError{
			Type:    "validation",
			Message: "path cannot be empty",
		}
	}
	if strings.ContainsRune(path, 0) {
		return "", &SecurityError{
			Type:    "validation",
			Path:    path,
			Message: "path contains null bytes",
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &SecurityError{
			Type:    "path_resolution",
			Path:    root,
			Message: fmt.Sprintf("cannot resolve working directory: %v", err),
		}
	}

	// Step 1: Reject parent traversal before any filesystem call. The raw
	// input is checked, not the cleaned form, so "a/../b" is refused even
	// though it would resolve inside the root.
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return "", &SecurityError{
				Type:    "path_traversal",
				Path:    path,
				Message: "parent traversal is not allowed",
			}
		}
	}
	cleaned := filepath.Clean(path)

	var absPath string
	if filepath.IsAbs(cleaned) {
		absPath = cleaned
	} else {
		absPath = filepath.Join(absRoot, cleaned)
	}

	// Step 2: Lexical containment check, still before filesystem access.
	if !isPathWithinDir(absPath, absRoot) {
		return "", &SecurityError{
			Type:    "path_traversal",
			Path:    path,
			Message: "path escapes the working directory",
		}
	}

	// Step 3: Resolve symlinks so a link inside the root cannot reach
	// outside it. The target may not exist yet (writes), so fall back to the
	// parent directory and reattach the filename.
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		realRoot = absRoot
	}
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		parentDir := filepath.Dir(absPath)
		realParent, err2 := filepath.EvalSymlinks(parentDir)
		if err2 != nil {
			realPath = absPath
		} else {
			realPath = filepath.Join(realParent, filepath.Base(absPath))
		}
	}

	if !isPathWithinDir(realPath, realRoot) {
		return "", &SecurityError{
			Type:    "path_traversal",
			Path:    path,
			Message: "path resolves outside the working directory",
		}
	}

	return realPath, nil
}

// normalizePath normalizes a path for secure comparison.
// Applies filepath.Clean and platform-specific normalization.
// SECURITY: Consistent normalization prevents path comparison bypasses.
func normalizePath(path string) string {
	cleaned := filepath.Clean(path)

	if runtime.GOOS == "windows" {
		// On Windows: lowercase and normalize separators
		return strings.ToLower(filepath.ToSlash(cleaned))
	}
	return cleaned
}

// isPathWithinDir checks if a path is within a directory, ensuring proper
// path boundaries.
// SECURITY: Prevents HasPrefix bypass where /home/userEVIL would pass a
// check for /home/user. The path must either be exactly the directory, or
// start with the directory followed by a path separator.
func isPathWithinDir(path, dir string) bool {
	normalizedPath := normalizePath(path)
	normalizedDir := normalizePath(dir)

	if normalizedPath == normalizedDir {
		return true
	}

	dirWithSep := normalizedDir
	if !strings.HasSuffix(dirWithSep, "/") {
		dirWithSep = dirWithSep + "/"
	}

	return strings.HasPrefix(normalizedPath, dirWithSep)
}

// =============================================================================
// COMMAND TOKENIZATION
// =============================================================================

// parseCommandTokens parses a command string into tokens, respecting quotes.
// This prevents simple bypass attempts with extra spaces/tabs.
func parseCommandTokens(command string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range command {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			escaped = true
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t', '\n':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	if inSingleQuote || inDoubleQuote {
		return nil, fmt.Errorf("unclosed quote in command")
	}

	return tokens, nil
}
