// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package parse

import (
	"regexp"
	"strings"

	"github.com/jeranaias/rigagent/internal/tools"
)

// =============================================================================
// NATURAL-LANGUAGE INFERENCE
// =============================================================================

// Small models sometimes describe an action in prose instead of emitting the
// JSON protocol. Three narrow phrasings are recognized; anything else stays a
// parser miss. Every call synthesized here is tagged ConfidenceLow.

var (
	// "create file `hello.py`", "write `config.toml`", "save a file named
	// `notes.txt`". The backticked name must look like a filename.
	createFileRegex = regexp.MustCompile("(?i)\\b(?:create|write|make|save)\\b[^`\\n]{0,80}`([^`\\n]+?\\.[A-Za-z0-9]{1,8})`")

	// Any fenced code block; the body supplies the file content.
	codeFenceRegex = regexp.MustCompile("(?s)```[a-zA-Z0-9+.-]*[ \\t]*\\n(.*?)```")

	// "install requests", "install the package `numpy`".
	installRegex = regexp.MustCompile("(?i)\\binstall\\b(?:\\s+the)?(?:\\s+(?:package|module|library))?\\s+`?([A-Za-z0-9][A-Za-z0-9@/._+=^~-]*)`?")

	// "list the files in `src`", "list folders".
	listFilesRegex = regexp.MustCompile("(?i)\\blist\\b[^.\\n]{0,40}\\b(?:files|folders|directories|directory|contents)\\b")
	listDirRegex   = regexp.MustCompile("(?i)\\b(?:files|folders|directories|directory|contents)\\b\\s+(?:in|of|under)\\s+`?([^\\s`\"']+)`?")
)

// installStopwords are pronouns and collectives that follow "install" in
// prose without naming a package.
var installStopwords = map[string]bool{
	"it": true, "this": true, "that": true, "them": true,
	"the": true, "a": true, "an": true,
	"dependencies": true, "packages": true, "everything": true,
}

// inferCall synthesizes a tool call from prose. Most specific phrasing
// first: file creation needs both a named file and a code block, so it can
// never be shadowed by the looser triggers.
func inferCall(text string) (*ToolCall, bool) {
	if call, ok := inferWriteFile(text); ok {
		return call, true
	}
	if call, ok := inferInstall(text); ok {
		return call, true
	}
	if call, ok := inferListFiles(text); ok {
		return call, true
	}
	return nil, false
}

// inferWriteFile matches a create-file phrase followed by a fenced code
// block. The block must come after the phrase; a block quoted before it is
// not the promised content.
func inferWriteFile(text string) (*ToolCall, bool) {
	loc := createFileRegex.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false
	}
	path := text[loc[2]:loc[3]]

	fence := codeFenceRegex.FindStringSubmatch(text[loc[1]:])
	if fence == nil {
		return nil, false
	}

	return &ToolCall{
		Name: "write_file",
		Args: tools.Args{
			"path":    tools.StringValue(path),
			"content": tools.StringValue(fence[1]),
		},
	}, true
}

// inferInstall matches an install phrase naming a package.
func inferInstall(text string) (*ToolCall, bool) {
	m := installRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	name := strings.TrimRight(m[1], ".")
	if name == "" || installStopwords[strings.ToLower(name)] {
		return nil, false
	}

	return &ToolCall{
		Name: "install_package",
		Args: tools.Args{"name": tools.StringValue(name)},
	}, true
}

// inferListFiles matches a list-files phrase with an optional directory.
func inferListFiles(text string) (*ToolCall, bool) {
	if !listFilesRegex.MatchString(text) {
		return nil, false
	}

	args := tools.Args{}
	if m := listDirRegex.FindStringSubmatch(text); m != nil {
		if dir := strings.TrimRight(m[1], ".,;:!?"); dir != "" {
			args["path"] = tools.StringValue(dir)
		}
	}

	return &ToolCall{Name: "list_files", Args: args}, true
}
