// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Interactive approval prompt for destructive tool calls.
//
// SECURITY: Destructive actions stop here. The prompt defaults to No,
// denies when stdin is not a terminal, and re-checks the elevation
// second factor when one is configured.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/rigagent/internal/approve"
	"github.com/jeranaias/rigagent/internal/diff"
	"github.com/jeranaias/rigagent/internal/tools"
)

// previewMaxLines caps the content preview shown for file writes.
const previewMaxLines = 20

// previewMaxBytes caps how large an existing file the preview will diff
// against. Larger targets fall back to the plain content preview.
const previewMaxBytes = 256 * 1024

// approvalPrompt implements the interactive confirmation flow wired into
// the approval gate. The agent loop delivers the pending call's full
// arguments through NoteRequest just before Confirm runs; both execute
// sequentially on the loop goroutine, so no locking is needed.
type approvalPrompt struct {
	elevation *approve.Elevation
	autoYes   bool
	quiet     bool
	workDir   string

	pendingName string
	pendingArgs tools.Args
}

// newApprovalPrompt creates a prompt. elevation may be nil when no second
// factor is configured. autoYes approves everything without asking.
// workDir anchors relative paths when previewing file writes.
func newApprovalPrompt(elevation *approve.Elevation, autoYes, quiet bool, workDir string) *approvalPrompt {
	return &approvalPrompt{
		elevation: elevation,
		autoYes:   autoYes,
		quiet:     quiet,
		workDir:   workDir,
	}
}

// NoteRequest records the pending call's arguments for preview rendering.
// Wired to the agent's approval-request event.
func (p *approvalPrompt) NoteRequest(name string, args tools.Args) {
	p.pendingName = name
	p.pendingArgs = args
}

// Confirm asks the user to approve a destructive action. Wired to the
// gate's approval callback. Returns false on anything except an explicit
// yes (and a valid elevation code when one is required).
func (p *approvalPrompt) Confirm(toolName, description string) bool {
	defer func() {
		p.pendingName = ""
		p.pendingArgs = nil
	}()

	if p.autoYes {
		if !p.quiet {
			fmt.Fprintf(os.Stderr, "%s %s\n", DimStyle.Render("[auto-approved]"), description)
		}
		return true
	}

	// SECURITY: No terminal means nobody can answer; deny rather than hang.
	if !CanPrompt() {
		fmt.Fprintf(os.Stderr, "%s %s (no terminal; use --yes to approve)\n",
			ErrorStyle.Render("[denied]"), description)
		return false
	}

	fmt.Println()
	fmt.Printf("%s %s\n", WarningStyle.Render("Approval required:"), description)
	p.printPreview(toolName)
	fmt.Print(WarningStyle.Render("Proceed? [y/N]: "))

	answer := readLine()
	if !isYes(answer) {
		return false
	}

	if p.elevation != nil && p.elevation.Enabled() {
		fmt.Print(WarningStyle.Render("Elevation code: "))
		code := readLine()
		if !p.elevation.Verify(code) {
			fmt.Println(ErrorStyle.Render("Invalid elevation code, action denied."))
			return false
		}
	}

	return true
}

// printPreview shows what a file write would put on disk, so approval is
// informed rather than blind. Overwrites render as a unified diff against
// the current file; new files show the content itself. Other tools get
// enough from the description.
func (p *approvalPrompt) printPreview(toolName string) {
	if p.pendingName != toolName || toolName != "write_file" || p.pendingArgs == nil {
		return
	}

	content := p.pendingArgs.GetString("content", "")
	if content == "" {
		return
	}
	path := p.pendingArgs.GetString("path", "")

	if existing, ok := p.readExisting(path); ok {
		p.printDiffPreview(path, existing, content)
		return
	}
	p.printContentPreview(path, content)
}

// readExisting loads the file a write would overwrite, if there is one
// inside the workspace and it is small enough to diff.
func (p *approvalPrompt) readExisting(path string) (string, bool) {
	if p.workDir == "" || path == "" {
		return "", false
	}
	abs, err := tools.ResolvePath(p.workDir, path)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() || info.Size() > previewMaxBytes {
		return "", false
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// printDiffPreview renders a colored unified diff of the pending write.
func (p *approvalPrompt) printDiffPreview(path, before, after string) {
	d := diff.Compute(path, before, after)
	if !d.Changed() {
		fmt.Println(DimStyle.Render("(file already has this exact content)"))
		return
	}

	total := 0
	for _, h := range d.Hunks {
		total += len(h.Lines)
	}

	fmt.Println(DimStyle.Render(fmt.Sprintf("--- diff preview (%s) ---", d.Summary())))
	shown := 0
	for _, h := range d.Hunks {
		if shown >= previewMaxLines {
			break
		}
		fmt.Println(DimStyle.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@",
			h.OldStart, h.OldCount, h.NewStart, h.NewCount)))
		for _, ln := range h.Lines {
			if shown >= previewMaxLines {
				break
			}
			text := ln.Kind.Prefix() + ln.Text
			switch ln.Kind {
			case diff.KindAdded:
				fmt.Println(DiffAddStyle.Render(text))
			case diff.KindRemoved:
				fmt.Println(DiffDelStyle.Render(text))
			default:
				fmt.Println(DimStyle.Render(text))
			}
			shown++
		}
	}
	if total > shown {
		fmt.Println(DimStyle.Render(fmt.Sprintf("... (%d more diff lines)", total-shown)))
	}
	fmt.Println(DimStyle.Render("--- end preview ---"))
}

// printContentPreview renders the full content of a new file, syntax
// highlighted when the terminal supports it.
func (p *approvalPrompt) printContentPreview(path, content string) {
	lines := strings.Split(content, "\n")
	shown := lines
	truncated := 0
	if len(lines) > previewMaxLines {
		shown = lines[:previewMaxLines]
		truncated = len(lines) - previewMaxLines
	}

	fmt.Println(DimStyle.Render("--- content preview ---"))
	fmt.Println(highlightCode(strings.Join(shown, "\n"), languageForPath(path)))
	if truncated > 0 {
		fmt.Println(DimStyle.Render(fmt.Sprintf("... (%d more lines)", truncated)))
	}
	fmt.Println(DimStyle.Render("--- end preview ---"))
}

// readLine reads a single trimmed line from stdin.
func readLine() string {
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// isYes reports whether an answer is an explicit yes.
func isYes(answer string) bool {
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
