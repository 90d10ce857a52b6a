// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ledger

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigagent/internal/tools"
	"github.com/jeranaias/rigagent/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// UndoKind tags what an UndoPayload holds.
type UndoKind int

const (
	// UndoPriorContent restores the stored bytes over the file.
	UndoPriorContent UndoKind = iota

	// UndoNewFile marks a file that did not exist before the action; undo
	// removes it.
	UndoNewFile
)

// UndoPayload captures the pre-state of a file-mutating action.
type UndoPayload struct {
	// Kind selects the reverse operation.
	Kind UndoKind

	// Path is the path as supplied in the tool call, used in messages.
	Path string

	// AbsPath is the resolved path inside the workspace that undo touches.
	AbsPath string

	// Content holds the prior bytes when Kind is UndoPriorContent.
	Content []byte
}

// ActionRecord is one executed tool action. Records are append-only; only a
// successful undo removes one.
type ActionRecord struct {
	ID           string
	ToolName     string
	Args         tools.Args
	ResultOutput string
	Succeeded    bool
	Timestamp    time.Time

	// Undo is present only for successful file mutations. A record with a
	// payload must be reversible to the exact prior byte content.
	Undo *UndoPayload
}

// StalenessCheck reports whether the file at absPath changed on disk after
// the given time. UndoLast consults it so a revert over external edits
// carries a warning. A nil check disables the warning.
type StalenessCheck func(absPath string, since time.Time) bool

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the ordered action history for one session.
type Ledger struct {
	mu      sync.Mutex
	entries []ActionRecord
	stale   StalenessCheck
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// SetStalenessCheck installs the external-change check used by UndoLast.
func (l *Ledger) SetStalenessCheck(check StalenessCheck) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stale = check
}

// Record appends an action. A missing ID or timestamp is filled in. The
// completed record is returned so callers can persist it under the same ID.
func (l *Ledger) Record(rec ActionRecord) ActionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	l.entries = append(l.entries, rec)
	return rec
}

// Len returns the number of recorded actions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// PeekUndo returns the record the next UndoLast call would revert, without
// reverting it.
func (l *Ledger) PeekUndo() (ActionRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Undo != nil {
			return l.entries[i], true
		}
	}
	return ActionRecord{}, false
}

// UndoLast reverts the most recent undoable action and removes its record.
// The returned text is user-facing either way: a description of what was
// reverted, a clean "nothing to undo" when no record carries a payload, or
// the failure reason. A failed revert leaves the record in place so the undo
// can be retried.
func (l *Ledger) UndoLast() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.entries) - 1; i >= 0; i-- {
		rec := l.entries[i]
		if rec.Undo == nil {
			continue
		}

		// External edits after the action are about to be clobbered by the
		// revert. The user asked for the undo, so it proceeds, but not
		// silently.
		warn := l.stale != nil && l.stale(rec.Undo.AbsPath, rec.Timestamp)

		msg, err := revert(rec)
		if err != nil {
			return "Undo failed: " + err.Error()
		}
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
		if warn {
			msg += "\nWarning: " + rec.Undo.Path + " was modified outside this session after the action; those changes were overwritten."
		}
		return msg
	}
	return "Nothing to undo."
}

// Summary formats the last n actions, oldest first. n <= 0 means all.
func (l *Ledger) Summary(n int) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return "No actions recorded this session."
	}
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}

	var sb strings.Builder
	start := len(l.entries) - n
	for i, rec := range l.entries[start:] {
		status := "ok"
		if !rec.Succeeded {
			status = "failed"
		}

		line := util.IntToString(start+i+1) + ". " + rec.Timestamp.Format("15:04:05") + " " + rec.ToolName
		if args := rec.Args.Summary(40); args != "" {
			line += " (" + args + ")"
		}
		line += " " + status
		if rec.Undo != nil {
			line += " [undoable]"
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// =============================================================================
// PRE-STATE CAPTURE
// =============================================================================

// CapturePreState reads the pre-state of a file about to be written or
// deleted. An existing file yields its full bytes; an absent file yields the
// new-file sentinel. An unreadable file yields nil: no payload means the
// action cannot promise an exact byte-level reverse, so it is recorded as
// non-undoable rather than undone wrongly.
func CapturePreState(path, absPath string) *UndoPayload {
	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &UndoPayload{Kind: UndoNewFile, Path: path, AbsPath: absPath}
		}
		return nil
	}
	return &UndoPayload{Kind: UndoPriorContent, Path: path, AbsPath: absPath, Content: data}
}

// =============================================================================
// REVERT
// =============================================================================

// revert applies the reverse operation for one record.
func revert(rec ActionRecord) (string, error) {
	p := rec.Undo
	switch p.Kind {
	case UndoNewFile:
		if err := os.Remove(p.AbsPath); err != nil {
			return "", err
		}
		return "Undid " + rec.ToolName + ": removed " + p.Path, nil

	case UndoPriorContent:
		// The parent directory may have vanished since; recreate it.
		if err := util.AtomicWriteFileWithDir(p.AbsPath, p.Content, 0644, 0755); err != nil {
			return "", err
		}
		verb := "restored"
		if rec.ToolName == "delete_file" {
			verb = "recreated"
		}
		return "Undid " + rec.ToolName + ": " + verb + " " + p.Path +
			" (" + util.IntToString(len(p.Content)) + " bytes)", nil

	default:
		return "", errors.New("unknown undo payload kind")
	}
}
