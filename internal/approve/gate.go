// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package approve

import (
	"github.com/jeranaias/rigagent/internal/tools"
)

// =============================================================================
// CONFIRMATION GATE
// =============================================================================

// ApprovalFunc decides whether a destructive call may run. It receives the
// tool name and a one-line description of the call, and may block
// indefinitely waiting for user input.
type ApprovalFunc func(toolName, description string) bool

// Gate couples the classifier with an approval callback. A Gate belongs to
// one session; the callback is installed at setup and not changed mid-run.
type Gate struct {
	classifier *Classifier
	approve    ApprovalFunc
}

// NewGate creates a gate over the given classifier, with no callback
// installed.
func NewGate(classifier *Classifier) *Gate {
	return &Gate{classifier: classifier}
}

// SetApprovalFunc installs the callback consulted for destructive calls.
func (g *Gate) SetApprovalFunc(fn ApprovalFunc) {
	g.approve = fn
}

// Classifier returns the underlying classifier.
func (g *Gate) Classifier() *Classifier {
	return g.classifier
}

// NeedsApproval reports whether executing the named tool requires a verdict
// from the callback. Destructive tools with no callback installed do NOT
// need approval: headless runs execute them unchecked.
func (g *Gate) NeedsApproval(toolName string) bool {
	return g.approve != nil && g.classifier.IsDestructive(toolName)
}

// RequestApproval asks the callback for a verdict. With no callback
// installed the answer is always yes. May block until the user responds.
func (g *Gate) RequestApproval(toolName, description string) bool {
	if g.approve == nil {
		return true
	}
	return g.approve(toolName, description)
}

// Describe builds the one-line human description shown in approval prompts:
// the tool name plus its salient arguments, with long values truncated.
func Describe(toolName string, args tools.Args) string {
	summary := args.Summary(60)
	if summary == "" {
		return toolName
	}
	return toolName + " (" + summary + ")"
}
