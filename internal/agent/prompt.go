// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"strings"

	"github.com/jeranaias/rigagent/internal/tools"
)

// =============================================================================
// SYSTEM PROMPT
// =============================================================================

// BuildSystemPrompt renders the system message: the calling protocol plus a
// catalogue of every registered tool and its parameter shape. The catalogue
// follows registration order and a fixed line format, so the model sees an
// identical block run-to-run and its in-context behavior stays consistent.
func BuildSystemPrompt(registry *tools.Registry) string {
	var sb strings.Builder

	sb.WriteString("You are rigagent, an assistant that completes tasks on the user's machine ")
	sb.WriteString("by calling tools. All file paths are relative to the working directory; ")
	sb.WriteString("you cannot touch anything outside it.\n\n")

	sb.WriteString("To call a tool, reply with ONLY a fenced block tagged tool containing one JSON object:\n\n")
	sb.WriteString("```tool\n")
	sb.WriteString(`{"tool": "<name>", "params": {"<param>": <value>}}` + "\n")
	sb.WriteString("```\n\n")

	sb.WriteString("Available tools:\n\n")
	for _, t := range registry.All() {
		sb.WriteString("- ")
		sb.WriteString(t.Name())
		sb.WriteString(": ")
		sb.WriteString(tools.ShortDescription(t))
		sb.WriteString("\n  params: ")
		sb.WriteString(formatParameters(t.Parameters()))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("- Call at most one tool per reply, with nothing else in the reply.\n")
	sb.WriteString("- After each call you receive its output as the next user message, prefixed \"Tool <name> output:\".\n")
	sb.WriteString("- If a tool fails, read the failure text and try a different approach.\n")
	sb.WriteString("- Use only the tools and parameters listed above.\n")
	sb.WriteString("- When the task is done, reply with a plain-text answer and no tool block.\n")

	return sb.String()
}

// formatParameters renders one tool's parameter shape as a single stable
// line: "path (string, required), recursive (boolean, optional)".
func formatParameters(params []tools.Parameter) string {
	if len(params) == 0 {
		return "none"
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		req := "optional"
		if p.Required {
			req = "required"
		}
		parts = append(parts, p.Name+" ("+p.Type+", "+req+")")
	}
	return strings.Join(parts, ", ")
}
