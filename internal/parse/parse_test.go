// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package parse

import (
	"testing"
)

// =============================================================================
// CASCADE STRATEGY TESTS
// =============================================================================

func TestParse_ToolFence(t *testing.T) {
	text := "I'll read that file.\n\n```tool\n{\"tool\": \"read_file\", \"params\": {\"path\": \"main.go\"}}\n```"

	out := Parse(text)
	if !out.Found() {
		t.Fatal("expected a tool call")
	}
	if out.Strategy != StrategyToolFence {
		t.Errorf("strategy = %v, want %v", out.Strategy, StrategyToolFence)
	}
	if out.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %v, want %v", out.Confidence, ConfidenceHigh)
	}
	if out.Call.Name != "read_file" {
		t.Errorf("name = %q, want read_file", out.Call.Name)
	}
	if got := out.Call.Args.GetString("path", ""); got != "main.go" {
		t.Errorf("path = %q, want main.go", got)
	}
}

func TestParse_JSONFence(t *testing.T) {
	text := "```json\n{\"tool\": \"list_files\", \"params\": {}}\n```"

	out := Parse(text)
	if !out.Found() {
		t.Fatal("expected a tool call")
	}
	if out.Strategy != StrategyJSONFence {
		t.Errorf("strategy = %v, want %v", out.Strategy, StrategyJSONFence)
	}
	if out.Call.Name != "list_files" {
		t.Errorf("name = %q, want list_files", out.Call.Name)
	}
}

func TestParse_JSONFenceWithoutToolKey(t *testing.T) {
	// A JSON fence without a "tool" key is data, not a call.
	text := "```json\n{\"name\": \"x\", \"value\": 1}\n```"

	if out := Parse(text); out.Found() {
		t.Errorf("expected a miss, got %v via %v", out.Call, out.Strategy)
	}
}

func TestParse_BareFence(t *testing.T) {
	text := "Here:\n```\n{\"tool\": \"list_files\"}\n```"

	out := Parse(text)
	if !out.Found() {
		t.Fatal("expected a tool call")
	}
	if out.Strategy != StrategyBareFence {
		t.Errorf("strategy = %v, want %v", out.Strategy, StrategyBareFence)
	}
	if out.Call.Name != "list_files" {
		t.Errorf("name = %q, want list_files", out.Call.Name)
	}
}

func TestParse_InlineObject(t *testing.T) {
	text := `I need to check the file first. {"tool": "read_file", "params": {"path": "x.go"}} Let me do that.`

	out := Parse(text)
	if !out.Found() {
		t.Fatal("expected a tool call")
	}
	if out.Strategy != StrategyInlineObject {
		t.Errorf("strategy = %v, want %v", out.Strategy, StrategyInlineObject)
	}
	if got := out.Call.Args.GetString("path", ""); got != "x.go" {
		t.Errorf("path = %q, want x.go", got)
	}
}

func TestParse_InlineObjectArgumentsAlias(t *testing.T) {
	text := `{"tool": "write_file", "arguments": {"path": "a.txt", "content": "hi"}}`

	out := Parse(text)
	if !out.Found() {
		t.Fatal("expected a tool call")
	}
	if got := out.Call.Args.GetString("content", ""); got != "hi" {
		t.Errorf("content = %q, want hi", got)
	}
}

func TestParse_InlineFlat(t *testing.T) {
	text := `Answer: {"tool": "read_file", "path": "x.go"} done`

	out := Parse(text)
	if !out.Found() {
		t.Fatal("expected a tool call")
	}
	if out.Strategy != StrategyInlineFlat {
		t.Errorf("strategy = %v, want %v", out.Strategy, StrategyInlineFlat)
	}
	if out.Call.Name != "read_file" {
		t.Errorf("name = %q, want read_file", out.Call.Name)
	}
	if got := out.Call.Args.GetString("path", ""); got != "x.go" {
		t.Errorf("path = %q, want x.go", got)
	}
}

// =============================================================================
// PRECEDENCE AND DETERMINISM TESTS
// =============================================================================

func TestParse_TaggedFenceBeatsInline(t *testing.T) {
	// Both a tagged fence and an inline flat call are present; the tagged
	// fence must win regardless of position.
	text := "{\"tool\": \"delete_file\", \"path\": \"b.txt\"}\n\n" +
		"```tool\n{\"tool\": \"read_file\", \"params\": {\"path\": \"a.txt\"}}\n```"

	out := Parse(text)
	if !out.Found() {
		t.Fatal("expected a tool call")
	}
	if out.Strategy != StrategyToolFence {
		t.Errorf("strategy = %v, want %v", out.Strategy, StrategyToolFence)
	}
	if out.Call.Name != "read_file" {
		t.Errorf("name = %q, want read_file (the fenced call)", out.Call.Name)
	}
}

func TestParse_BrokenFenceFallsThroughToInline(t *testing.T) {
	// The tool fence holds invalid JSON; the inline object later in the
	// text must still be recognized.
	text := "```tool\n{broken json}\n```\nFallback: {\"tool\": \"list_files\", \"params\": {}}"

	out := Parse(text)
	if !out.Found() {
		t.Fatal("expected a tool call")
	}
	if out.Strategy != StrategyInlineObject {
		t.Errorf("strategy = %v, want %v", out.Strategy, StrategyInlineObject)
	}
	if out.Call.Name != "list_files" {
		t.Errorf("name = %q, want list_files", out.Call.Name)
	}
}

func TestParse_MissIsDeterministic(t *testing.T) {
	// Mentioning the word tool is not a call; parsing twice gives the same
	// miss both times.
	texts := []string{
		`The "tool" key is documented below.`,
		`To use a tool, send {"tool": ...} as JSON.`,
		"Here is your answer: 42.",
		"```tool\n{\"tool\": \"x\", }\n```", // trailing comma, undecodable
	}

	for _, text := range texts {
		first := Parse(text)
		second := Parse(text)
		if first.Found() || second.Found() {
			t.Errorf("Parse(%q) found a call, want miss", text)
		}
		if first.Strategy != second.Strategy {
			t.Errorf("Parse(%q) not deterministic: %v vs %v", text, first.Strategy, second.Strategy)
		}
	}
}

func TestParse_EmptyAndWhitespace(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n"} {
		if out := Parse(text); out.Found() {
			t.Errorf("Parse(%q) found a call, want miss", text)
		}
	}
}

// =============================================================================
// VALUE TYPE PRESERVATION TESTS
// =============================================================================

func TestParse_PreservesNativeTypes(t *testing.T) {
	text := "```json\n{\"tool\": \"run_shell\", \"params\": {\"command\": \"ls\", \"count\": 3, \"force\": true, \"tags\": [1, 2]}}\n```"

	out := Parse(text)
	if !out.Found() {
		t.Fatal("expected a tool call")
	}

	args := out.Call.Args
	if got := args.GetString("command", ""); got != "ls" {
		t.Errorf("command = %q, want ls", got)
	}
	if got := args.GetInt("count", 0); got != 3 {
		t.Errorf("count = %d, want 3", got)
	}
	if got := args.GetBool("force", false); !got {
		t.Error("force = false, want true")
	}
	// Composite values degrade to their JSON text.
	if got := args.GetString("tags", ""); got != "[1,2]" {
		t.Errorf("tags = %q, want [1,2]", got)
	}
}

// =============================================================================
// STRATEGY LABEL TESTS
// =============================================================================

func TestStrategyString(t *testing.T) {
	tests := []struct {
		s    Strategy
		want string
	}{
		{StrategyNone, "none"},
		{StrategyToolFence, "tool_fence"},
		{StrategyJSONFence, "json_fence"},
		{StrategyBareFence, "bare_fence"},
		{StrategyInlineObject, "inline_object"},
		{StrategyInlineFlat, "inline_flat"},
		{StrategyInferred, "inferred"},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Strategy(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
