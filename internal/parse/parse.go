// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/jeranaias/rigagent/internal/tools"
)

// =============================================================================
// TYPES
// =============================================================================

// Strategy identifies which cascade stage recognized a tool call.
type Strategy int

const (
	// StrategyNone means no stage matched (parser miss).
	StrategyNone Strategy = iota

	// StrategyToolFence matched a ```tool fenced block.
	StrategyToolFence

	// StrategyJSONFence matched a ```json fenced block with a "tool" key.
	StrategyJSONFence

	// StrategyBareFence matched an untagged fenced block with a "tool" key.
	StrategyBareFence

	// StrategyInlineObject matched an inline {"tool": ..., "params": {...}}.
	StrategyInlineObject

	// StrategyInlineFlat matched an inline flat object starting with "tool".
	StrategyInlineFlat

	// StrategyInferred synthesized a call from natural-language phrasing.
	StrategyInferred
)

// String returns a stable identifier for logging and the action history.
func (s Strategy) String() string {
	switch s {
	case StrategyToolFence:
		return "tool_fence"
	case StrategyJSONFence:
		return "json_fence"
	case StrategyBareFence:
		return "bare_fence"
	case StrategyInlineObject:
		return "inline_object"
	case StrategyInlineFlat:
		return "inline_flat"
	case StrategyInferred:
		return "inferred"
	default:
		return "none"
	}
}

// Confidence grades how literally the model asked for the call.
type Confidence int

const (
	// ConfidenceNone accompanies a parser miss.
	ConfidenceNone Confidence = iota

	// ConfidenceHigh means the model emitted explicit JSON.
	ConfidenceHigh

	// ConfidenceLow means the call was inferred from prose.
	ConfidenceLow
)

// String returns a stable identifier for logging.
func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// ToolCall is a single tool invocation extracted from model output. It lives
// for one loop iteration only.
type ToolCall struct {
	Name string
	Args tools.Args
}

// Outcome is the result of one Parse call. A nil Call is a parser miss, not
// an error: the text is a plain answer.
type Outcome struct {
	Call       *ToolCall
	Strategy   Strategy
	Confidence Confidence
}

// Found reports whether a tool call was recognized.
func (o Outcome) Found() bool {
	return o.Call != nil
}

// =============================================================================
// RECOGNITION PATTERNS
// =============================================================================

var (
	// Fenced blocks, strictest tag first. (?s) lets the body span lines.
	toolFenceRegex = regexp.MustCompile("(?s)```tool\\s*({.+?})\\s*```")
	jsonFenceRegex = regexp.MustCompile("(?s)```json\\s*({.+?})\\s*```")
	bareFenceRegex = regexp.MustCompile("(?s)```\\s*({.+?})\\s*```")

	// Inline object with an explicit params/arguments mapping. One nesting
	// level, which is all the wire shape needs.
	inlineObjectRegex = regexp.MustCompile(`(?s)\{[^{}]*"tool"\s*:\s*"[^"]+"\s*,\s*"(?:params|arguments)"\s*:\s*\{[^{}]*\}[^{}]*\}`)

	// Inline flat object whose first key is "tool"; remaining keys are the
	// arguments.
	inlineFlatRegex = regexp.MustCompile(`\{\s*"tool"\s*:\s*"[^"]+"[^{}]*\}`)
)

// =============================================================================
// PARSE
// =============================================================================

// Parse extracts a tool call from model output. The cascade runs in order;
// the first strategy that produces a call wins. A miss returns a zero
// Outcome.
func Parse(text string) Outcome {
	if call, ok := parseFence(text, toolFenceRegex); ok {
		return Outcome{Call: call, Strategy: StrategyToolFence, Confidence: ConfidenceHigh}
	}
	if call, ok := parseFence(text, jsonFenceRegex); ok {
		return Outcome{Call: call, Strategy: StrategyJSONFence, Confidence: ConfidenceHigh}
	}
	if call, ok := parseFence(text, bareFenceRegex); ok {
		return Outcome{Call: call, Strategy: StrategyBareFence, Confidence: ConfidenceHigh}
	}
	if call, ok := parseInline(text, inlineObjectRegex); ok {
		return Outcome{Call: call, Strategy: StrategyInlineObject, Confidence: ConfidenceHigh}
	}
	if call, ok := parseInline(text, inlineFlatRegex); ok {
		return Outcome{Call: call, Strategy: StrategyInlineFlat, Confidence: ConfidenceHigh}
	}
	if call, ok := inferCall(text); ok {
		return Outcome{Call: call, Strategy: StrategyInferred, Confidence: ConfidenceLow}
	}
	return Outcome{}
}

// parseFence tries every block the fence pattern finds and returns the first
// body that decodes to a call. A fence whose body is not valid JSON simply
// fails the stage; later stages may still recognize the text.
func parseFence(text string, fence *regexp.Regexp) (*ToolCall, bool) {
	for _, m := range fence.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 || !strings.Contains(m[1], `"tool"`) {
			continue
		}
		if call, ok := decodeCall(m[1]); ok {
			return call, true
		}
	}
	return nil, false
}

// parseInline tries every inline candidate the pattern finds.
func parseInline(text string, pattern *regexp.Regexp) (*ToolCall, bool) {
	for _, m := range pattern.FindAllString(text, -1) {
		if call, ok := decodeCall(m); ok {
			return call, true
		}
	}
	return nil, false
}

// decodeCall decodes one JSON object into a ToolCall. The object must carry
// a non-empty "tool" key. Arguments come from a "params" or "arguments"
// mapping when present; otherwise every remaining top-level key is an
// argument (flat form).
func decodeCall(raw string) (*ToolCall, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false
	}

	name, ok := obj["tool"].(string)
	if !ok || name == "" {
		return nil, false
	}

	if params, ok := obj["params"].(map[string]interface{}); ok {
		return &ToolCall{Name: name, Args: tools.ArgsFromJSON(params)}, true
	}
	if arguments, ok := obj["arguments"].(map[string]interface{}); ok {
		return &ToolCall{Name: name, Args: tools.ArgsFromJSON(arguments)}, true
	}

	delete(obj, "tool")
	return &ToolCall{Name: name, Args: tools.ArgsFromJSON(obj)}, true
}
