// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"strings"
	"testing"

	"github.com/jeranaias/rigagent/internal/tools"
)

// TestBuildSystemPrompt_ListsEveryTool tests that the catalogue names every
// registered tool.
func TestBuildSystemPrompt_ListsEveryTool(t *testing.T) {
	reg := tools.NewDefaultRegistry()
	prompt := BuildSystemPrompt(reg)

	for _, name := range reg.Names() {
		if !strings.Contains(prompt, "- "+name+": ") {
			t.Errorf("prompt is missing catalogue entry for %q", name)
		}
	}
}

// TestBuildSystemPrompt_ParameterShapes tests that parameter lines carry
// name, type, and requiredness.
func TestBuildSystemPrompt_ParameterShapes(t *testing.T) {
	prompt := BuildSystemPrompt(tools.NewDefaultRegistry())

	if !strings.Contains(prompt, "path (string, required)") {
		t.Error("prompt should describe the path parameter shape")
	}
	if !strings.Contains(prompt, "content (string, required)") {
		t.Error("prompt should describe the content parameter shape")
	}
}

// TestBuildSystemPrompt_Protocol tests that the calling protocol and the
// output feedback convention are stated.
func TestBuildSystemPrompt_Protocol(t *testing.T) {
	prompt := BuildSystemPrompt(tools.NewDefaultRegistry())

	if !strings.Contains(prompt, "```tool") {
		t.Error("prompt should show the tool fence format")
	}
	if !strings.Contains(prompt, `"params"`) {
		t.Error("prompt should show the params wrapper")
	}
	if !strings.Contains(prompt, "Tool <name> output:") {
		t.Error("prompt should explain the output feedback prefix")
	}
}

// TestBuildSystemPrompt_Stable tests that the block is identical run-to-run
// for the same registry.
func TestBuildSystemPrompt_Stable(t *testing.T) {
	reg := tools.NewDefaultRegistry()

	first := BuildSystemPrompt(reg)
	second := BuildSystemPrompt(reg)
	if first != second {
		t.Error("prompt should be byte-identical for the same registry")
	}

	// A separately built registry with the same tools produces the same
	// catalogue, because registration order is fixed.
	other := BuildSystemPrompt(tools.NewDefaultRegistry())
	if first != other {
		t.Error("prompt should be stable across registry instances")
	}
}

// TestFormatParameters tests the parameter line renderer.
func TestFormatParameters(t *testing.T) {
	tests := []struct {
		name   string
		params []tools.Parameter
		want   string
	}{
		{
			name:   "no parameters",
			params: nil,
			want:   "none",
		},
		{
			name: "single required",
			params: []tools.Parameter{
				{Name: "path", Type: "string", Required: true},
			},
			want: "path (string, required)",
		},
		{
			name: "mixed requiredness",
			params: []tools.Parameter{
				{Name: "path", Type: "string", Required: true},
				{Name: "recursive", Type: "boolean", Required: false},
			},
			want: "path (string, required), recursive (boolean, optional)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatParameters(tt.params)
			if got != tt.want {
				t.Errorf("formatParameters() = %q, want %q", got, tt.want)
			}
		})
	}
}
