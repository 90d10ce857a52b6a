// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Centralized styling for all rigagent CLI output.
//
// All commands use these shared styles instead of defining their own.
//
// Color handling:
// - Colors are automatically disabled for non-TTY output (piped, redirected)
// - Respects NO_COLOR environment variable (https://no-color.org/)
// - Supports FORCE_COLOR environment variable to override detection

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// init configures the lipgloss color profile from terminal capabilities.
// This respects NO_COLOR, FORCE_COLOR, the configured mode, and TTY state.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// ConfigureColors applies the configured color mode and refreshes the
// lipgloss profile. Commands call this once after loading config, before
// any styled output.
func ConfigureColors(mode string) {
	SetColorMode(mode)
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")). // Cyan
			MarginBottom(1)

	// SectionStyle is used for section headers within commands
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")) // White

	// LabelStyle is used for field labels, padded to a fixed width
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(20)

	// ValueStyle is used for regular values and text
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Off-white

	// SuccessStyle is used for success messages and OK statuses
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)

	// ErrorStyle is used for error messages and failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// WarningStyle is used for warnings and the approval prompt
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Yellow/Orange

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	// SeparatorStyle is used for visual separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Dark gray

	// ToolStyle marks tool activity lines in the chat transcript
	ToolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")) // Blue

	// PromptStyle is the REPL input prompt
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82")) // Bright green

	// DiffAddStyle renders added lines in diff previews
	DiffAddStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green, not bold

	// DiffDelStyle renders removed lines in diff previews
	DiffDelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160")) // Dark red, not bold
)

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal separator line of the given width.
// Default is 60 characters.
func RenderSeparator(width ...int) string {
	w := 60
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("-", w))
}

// RenderStatus renders a bracketed status tag with the matching color.
func RenderStatus(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass":
		return SuccessStyle.Render("[OK]")
	case "error", "fail", "failed":
		return ErrorStyle.Render("[FAIL]")
	case "warning", "warn", "pending":
		return WarningStyle.Render("[WARN]")
	default:
		return DimStyle.Render("[" + strings.ToUpper(status) + "]")
	}
}
