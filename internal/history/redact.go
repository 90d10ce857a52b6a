// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"regexp"
)

// ============================================================================
// SECRET REDACTION
// ============================================================================
// SECURITY: Tool output routinely contains file contents and shell output,
// which is exactly where credentials leak. Everything persisted to disk goes
// through the redactors first; the in-memory ledger keeps the raw output for
// the current process only.

// Redactor sanitizes sensitive data before it is persisted.
type Redactor interface {
	// Redact returns the input with sensitive data masked
	Redact(input string) string

	// Name returns the redactor name for diagnostics
	Name() string
}

// PatternRedactor redacts matches of a regex pattern.
type PatternRedactor struct {
	name    string
	pattern *regexp.Regexp
	replace string
}

// NewPatternRedactor creates a redactor that replaces pattern matches.
func NewPatternRedactor(name, pattern, replace string) (*PatternRedactor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &PatternRedactor{
		name:    name,
		pattern: re,
		replace: replace,
	}, nil
}

// Redact replaces all pattern matches with the replacement string.
func (r *PatternRedactor) Redact(input string) string {
	return r.pattern.ReplaceAllString(input, r.replace)
}

// Name returns the redactor name.
func (r *PatternRedactor) Name() string {
	return r.name
}

// Common secret patterns. Deliberately scoped to formats with distinctive
// prefixes; a bare high-entropy matcher would mangle git SHAs and checksums,
// which show up constantly in legitimate tool output.
var secretPatterns = []struct {
	name    string
	pattern string
	replace string
}{
	{
		name:    "openai-api-key",
		pattern: `sk-[a-zA-Z0-9]{20,}`,
		replace: "[OPENAI_KEY_REDACTED]",
	},
	{
		name:    "github-token",
		pattern: `gh[pousr]_[a-zA-Z0-9]{36,}`,
		replace: "[GITHUB_TOKEN_REDACTED]",
	},
	{
		name:    "aws-access-key",
		pattern: `AKIA[0-9A-Z]{16}`,
		replace: "[AWS_KEY_REDACTED]",
	},
	{
		name:    "bearer-token",
		pattern: `Bearer\s+[a-zA-Z0-9_\-\.]+`,
		replace: "Bearer [REDACTED]",
	},
	{
		name:    "password-field",
		pattern: `(?i)(password|passwd|pwd)\s*[=:]\s*\S+`,
		replace: "$1=[REDACTED]",
	},
	{
		name:    "jwt-token",
		pattern: `eyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+`,
		replace: "[JWT_REDACTED]",
	},
	{
		name:    "private-key-block",
		pattern: `-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`,
		replace: "[PRIVATE_KEY_REDACTED]",
	},
}

// defaultRedactors builds the standard redactor set.
func defaultRedactors() []Redactor {
	redactors := make([]Redactor, 0, len(secretPatterns))
	for _, p := range secretPatterns {
		r, err := NewPatternRedactor(p.name, p.pattern, p.replace)
		if err != nil {
			// Patterns are compile-time constants; a failure here is a
			// programming error, not a runtime condition.
			panic("history: invalid redaction pattern " + p.name + ": " + err.Error())
		}
		redactors = append(redactors, r)
	}
	return redactors
}

// redactAll runs the input through every redactor in order.
func redactAll(redactors []Redactor, input string) string {
	for _, r := range redactors {
		input = r.Redact(input)
	}
	return input
}
