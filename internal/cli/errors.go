// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit code mapping for the rigagent CLI.
//
// RELIABILITY: Each failure class maps to a distinct exit code so that
// scripts and CI can branch on what went wrong without parsing stderr.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/rigagent/internal/agent"
	"github.com/jeranaias/rigagent/internal/ollama"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates the command completed normally.
	ExitSuccess = 0

	// ExitGeneralError covers failures with no more specific class.
	ExitGeneralError = 1

	// ExitUsageError indicates bad flags or arguments.
	ExitUsageError = 2

	// ExitConfigError indicates the configuration could not be loaded
	// or contains invalid values.
	ExitConfigError = 3

	// ExitModelError indicates the model backend is unreachable, the
	// model is missing, or a request to it failed.
	ExitModelError = 4

	// ExitIncomplete indicates the agent stopped without producing a
	// final answer (iteration budget exhausted or an unrecoverable
	// mid-run failure).
	ExitIncomplete = 5

	// ExitInterrupted indicates the user cancelled with Ctrl+C.
	ExitInterrupted = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError indicates invalid command-line flags or arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// NewUsageError creates a usage error with a formatted message.
func NewUsageError(format string, args ...interface{}) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// ConfigError indicates the configuration could not be loaded or is invalid.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError wraps an underlying error as a configuration failure.
func NewConfigError(message string, err error) *ConfigError {
	return &ConfigError{Message: message, Err: err}
}

// IncompleteError indicates the agent run ended without a final answer.
type IncompleteError struct {
	Outcome agent.RunOutcome
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("run ended without an answer (%s)", e.Outcome)
}

// NewIncompleteError creates an error for a run that did not answer.
func NewIncompleteError(outcome agent.RunOutcome) *IncompleteError {
	return &IncompleteError{Outcome: outcome}
}

// InterruptedError indicates the user cancelled the operation.
type InterruptedError struct{}

func (e *InterruptedError) Error() string {
	return "interrupted"
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to the appropriate process exit code.
// Typed errors are checked first; untyped errors fall back to message
// inspection so wrapped failures from lower layers still classify.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ExitConfigError
	}

	var incompleteErr *IncompleteError
	if errors.As(err, &incompleteErr) {
		return ExitIncomplete
	}

	var interruptedErr *InterruptedError
	if errors.As(err, &interruptedErr) {
		return ExitInterrupted
	}

	var transportErr *agent.TransportError
	if errors.As(err, &transportErr) {
		return ExitModelError
	}

	if ollama.IsNotRunning(err) || ollama.IsModelNotFound(err) || ollama.IsTimeout(err) {
		return ExitModelError
	}

	// Fall back to message inspection for errors from lower layers
	// that arrive without a recognized type.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "usage:") || strings.Contains(msg, "unknown flag"):
		return ExitUsageError
	case strings.Contains(msg, "config"):
		return ExitConfigError
	case strings.Contains(msg, "ollama") || strings.Contains(msg, "model"):
		return ExitModelError
	case strings.Contains(msg, "interrupt") || strings.Contains(msg, "cancel"):
		return ExitInterrupted
	default:
		return ExitGeneralError
	}
}
