// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for rigagent.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.rigagent/config.toml
//   - ~/.rigagent/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/rigagent/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigagent configuration.
type Config struct {
	// Version of the config schema
	Version string `toml:"version" json:"version"`

	// Agent loop configuration
	Agent AgentConfig `toml:"agent" json:"agent"`

	// Ollama client configuration
	Ollama OllamaConfig `toml:"ollama" json:"ollama"`

	// Approval gate configuration
	Approval ApprovalConfig `toml:"approval" json:"approval"`

	// Action history configuration
	History HistoryConfig `toml:"history" json:"history"`

	// Workspace watcher configuration
	Workspace WorkspaceConfig `toml:"workspace" json:"workspace"`

	// CLI configuration
	CLI CLIConfig `toml:"cli" json:"cli"`
}

// AgentConfig contains orchestration loop settings.
type AgentConfig struct {
	// MaxIterations is the think/act cycle ceiling per run (default: 20)
	MaxIterations int `toml:"max_iterations" json:"max_iterations"`
	// LLMTimeoutSecs is the per-response deadline for the model (default: 45)
	LLMTimeoutSecs int `toml:"llm_timeout_secs" json:"llm_timeout_secs"`
	// MaxTokens caps tokens per completion; -1 means unlimited (default: 4096)
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
	// ShellTimeoutSecs is the run_shell command deadline (default: 60)
	ShellTimeoutSecs int `toml:"shell_timeout_secs" json:"shell_timeout_secs"`
	// MaxToolOutputBytes truncates tool output before it re-enters the
	// conversation (default: 16384)
	MaxToolOutputBytes int `toml:"max_tool_output_bytes" json:"max_tool_output_bytes"`
	// Root is the sandbox root for file tools (empty = current directory)
	Root string `toml:"root" json:"root"`
}

// OllamaConfig contains local Ollama server settings.
type OllamaConfig struct {
	// URL is the Ollama API base URL
	URL string `toml:"url" json:"url"`
	// Model is the model used for completions
	Model string `toml:"model" json:"model"`
	// Temperature for sampling; 0 selects the client default
	Temperature float64 `toml:"temperature" json:"temperature"`
	// NumCtx is the context window size; 0 selects the server default
	NumCtx int `toml:"num_ctx" json:"num_ctx"`
	// RequestTimeoutSecs is the transport backstop per request (default: 120)
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// AutoStart launches "ollama serve" when the server is not running
	AutoStart bool `toml:"auto_start" json:"auto_start"`
}

// ApprovalConfig contains destructive-tool confirmation settings.
type ApprovalConfig struct {
	// ConfirmDestructive prompts before destructive tools when the harness is
	// interactive. SECURITY: headless runs execute unchecked regardless; this
	// only controls whether the interactive prompt is installed.
	ConfirmDestructive bool `toml:"confirm_destructive" json:"confirm_destructive"`
	// DestructiveTools marks additional tools destructive
	DestructiveTools []string `toml:"destructive_tools" json:"destructive_tools"`
	// SafeTools unmarks tools from the destructive set
	SafeTools []string `toml:"safe_tools" json:"safe_tools"`
	// Elevated requires a second factor (TOTP or PIN) on each approval
	Elevated bool `toml:"elevated" json:"elevated"`
	// TOTPSecret is the base32 TOTP secret; empty disables the TOTP factor
	TOTPSecret string `toml:"totp_secret" json:"totp_secret"`
	// PINHash is the hex PBKDF2-SHA256 hash of the PIN
	PINHash string `toml:"pin_hash" json:"pin_hash"`
	// PINSalt is the hex salt for PINHash
	PINSalt string `toml:"pin_salt" json:"pin_salt"`
}

// HistoryConfig contains the on-disk action history settings.
type HistoryConfig struct {
	// Enabled controls whether executed actions are persisted
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path to the sqlite database (empty = ~/.rigagent/history.db)
	Path string `toml:"path" json:"path"`
	// MaxRows prunes the oldest rows beyond this count (default: 10000)
	MaxRows int `toml:"max_rows" json:"max_rows"`
}

// WorkspaceConfig contains the filesystem watcher settings.
type WorkspaceConfig struct {
	// Watch tracks external changes so undo can warn about stale targets
	Watch bool `toml:"watch" json:"watch"`
	// DebounceMs coalesces watcher events (default: 300)
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms"`
}

// CLIConfig contains terminal harness settings.
type CLIConfig struct {
	// Color is the output mode: "auto", "always", "never"
	Color string `toml:"color" json:"color"`
	// RenderMarkdown renders final answers as markdown on a TTY
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
	// HistoryFile for REPL input history (empty = ~/.rigagent/repl_history)
	HistoryFile string `toml:"history_file" json:"history_file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Agent: AgentConfig{
			MaxIterations:      20,
			LLMTimeoutSecs:     45,
			MaxTokens:          4096,
			ShellTimeoutSecs:   60,
			MaxToolOutputBytes: 16384,
			Root:               "", // resolved to the current directory at startup
		},

		Ollama: OllamaConfig{
			URL:                "http://127.0.0.1:11434",
			Model:              "qwen2.5-coder:14b",
			Temperature:        0.2,
			NumCtx:             8192,
			RequestTimeoutSecs: 120,
			AutoStart:          true,
		},

		Approval: ApprovalConfig{
			ConfirmDestructive: true,
			Elevated:           false,
		},

		History: HistoryConfig{
			Enabled: true,
			MaxRows: 10000,
		},

		Workspace: WorkspaceConfig{
			Watch:      true,
			DebounceMs: 300,
		},

		CLI: CLIConfig{
			Color:          "auto",
			RenderMarkdown: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigagent configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigagent"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) because the
// approval section can hold a TOTP secret and PIN hash.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err // File doesn't exist or not accessible
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// No file found or file unreadable: validated defaults, with any load
	// error passed along for informational purposes.
	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finishLoad applies env overrides, defaults, and validation to a decoded config.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
// Fields absent from the file keep whatever cfg already holds, so decoding
// over Default() preserves default-true booleans.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems; warn and continue.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# rigagent configuration file")
	fmt.Fprintln(file, "# Generated by rigagent - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Agent Settings Validation
	// ==========================================================================

	if c.Agent.MaxIterations < 1 || c.Agent.MaxIterations > 100 {
		errs = append(errs, ValidationError{
			Field:   "agent.max_iterations",
			Message: fmt.Sprintf("must be 1-100, got %d", c.Agent.MaxIterations),
		})
	}

	if c.Agent.LLMTimeoutSecs < 5 || c.Agent.LLMTimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "agent.llm_timeout_secs",
			Message: fmt.Sprintf("must be 5-600, got %d", c.Agent.LLMTimeoutSecs),
		})
	}

	// -1 means unlimited
	if c.Agent.MaxTokens != -1 && (c.Agent.MaxTokens < 1 || c.Agent.MaxTokens > 65536) {
		errs = append(errs, ValidationError{
			Field:   "agent.max_tokens",
			Message: fmt.Sprintf("must be -1 (unlimited) or 1-65536, got %d", c.Agent.MaxTokens),
		})
	}

	if c.Agent.ShellTimeoutSecs < 1 || c.Agent.ShellTimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "agent.shell_timeout_secs",
			Message: fmt.Sprintf("must be 1-600, got %d", c.Agent.ShellTimeoutSecs),
		})
	}

	if c.Agent.MaxToolOutputBytes < 1024 {
		errs = append(errs, ValidationError{
			Field:   "agent.max_tool_output_bytes",
			Message: fmt.Sprintf("must be at least 1024, got %d", c.Agent.MaxToolOutputBytes),
		})
	}

	// ==========================================================================
	// Ollama Settings Validation
	// ==========================================================================

	if c.Ollama.URL != "" {
		if u, err := url.Parse(c.Ollama.URL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "ollama.url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, ValidationError{
				Field:   "ollama.url",
				Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
			})
		}
	}

	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "ollama.temperature",
			Message: fmt.Sprintf("must be 0.0-2.0, got %g", c.Ollama.Temperature),
		})
	}

	if c.Ollama.NumCtx != 0 && c.Ollama.NumCtx < 512 {
		errs = append(errs, ValidationError{
			Field:   "ollama.num_ctx",
			Message: fmt.Sprintf("must be 0 (server default) or at least 512, got %d", c.Ollama.NumCtx),
		})
	}

	if c.Ollama.RequestTimeoutSecs < 5 || c.Ollama.RequestTimeoutSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "ollama.request_timeout_secs",
			Message: fmt.Sprintf("must be 5-3600, got %d", c.Ollama.RequestTimeoutSecs),
		})
	}

	// ==========================================================================
	// Approval Settings Validation
	// ==========================================================================

	// SECURITY: elevated approval with no factor configured would deny every
	// destructive action; reject the config instead of failing silently.
	if c.Approval.Elevated && c.Approval.TOTPSecret == "" && c.Approval.PINHash == "" {
		errs = append(errs, ValidationError{
			Field:   "approval.elevated",
			Message: "requires totp_secret or pin_hash to be configured",
		})
	}

	if (c.Approval.PINHash == "") != (c.Approval.PINSalt == "") {
		errs = append(errs, ValidationError{
			Field:   "approval.pin_hash",
			Message: "pin_hash and pin_salt must be set together",
		})
	}

	// ==========================================================================
	// History Settings Validation
	// ==========================================================================

	if c.History.MaxRows < 0 || c.History.MaxRows > 1000000 {
		errs = append(errs, ValidationError{
			Field:   "history.max_rows",
			Message: fmt.Sprintf("must be 0-1000000, got %d", c.History.MaxRows),
		})
	}

	// ==========================================================================
	// Workspace Settings Validation
	// ==========================================================================

	if c.Workspace.DebounceMs < 0 || c.Workspace.DebounceMs > 10000 {
		errs = append(errs, ValidationError{
			Field:   "workspace.debounce_ms",
			Message: fmt.Sprintf("must be 0-10000, got %d", c.Workspace.DebounceMs),
		})
	}

	// ==========================================================================
	// CLI Settings Validation
	// ==========================================================================

	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[strings.ToLower(c.CLI.Color)] {
		errs = append(errs, ValidationError{
			Field:   "cli.color",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: auto, always, never", c.CLI.Color),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
// Booleans are handled by decoding over Default(), so only strings and
// numbers need repair here.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	// Agent defaults
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = defaults.Agent.MaxIterations
	}
	if c.Agent.LLMTimeoutSecs == 0 {
		c.Agent.LLMTimeoutSecs = defaults.Agent.LLMTimeoutSecs
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = defaults.Agent.MaxTokens
	}
	if c.Agent.ShellTimeoutSecs == 0 {
		c.Agent.ShellTimeoutSecs = defaults.Agent.ShellTimeoutSecs
	}
	if c.Agent.MaxToolOutputBytes == 0 {
		c.Agent.MaxToolOutputBytes = defaults.Agent.MaxToolOutputBytes
	}

	// Ollama defaults
	if c.Ollama.URL == "" {
		c.Ollama.URL = defaults.Ollama.URL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = defaults.Ollama.Model
	}
	// Temperature and NumCtx are left alone: zero means "use the client or
	// server default" and must survive a round-trip.
	if c.Ollama.RequestTimeoutSecs == 0 {
		c.Ollama.RequestTimeoutSecs = defaults.Ollama.RequestTimeoutSecs
	}

	// History defaults
	if c.History.MaxRows == 0 {
		c.History.MaxRows = defaults.History.MaxRows
	}

	// Workspace defaults
	if c.Workspace.DebounceMs == 0 {
		c.Workspace.DebounceMs = defaults.Workspace.DebounceMs
	}

	// CLI defaults
	if c.CLI.Color == "" {
		c.CLI.Color = defaults.CLI.Color
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RIGAGENT_MODEL: overrides ollama.model
//   - RIGAGENT_OLLAMA_URL: overrides ollama.url
//   - RIGAGENT_ROOT: overrides agent.root (the file-tool sandbox root)
//   - RIGAGENT_MAX_ITERATIONS: overrides agent.max_iterations
//   - RIGAGENT_NO_CONFIRM: set to "1" or "true" to skip destructive prompts
//   - RIGAGENT_NO_HISTORY: set to "1" or "true" to disable the action history
//   - RIGAGENT_COLOR: overrides cli.color
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("RIGAGENT_MODEL"); model != "" {
		c.Ollama.Model = model
	}

	if u := os.Getenv("RIGAGENT_OLLAMA_URL"); u != "" {
		c.Ollama.URL = u
	}

	if root := os.Getenv("RIGAGENT_ROOT"); root != "" {
		c.Agent.Root = root
	}

	if iters := os.Getenv("RIGAGENT_MAX_ITERATIONS"); iters != "" {
		if n, err := strconv.Atoi(iters); err == nil {
			c.Agent.MaxIterations = n
		}
	}

	if noConfirm := os.Getenv("RIGAGENT_NO_CONFIRM"); noConfirm != "" {
		if noConfirm == "1" || strings.ToLower(noConfirm) == "true" {
			c.Approval.ConfirmDestructive = false
		}
	}

	if noHistory := os.Getenv("RIGAGENT_NO_HISTORY"); noHistory != "" {
		if noHistory == "1" || strings.ToLower(noHistory) == "true" {
			c.History.Enabled = false
		}
	}

	if color := os.Getenv("RIGAGENT_COLOR"); color != "" {
		c.CLI.Color = color
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "agent.max_iterations").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "cli.color").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	// Well-known initialisms that don't follow simple capitalization
	switch strings.ToLower(name) {
	case "cli":
		return "CLI"
	case "url":
		return "URL"
	case "llm_timeout_secs":
		return "LLMTimeoutSecs"
	case "totp_secret":
		return "TOTPSecret"
	case "pin_hash":
		return "PINHash"
	case "pin_salt":
		return "PINSalt"
	}

	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// Handle string input with type conversion
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	// Direct assignment for matching types
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	// Type conversion for compatible types
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"agent.max_iterations",
		"agent.llm_timeout_secs",
		"agent.max_tokens",
		"agent.shell_timeout_secs",
		"agent.max_tool_output_bytes",
		"agent.root",
		"ollama.url",
		"ollama.model",
		"ollama.temperature",
		"ollama.num_ctx",
		"ollama.request_timeout_secs",
		"ollama.auto_start",
		"approval.confirm_destructive",
		"approval.destructive_tools",
		"approval.safe_tools",
		"approval.elevated",
		"approval.totp_secret",
		"approval.pin_hash",
		"approval.pin_salt",
		"history.enabled",
		"history.path",
		"history.max_rows",
		"workspace.watch",
		"workspace.debounce_ms",
		"cli.color",
		"cli.render_markdown",
		"cli.history_file",
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// LLMTimeout returns the model response deadline as a Duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.Agent.LLMTimeoutSecs) * time.Second
}

// ShellTimeout returns the run_shell deadline as a Duration.
func (c *Config) ShellTimeout() time.Duration {
	return time.Duration(c.Agent.ShellTimeoutSecs) * time.Second
}

// RequestTimeout returns the Ollama transport backstop as a Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Ollama.RequestTimeoutSecs) * time.Second
}

// Debounce returns the workspace watcher debounce as a Duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Workspace.DebounceMs) * time.Millisecond
}

// RootDir resolves the file-tool sandbox root: the configured value, or the
// current directory when unset.
func (c *Config) RootDir() (string, error) {
	if c.Agent.Root != "" {
		return filepath.Abs(c.Agent.Root)
	}
	return os.Getwd()
}

// HistoryPath resolves the sqlite database path, defaulting under the config dir.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// REPLHistoryPath resolves the liner history file path, defaulting under the
// config dir.
func (c *Config) REPLHistoryPath() (string, error) {
	if c.CLI.HistoryFile != "" {
		return c.CLI.HistoryFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "repl_history"), nil
}

// =============================================================================
// COPY / DEBUG HELPERS
// =============================================================================

// Clone creates a deep copy of the configuration.
// SECURITY: The slice fields (destructive_tools, safe_tools) must not be
// shared: a caller mutating the gate's tool lists through a stale reference
// would silently change what requires confirmation.
func (c *Config) Clone() *Config {
	clone := *c

	if c.Approval.DestructiveTools != nil {
		clone.Approval.DestructiveTools = append([]string(nil), c.Approval.DestructiveTools...)
	}
	if c.Approval.SafeTools != nil {
		clone.Approval.SafeTools = append([]string(nil), c.Approval.SafeTools...)
	}

	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the second-factor material so it cannot leak through
// logs or terminal scrollback.
func (c *Config) String() string {
	safe := c.Clone()

	if safe.Approval.TOTPSecret != "" {
		safe.Approval.TOTPSecret = "[REDACTED]"
	}
	if safe.Approval.PINHash != "" {
		safe.Approval.PINHash = "[REDACTED]"
	}
	if safe.Approval.PINSalt != "" {
		safe.Approval.PINSalt = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
//
// The agent core never reaches for this; it takes explicit dependencies.
// Global exists for the CLI entry points only.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
