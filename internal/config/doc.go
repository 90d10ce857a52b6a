// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for rigagent.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - AgentConfig: Orchestration loop budgets and timeouts
//   - ApprovalConfig: Destructive-tool confirmation and second factors
//   - OllamaConfig: Local model server connection settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RIGAGENT_*)
//   - ~/.rigagent/config.toml
//   - ~/.rigagent/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.Ollama.Model
//	budget := cfg.Agent.MaxIterations
package config
