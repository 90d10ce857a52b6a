// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command handler for the rigagent CLI.
//
// CONFIG: Validated config with safe defaults
// SECURITY: Secrets are never printed; only a fingerprint is shown.
//
// Command: config
// Short:   Show or change configuration
//
// Subcommands:
//   show (default)   Show current configuration
//   get <key>        Show a single value
//   set <key> <val>  Set a value (dot notation)
//   reset            Restore defaults
//   path             Show config file path
//
// Examples:
//   rigagent config show
//   rigagent config get ollama.model
//   rigagent config set ollama.model llama3.1:8b
//   rigagent config set agent.max_iterations 30
//   rigagent config reset --confirm
package cli

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/rigagent/internal/config"
)

// HandleConfigCommand handles the "config" command.
func HandleConfigCommand(args Args) error {
	ConfigureColors(config.Global().CLI.Color)

	switch args.Subcommand {
	case "", "show":
		return showConfig(args)

	case "get":
		if args.ConfigKey == "" {
			return NewUsageError("usage: rigagent config get <key>")
		}
		return getConfigValue(args.ConfigKey)

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return NewUsageError("usage: rigagent config set <key> <value>")
		}
		return setConfigValue(args.ConfigKey, args.ConfigVal)

	case "reset":
		return resetConfig(args)

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return NewConfigError("cannot resolve config path", err)
		}
		fmt.Println(path)
		return nil

	default:
		return NewUsageError("unknown config subcommand: %s (expected show, get, set, reset, or path)", args.Subcommand)
	}
}

// showConfig prints every key with secrets masked.
func showConfig(args Args) error {
	cfg := config.Global()

	if args.JSON {
		out := make(map[string]interface{})
		for _, key := range config.GetAllKeys() {
			val, err := cfg.Get(key)
			if err != nil {
				continue
			}
			out[key] = maskIfSecret(key, formatConfigValue(val))
		}
		printJSON(out)
		return nil
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render("Configuration"))
	fmt.Println(RenderSeparator())

	lastSection := ""
	for _, key := range config.GetAllKeys() {
		val, err := cfg.Get(key)
		if err != nil {
			continue
		}

		section := ""
		if idx := strings.Index(key, "."); idx > 0 {
			section = key[:idx]
		}
		if section != lastSection {
			fmt.Println()
			lastSection = section
		}

		fmt.Printf("  %s %s\n",
			DimStyle.Render(fmt.Sprintf("%-30s", key)),
			ValueStyle.Render(maskIfSecret(key, formatConfigValue(val))))
	}
	fmt.Println()
	return nil
}

// getConfigValue prints a single value with secrets masked.
func getConfigValue(key string) error {
	cfg := config.Global()

	val, err := cfg.Get(key)
	if err != nil {
		return NewUsageError("unknown config key: %s", key)
	}

	fmt.Println(maskIfSecret(key, formatConfigValue(val)))
	return nil
}

// setConfigValue updates one key and persists the file.
func setConfigValue(key, value string) error {
	cfg, err := loadForEdit()
	if err != nil {
		return NewConfigError("cannot load config", err)
	}

	if err := cfg.Set(key, value); err != nil {
		return NewUsageError("cannot set %s: %v", key, err)
	}

	if err := cfg.Validate(); err != nil {
		return NewUsageError("invalid value for %s: %v", key, err)
	}

	if err := config.Save(cfg); err != nil {
		return NewConfigError("cannot save config", err)
	}

	fmt.Printf("%s %s = %s\n",
		SuccessStyle.Render("[saved]"),
		key,
		maskIfSecret(key, value))

	// Later commands in this process should see the new value.
	config.SetGlobal(cfg)
	return nil
}

// resetConfig restores defaults, asking first unless --confirm was given.
func resetConfig(args Args) error {
	parser := NewArgParser(args.Raw)

	if !parser.BoolFlag("confirm") {
		if !CanPrompt() {
			return NewUsageError("config reset requires --confirm when not interactive")
		}
		fmt.Print(WarningStyle.Render("Reset configuration to defaults? [y/N]: "))
		if !isYes(readLine()) {
			fmt.Println(DimStyle.Render("Aborted."))
			return nil
		}
	}

	cfg := config.Default()
	cfg.SetDefaults()
	if err := config.Save(cfg); err != nil {
		return NewConfigError("cannot save config", err)
	}
	config.SetGlobal(cfg)

	fmt.Println(SuccessStyle.Render("[reset]") + " configuration restored to defaults")
	return nil
}

// loadForEdit reads the on-disk config without env overrides, so saving
// does not bake RIGAGENT_* values into the file.
func loadForEdit() (*config.Config, error) {
	cfg := config.Default()

	path, err := config.ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.SetDefaults()
	return cfg, nil
}

// =============================================================================
// VALUE FORMATTING
// =============================================================================

// formatConfigValue renders a config value for display.
func formatConfigValue(val interface{}) string {
	switch v := val.(type) {
	case []string:
		if len(v) == 0 {
			return "[]"
		}
		return strings.Join(v, ", ")
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isSecretKey reports whether a key holds sensitive material.
func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "secret") ||
		strings.Contains(lower, "pin") ||
		strings.Contains(lower, "token") ||
		strings.Contains(lower, "password")
}

// maskIfSecret replaces secret values with a short fingerprint so they can
// be compared without being revealed.
func maskIfSecret(key, value string) string {
	if !isSecretKey(key) {
		return value
	}
	if value == "" {
		return "[not set]"
	}
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("sha256:%x...", sum[:4])
}
