// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for rigagent.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdRun
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Yes     bool   // Skip approval prompts (approve everything)
	JSON    bool   // Output in JSON format
	Model   string // Override configured model
	Root    string // Override working directory root
	MaxIter int    // Override maximum agent iterations (0 = use config)

	// Command-specific
	Query      string
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `rigagent - local LLM agent for the command line

Rigagent runs an agentic loop against a local Ollama model: the model
proposes tool calls, rigagent executes them inside a sandboxed working
directory, and destructive actions require your approval first.

Usage:
  rigagent                   Start interactive chat (default)
  rigagent chat              Interactive chat with slash commands
  rigagent run "task"        Run a single task and exit
  rigagent history           Inspect recorded actions
  rigagent config [show|set] Configuration
  rigagent version           Show version information
  rigagent help              Show this help

Chat Slash Commands:
  /help                      Show available commands
  /tools                     List registered tools
  /undo                      Undo the last reversible action
  /history [n]               Show recent actions for this session
  /clear                     Clear conversation context
  /quit                      Exit chat

History Commands:
  rigagent history show          Show recent actions (default: 20)
    --limit N                    Show last N actions
    --session ID                 Filter by session
    --json                       Output in JSON format
  rigagent history count         Show total recorded actions
  rigagent history path          Show history database path

Config Commands:
  rigagent config show           Show current configuration
  rigagent config get <key>      Show a single value
  rigagent config set <key> <value>
                                 Set a value (dot notation, e.g.
                                 agent.max_iterations, ollama.model)
  rigagent config reset          Restore defaults
  rigagent config path           Show config file path

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  -y, --yes       Approve all destructive actions without prompting
  --json          Output in JSON format where supported
  --model NAME    Override configured model
  --root DIR      Working directory root for tools (default: cwd)
  --max-iter N    Maximum agent iterations per task

Examples:
  # Interactive use
  rigagent                            Start chat
  rigagent chat --model qwen2.5:14b   Chat with a specific model

  # One-shot tasks
  rigagent run "list the go files here and summarize them"
  rigagent run "fix the typo in README.md" --root ~/project
  rigagent run "clean up temp files" --yes --max-iter 30

  # Inspecting past actions
  rigagent history show --limit 50
  rigagent history show --json

  # Configuration
  rigagent config show
  rigagent config set ollama.model llama3.1:8b
  rigagent config set approval.confirm_destructive true

Environment:
  NO_COLOR        Disable colored output
  FORCE_COLOR     Force colored output even when piped
  RIGAGENT_*      Override any config key (e.g. RIGAGENT_OLLAMA_URL)

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("rigagent version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to interactive chat
	if len(remaining) == 0 {
		return CmdChat, parsedArgs
	}

	// Check first argument for command
	first := remaining[0]
	cmd := strings.ToLower(first)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "chat":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "run", "do":
		parseRunArgs(&parsedArgs, remaining)
		return CmdRun, parsedArgs

	case "history", "log":
		// Detailed argument parsing is done in history_cmd.go
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdHistory, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - treat it as a direct task for the run command
		parsedArgs.Raw = append([]string{first}, remaining...)
		parseRunArgs(&parsedArgs, parsedArgs.Raw)
		return CmdRun, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "-y", "--yes":
			parsedArgs.Yes = true
		case "--json":
			parsedArgs.JSON = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		case "--root":
			if i+1 < len(args) {
				i++
				parsedArgs.Root = args[i]
			}
		case "--max-iter":
			if i+1 < len(args) {
				i++
				if n, err := strconv.Atoi(args[i]); err == nil && n > 0 {
					parsedArgs.MaxIter = n
				}
			}
		default:
			// Check for --flag=value formats
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--root="):
				parsedArgs.Root = strings.TrimPrefix(arg, "--root=")
			case strings.HasPrefix(arg, "--max-iter="):
				if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--max-iter=")); err == nil && n > 0 {
					parsedArgs.MaxIter = n
				}
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseRunArgs parses run command specific arguments.
// Positional words join into the task; flags mirror the global set so
// "rigagent run task --model x" and "rigagent --model x run task" both work.
func parseRunArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--root":
			if i+1 < len(remaining) {
				i++
				args.Root = remaining[i]
			}
		case "-y", "--yes":
			args.Yes = true
		case "--max-iter":
			if i+1 < len(remaining) {
				i++
				if n, err := strconv.Atoi(remaining[i]); err == nil && n > 0 {
					args.MaxIter = n
				}
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				args.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--root="):
				args.Root = strings.TrimPrefix(arg, "--root=")
			case strings.HasPrefix(arg, "--max-iter="):
				if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--max-iter=")); err == nil && n > 0 {
					args.MaxIter = n
				}
			case !strings.HasPrefix(arg, "-"):
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseChatArgs parses chat command specific arguments.
func parseChatArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--root":
			if i+1 < len(remaining) {
				i++
				args.Root = remaining[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				args.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--root="):
				args.Root = strings.TrimPrefix(arg, "--root=")
			}
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// ERROR HANDLING: Errors must not be silently ignored

// HandleChat handles the "chat" command.
// This delegates to the full implementation in chat.go.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleRun handles the "run" command.
// This delegates to the full implementation in run.go.
func HandleRun(args Args) {
	if err := HandleRunCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleHistory handles the "history" command.
// This delegates to the full implementation in history_cmd.go.
func HandleHistory(args Args) {
	if err := HandleHistoryCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleConfig handles the "config" command.
// This delegates to the full implementation in config_cmd.go.
func HandleConfig(args Args) {
	if err := HandleConfigCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		printJSON(map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
		})
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
