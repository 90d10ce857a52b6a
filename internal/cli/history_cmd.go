// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Action history command handler for the rigagent CLI.
//
// Handles "rigagent history": inspects the persistent action store
// without touching the model backend, so it works offline.
//
// Command: history
// Short:   Inspect recorded actions
// Aliases: log
//
// Subcommands:
//   show (default)   Show recent actions
//   count            Show total recorded actions
//   path             Show history database path
//
// Examples:
//   rigagent history show --limit 50
//   rigagent history show --session 7f3a
//   rigagent history show --json
//   rigagent history count
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/rigagent/internal/config"
	"github.com/jeranaias/rigagent/internal/history"
	"github.com/jeranaias/rigagent/internal/util"
)

// defaultHistoryLimit is how many entries "history show" prints by default.
const defaultHistoryLimit = 20

// historyEntryJSON is the JSON shape for --json output.
type historyEntryJSON struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	Tool       string `json:"tool"`
	Args       string `json:"args"`
	Output     string `json:"output"`
	Succeeded  bool   `json:"succeeded"`
	Strategy   string `json:"strategy"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// HandleHistoryCommand handles the "history" command.
func HandleHistoryCommand(args Args) error {
	cfg := config.Global()
	ConfigureColors(cfg.CLI.Color)

	parser := NewArgParser(args.Raw)

	path, err := cfg.HistoryPath()
	if err != nil {
		return NewConfigError("cannot resolve history path", err)
	}

	// path needs no database access
	if parser.Subcommand() == "path" {
		fmt.Println(path)
		return nil
	}

	// Opening creates the database; a read command should not do that.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println(DimStyle.Render("No actions recorded yet."))
		return nil
	}

	store, err := history.Open(path, cfg.History.MaxRows)
	if err != nil {
		return fmt.Errorf("cannot open history: %w", err)
	}
	defer store.Close()

	switch parser.Subcommand() {
	case "", "show":
		return showHistory(store, parser, args.JSON || parser.BoolFlag("json"))

	case "count":
		return showHistoryCount(store, args.JSON || parser.BoolFlag("json"))

	default:
		return NewUsageError("unknown history subcommand: %s (expected show, count, or path)", parser.Subcommand())
	}
}

// showHistory prints recent entries, optionally filtered by session.
func showHistory(store *history.Store, parser *ArgParser, asJSON bool) error {
	limit := parser.FlagIntOrDefault("limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var entries []history.Entry
	var err error
	if session := parser.Flag("session"); session != "" {
		entries, err = store.BySession(session, limit)
	} else {
		entries, err = store.Recent(limit)
	}
	if err != nil {
		return fmt.Errorf("cannot read history: %w", err)
	}

	if asJSON {
		out := make([]historyEntryJSON, 0, len(entries))
		for _, e := range entries {
			out = append(out, historyEntryJSON{
				ID:         e.ID,
				SessionID:  e.SessionID,
				Tool:       e.Tool,
				Args:       e.ArgsJSON,
				Output:     e.Output,
				Succeeded:  e.Succeeded,
				Strategy:   e.Strategy,
				DurationMs: e.Duration.Milliseconds(),
				CreatedAt:  e.CreatedAt.Format(time.RFC3339),
			})
		}
		printJSON(out)
		return nil
	}

	if len(entries) == 0 {
		fmt.Println(DimStyle.Render("No actions recorded yet."))
		return nil
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render(fmt.Sprintf("Recent Actions (%d)", len(entries))))
	fmt.Println(RenderSeparator())

	for _, e := range entries {
		status := SuccessStyle.Render("ok  ")
		if !e.Succeeded {
			status = ErrorStyle.Render("fail")
		}

		fmt.Printf("%s  %s  %s  %6s  %s\n",
			DimStyle.Render(e.CreatedAt.Format("2006-01-02 15:04:05")),
			status,
			ToolStyle.Render(fmt.Sprintf("%-16s", e.Tool)),
			formatDurationShort(e.Duration),
			ValueStyle.Render(util.TruncateRunes(e.ArgsJSON, 60)))
	}
	fmt.Println()
	return nil
}

// showHistoryCount prints the total number of recorded actions.
func showHistoryCount(store *history.Store, asJSON bool) error {
	count, err := store.Count()
	if err != nil {
		return fmt.Errorf("cannot count history: %w", err)
	}

	if asJSON {
		printJSON(map[string]int{"count": count})
		return nil
	}

	fmt.Printf("%s %s\n", DimStyle.Render("Recorded actions:"), ValueStyle.Render(formatNumber(count)))
	return nil
}
