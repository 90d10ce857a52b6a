// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists executed tool calls to a SQLite database so
// past runs stay inspectable after the process exits. The in-memory
// action ledger covers the current session; this store covers everything
// before it.
//
// Key Types:
//   - Store: single-writer SQLite store with WAL journaling
//   - Entry: one persisted action (tool, args, output, outcome, timing)
//   - Redactor: masks credentials before anything touches disk
//
// Every recorded entry passes through the secret redactors, and stored
// output is capped per action. The table is pruned to a row budget on
// each insert, oldest rows first.
//
// Usage:
//
//	store, err := history.Open(cfg.HistoryPath(), cfg.History.MaxRows)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	store.Record(history.Entry{SessionID: id, Tool: "write_file", ...})
//	entries, _ := store.Recent(20)
package history
