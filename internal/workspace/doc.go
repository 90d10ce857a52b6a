// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workspace tracks external file changes under the working root.
//
// The action ledger can revert file mutations byte-for-byte, which is only
// safe if nothing else touched the file in between. The Tracker watches the
// root with fsnotify (debounced), the harness marks the agent's own writes
// with MarkSelf, and everything left over is an external edit. Undo asks
// ChangedSince before clobbering one and warns the user.
//
// Key Types:
//   - Tracker: recursive fsnotify watcher with a debounce sweep
//
// Usage:
//
//	tracker, err := workspace.New(root, cfg.Debounce())
//	if err == nil && tracker.Watch() == nil {
//	    defer tracker.Close()
//	    ldg.SetStalenessCheck(tracker.ChangedSince)
//	}
//
// Watching is best-effort: if the platform watcher cannot start, the agent
// runs without staleness warnings rather than failing.
package workspace
