// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ledger records executed tool actions and reverses file mutations.
//
// Every tool invocation appends an ActionRecord. Records for successful file
// mutations carry an UndoPayload holding the pre-state: the file's prior
// bytes, or the UndoNewFile sentinel when the file did not exist before.
// UndoLast walks the ledger from newest to oldest, reverts the first record
// with a payload, and removes that record, so repeated calls step further
// back in time. A ledger with nothing undoable reports that in plain text;
// undo never fails with a panic or error value.
//
// The ledger is the one component mutated from multiple call sites (action
// recording and undo requests) and serializes all access with a mutex. It is
// shared across agent runs within a session, which makes the undo history
// cumulative for the whole conversation.
package ledger
