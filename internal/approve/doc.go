// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package approve decides which tool calls need a human before they run.
//
// The Classifier marks tool names as destructive; file deletion, software
// removal, and raw shell execution are destructive out of the box, and the
// set is configurable. The Gate couples the classifier with an optional
// ApprovalFunc callback: when a destructive call arrives and a callback is
// registered, the call waits on the callback's verdict.
//
// SECURITY: when no callback is registered, destructive calls execute
// unchecked. This is the deliberate default for headless and scripted runs,
// where there is no human to ask; interactive frontends must install a
// callback to get confirmation prompts.
//
// Elevation optionally adds a second factor (TOTP code or local PIN) on top
// of the interactive yes/no for high-assurance setups. It is off unless a
// factor is configured.
package approve
