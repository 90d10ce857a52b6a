// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package approve

import (
	"sort"
	"sync"
)

// =============================================================================
// DESTRUCTIVE TOOL CLASSIFIER
// =============================================================================

// DefaultDestructiveTools are destructive out of the box: they delete data,
// remove software, or execute arbitrary commands.
var DefaultDestructiveTools = []string{
	"delete_file",
	"remove_package",
	"run_shell",
}

// Classifier tracks which tool names count as destructive. The zero set is
// never used; NewClassifier seeds the defaults and embedders adjust from
// there.
type Classifier struct {
	mu          sync.Mutex
	destructive map[string]bool
}

// NewClassifier creates a classifier seeded with DefaultDestructiveTools.
func NewClassifier() *Classifier {
	c := &Classifier{destructive: make(map[string]bool, len(DefaultDestructiveTools))}
	for _, name := range DefaultDestructiveTools {
		c.destructive[name] = true
	}
	return c
}

// IsDestructive reports whether the named tool needs confirmation before
// executing.
func (c *Classifier) IsDestructive(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destructive[name]
}

// Mark adds a tool name to the destructive set.
func (c *Classifier) Mark(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destructive[name] = true
}

// Unmark removes a tool name from the destructive set.
func (c *Classifier) Unmark(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.destructive, name)
}

// SetDestructive replaces the whole destructive set.
func (c *Classifier) SetDestructive(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destructive = make(map[string]bool, len(names))
	for _, name := range names {
		c.destructive[name] = true
	}
}

// Destructive returns the current set, sorted for stable display.
func (c *Classifier) Destructive() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.destructive))
	for name := range c.destructive {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
